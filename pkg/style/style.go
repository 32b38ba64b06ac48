// Package style centralizes the lipgloss styles used by CLI output.
package style

import "github.com/charmbracelet/lipgloss"

var (
	// Heading styles section titles in command output.
	Heading = lipgloss.NewStyle().Bold(true)

	// Success styles confirmation marks and messages.
	Success = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))

	// Warning styles conflict and dry-run notices.
	Warning = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))

	// Error styles failure messages.
	Error = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)

	// Muted styles identifiers and secondary detail.
	Muted = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)
