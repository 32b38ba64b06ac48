package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/core"
	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/spf13/cobra"
)

var activateCmd = &cobra.Command{
	Use:   "activate <profile-id>",
	Short: MsgActivateShort,
	Long:  MsgActivateLong,
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

var switchCmd = &cobra.Command{
	Use:   "switch <profile-id>",
	Short: MsgSwitchShort,
	Long:  MsgSwitchLong,
	Args:  cobra.ExactArgs(1),
	RunE:  runActivate,
}

var deactivateCmd = &cobra.Command{
	Use:   "deactivate",
	Short: MsgDeactivateShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.DeactivateProfile(types.InstallID(installID)); err != nil {
			return err
		}
		fmt.Printf("%s No profile active, all overlaid files restored\n", style.Success.Render("✓"))
		return nil
	},
}

func runActivate(cmd *cobra.Command, args []string) error {
	if err := requireInstall(); err != nil {
		return err
	}
	service, err := initService()
	if err != nil {
		return err
	}
	install := types.InstallID(installID)
	profile := types.ProfileID(args[0])

	if dryRun {
		return printPlan(service, install, profile)
	}

	if err := service.ActivateProfile(install, profile); err != nil {
		return err
	}
	fmt.Printf("%s Activated profile %s\n", style.Success.Render("✓"), args[0])
	return nil
}

// printPlan renders the path delta an activation would touch.
func printPlan(service *core.Service, install types.InstallID, profile types.ProfileID) error {
	delta, err := service.PlanActivation(install, profile)
	if err != nil {
		return err
	}
	if delta.Empty() {
		fmt.Println("Nothing to do: overlay already matches the profile.")
		return nil
	}

	fmt.Println(style.Heading.Render("Planned changes:"))
	for _, change := range delta.Writes {
		if change.From == "" {
			fmt.Printf("  write   %s %s\n", change.Path, style.Muted.Render("← "+string(change.To)))
		} else {
			fmt.Printf("  rewrite %s %s\n", change.Path,
				style.Muted.Render(string(change.From)+" → "+string(change.To)))
		}
	}
	for _, change := range delta.Removes {
		fmt.Printf("  restore %s %s\n", change.Path, style.Muted.Render("was "+string(change.From)))
	}
	fmt.Printf("%d path(s) unchanged\n", delta.Unchanged)
	return nil
}

func init() {
	for _, cmd := range []*cobra.Command{activateCmd, switchCmd} {
		cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without executing them")
	}
}
