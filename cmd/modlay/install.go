package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/errors"
	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// installID is the install selected via the persistent --install flag.
var installID string

var installCmd = &cobra.Command{
	Use:   "install",
	Short: MsgInstallShort,
}

var installAddCmd = &cobra.Command{
	Use:   "add <game> <root>",
	Short: "Register a game installation to manage",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		install, err := service.AddInstall(args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%s Managing %s at %s %s\n",
			style.Success.Render("✓"), install.Game, install.Root,
			style.Muted.Render("("+string(install.ID)+")"))
		return nil
	},
}

var installListCmd = &cobra.Command{
	Use:   "list",
	Short: "List managed game installations",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		installs, err := service.ListInstalls()
		if err != nil {
			return err
		}
		if len(installs) == 0 {
			fmt.Println("No installs registered.")
			return nil
		}

		data := pterm.TableData{{"ID", "GAME", "ROOT", "ACTIVE PROFILE"}}
		for _, install := range installs {
			active, err := service.ActiveProfile(install.ID)
			if err != nil {
				return err
			}
			data = append(data, []string{string(install.ID), install.Game, install.Root, string(active)})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var installRebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild an install's state from disk inspection",
	Long: `Re-derive the install's manifest from what is actually on disk: the
backup index from the backup trees, and overlay ownership by hashing
current game files. Use after a crash left the manifest stale.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.RebuildState(types.InstallID(installID)); err != nil {
			return err
		}
		fmt.Printf("%s Rebuilt state for install %s\n", style.Success.Render("✓"), installID)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&installID, "install", "", "Game install id (see 'modlay install list')")

	installCmd.AddCommand(installAddCmd)
	installCmd.AddCommand(installListCmd)
	installCmd.AddCommand(installRebuildCmd)
}

// requireInstall validates the --install flag for install-scoped commands.
func requireInstall() error {
	if installID == "" {
		return errors.New(errors.ErrInvalidInput, "--install is required (see 'modlay install list')")
	}
	return nil
}
