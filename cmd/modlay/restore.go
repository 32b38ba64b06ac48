package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/spf13/cobra"
)

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: MsgRestoreShort,
	Long:  MsgRestoreLong,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		install := types.InstallID(installID)
		if err := service.RestoreVanilla(install); err != nil {
			return err
		}
		fmt.Printf("%s Restored install to vanilla state\n", style.Success.Render("✓"))
		return nil
	},
}
