package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/style"
	"github.com/spf13/cobra"
)

var registerCmd = &cobra.Command{
	Use:   "register <payload>",
	Short: MsgRegisterShort,
	Long:  MsgRegisterLong,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		id, err := service.RegisterMod(args[0])
		if err != nil {
			return err
		}
		mod, err := service.GetMod(id)
		if err != nil {
			return err
		}
		fmt.Printf("%s Registered %s %s\n",
			style.Success.Render("✓"), mod.Name, style.Muted.Render("("+string(id)+")"))
		return nil
	},
}
