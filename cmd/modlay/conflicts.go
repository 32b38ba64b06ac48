package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var conflictsCmd = &cobra.Command{
	Use:   "conflicts <profile-id>",
	Short: MsgConflictsShort,
	Long: `List every file declared by more than one mod in the profile, the mod
that wins it under the current order, and the shadowed mods. Listing is
read-only and never touches the game directory.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		conflicts, err := service.GetConflicts(types.InstallID(installID), types.ProfileID(args[0]))
		if err != nil {
			return err
		}
		if len(conflicts) == 0 {
			fmt.Println(style.Success.Render("No conflicts: every file has a single declaring mod."))
			return nil
		}

		fmt.Println(style.Warning.Render(fmt.Sprintf("%d contested path(s):", len(conflicts))))
		data := pterm.TableData{{"PATH", "WINNER", "SHADOWED"}}
		for _, c := range conflicts {
			losers := ""
			for i, l := range c.Losers {
				if i > 0 {
					losers += ", "
				}
				losers += string(l)
			}
			data = append(data, []string{c.Path, string(c.Winner), losers})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}
