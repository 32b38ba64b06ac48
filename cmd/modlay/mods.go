package main

import (
	"fmt"
	"strconv"

	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var modsCmd = &cobra.Command{
	Use:   "mods",
	Short: MsgModsShort,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		mods, err := service.ListMods()
		if err != nil {
			return err
		}
		if len(mods) == 0 {
			fmt.Println("No mods registered.")
			return nil
		}

		data := pterm.TableData{{"ID", "NAME", "VERSION", "FILES", "INSTALLED"}}
		for _, mod := range mods {
			data = append(data, []string{
				string(mod.ID),
				mod.Name,
				mod.Version,
				strconv.Itoa(len(mod.Files)),
				mod.InstalledAt.Format("2006-01-02 15:04"),
			})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var modsRmCmd = &cobra.Command{
	Use:   "rm <mod-id>",
	Short: "Remove a registered mod",
	Long: `Remove a mod from the datastore. Fails while any install's active
profile still references the mod; deactivate or switch profiles first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.RemoveMod(types.ModID(args[0])); err != nil {
			return err
		}
		fmt.Printf("%s Removed mod %s\n", style.Success.Render("✓"), args[0])
		return nil
	},
}

var modsVerifyCmd = &cobra.Command{
	Use:   "verify <mod-id>",
	Short: "Verify a mod's stored payload against its manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.VerifyMod(types.ModID(args[0])); err != nil {
			return err
		}
		fmt.Printf("%s Mod payload matches its manifest\n", style.Success.Render("✓"))
		return nil
	},
}

func init() {
	modsCmd.AddCommand(modsRmCmd)
	modsCmd.AddCommand(modsVerifyCmd)
}
