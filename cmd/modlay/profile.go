package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/modlay/modlay/pkg/style"
	"github.com/modlay/modlay/pkg/types"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: MsgProfileShort,
	Long:  MsgProfileLong,
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a new empty profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		profile, err := service.CreateProfile(types.InstallID(installID), args[0])
		if err != nil {
			return err
		}
		fmt.Printf("%s Created profile %s %s\n",
			style.Success.Render("✓"), profile.Name, style.Muted.Render("("+string(profile.ID)+")"))
		return nil
	},
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the install's profiles",
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
		profiles, err := service.ListProfiles(install)
		if err != nil {
			return err
		}
		if len(profiles) == 0 {
			fmt.Println("No profiles defined.")
			return nil
		}
		active, err := service.ActiveProfile(install)
		if err != nil {
			return err
		}

		data := pterm.TableData{{"ID", "NAME", "MODS", "ACTIVE"}}
		for _, p := range profiles {
			mark := ""
			if p.ID == active {
				mark = "*"
			}
			data = append(data, []string{string(p.ID), p.Name, strconv.Itoa(len(p.Mods)), mark})
		}
		return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
	},
}

var profileDeleteCmd = &cobra.Command{
	Use:   "delete <profile-id>",
	Short: "Delete a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.DeleteProfile(types.InstallID(installID), types.ProfileID(args[0])); err != nil {
			return err
		}
		fmt.Printf("%s Deleted profile %s\n", style.Success.Render("✓"), args[0])
		return nil
	},
}

var profileRenameCmd = &cobra.Command{
	Use:   "rename <profile-id> <new-name>",
	Short: "Rename a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.RenameProfile(types.InstallID(installID), types.ProfileID(args[0]), args[1]); err != nil {
			return err
		}
		fmt.Printf("%s Renamed profile to %s\n", style.Success.Render("✓"), args[1])
		return nil
	},
}

var profileReorderCmd = &cobra.Command{
	Use:   "reorder <profile-id> <mod-id>...",
	Short: "Replace a profile's mod order",
	Long: `Replace the profile's ordered mod list. Order is load priority: the
last mod listed wins any file it declares.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		mods := make([]types.ModID, len(args)-1)
		for i, arg := range args[1:] {
			mods[i] = types.ModID(arg)
		}
		if err := service.ReorderProfile(types.InstallID(installID), types.ProfileID(args[0]), mods); err != nil {
			return err
		}
		fmt.Printf("%s Reordered profile %s\n", style.Success.Render("✓"), args[0])
		return nil
	},
}

var profileAddCmd = &cobra.Command{
	Use:   "add <profile-id> <mod-id>",
	Short: "Add a mod at the highest-priority position",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.AddModToProfile(types.InstallID(installID), types.ProfileID(args[0]), types.ModID(args[1])); err != nil {
			return err
		}
		fmt.Printf("%s Added mod %s\n", style.Success.Render("✓"), args[1])
		return nil
	},
}

var profileRemoveCmd = &cobra.Command{
	Use:   "remove <profile-id> <mod-id>",
	Short: "Remove a mod from a profile",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		if err := service.RemoveModFromProfile(types.InstallID(installID), types.ProfileID(args[0]), types.ModID(args[1])); err != nil {
			return err
		}
		fmt.Printf("%s Removed mod %s\n", style.Success.Render("✓"), args[1])
		return nil
	},
}

var profileExportCmd = &cobra.Command{
	Use:   "export <profile-id>",
	Short: "Export a profile as portable YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		data, err := service.ExportProfile(types.InstallID(installID), types.ProfileID(args[0]))
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	},
}

var profileImportCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import a profile from exported YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireInstall(); err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		service, err := initService()
		if err != nil {
			return err
		}
		profile, err := service.ImportProfile(types.InstallID(installID), data)
		if err != nil {
			return err
		}
		fmt.Printf("%s Imported profile %s %s\n",
			style.Success.Render("✓"), profile.Name, style.Muted.Render("("+string(profile.ID)+")"))
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileCreateCmd)
	profileCmd.AddCommand(profileListCmd)
	profileCmd.AddCommand(profileDeleteCmd)
	profileCmd.AddCommand(profileRenameCmd)
	profileCmd.AddCommand(profileReorderCmd)
	profileCmd.AddCommand(profileAddCmd)
	profileCmd.AddCommand(profileRemoveCmd)
	profileCmd.AddCommand(profileExportCmd)
	profileCmd.AddCommand(profileImportCmd)
}
