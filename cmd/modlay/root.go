package main

import (
	"fmt"

	"github.com/modlay/modlay/pkg/config"
	"github.com/modlay/modlay/pkg/core"
	"github.com/modlay/modlay/pkg/filesystem"
	"github.com/modlay/modlay/pkg/logging"
	"github.com/modlay/modlay/pkg/paths"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// Version information set at build time
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var (
	verbosity int
	dryRun    bool

	rootCmd = &cobra.Command{
		Use:   "modlay",
		Short: "A profile-based game mod manager",
		Long: `modlay manages user-installed mods for game installations by overlaying
mod file sets onto the game's data directory. It tracks which files each
mod touches, resolves conflicts by load order, and can always restore
the original game state.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			logging.SetupLogger(verbosity)
			log.Debug().Str("command", cmd.Name()).Msg("Command started")
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase verbosity (-v INFO, -vv DEBUG, -vvv TRACE)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(modsCmd)
	rootCmd.AddCommand(installCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(activateCmd)
	rootCmd.AddCommand(deactivateCmd)
	rootCmd.AddCommand(switchCmd)
	rootCmd.AddCommand(conflictsCmd)
	rootCmd.AddCommand(restoreCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("modlay version %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

// initService builds the core service over the real filesystem.
func initService() (*core.Service, error) {
	p, err := paths.New()
	if err != nil {
		return nil, err
	}
	cfg, err := config.Load(p.ConfigDir())
	if err != nil {
		return nil, err
	}
	return core.NewService(filesystem.NewOS(), p, cfg), nil
}
