package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbeaudouin05/quitcoach/api/config"
	"github.com/tbeaudouin05/quitcoach/api/logging"
)

// Version information (set at build time with -ldflags)
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var rootCmd = &cobra.Command{
	Use:           "quitcoach",
	Short:         "QuitCoach API server and maintenance tools",
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "quitcoach %s\n", Version)
		if BuildTime != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "Built: %s\n", BuildTime)
		}
		if GitCommit != "unknown" {
			fmt.Fprintf(cmd.OutOrStdout(), "Commit: %s\n", GitCommit)
		}
	},
}

// loadConfig loads the environment once and re-initializes logging from it.
func loadConfig() (*config.Config, error) {
	if config.AppConfig == nil {
		cfg, err := config.LoadConfig()
		if err != nil {
			return nil, err
		}
		config.AppConfig = cfg
	}
	logging.Init(logging.Config{
		Format:    config.AppConfig.LogFormat,
		Level:     config.AppConfig.LogLevel,
		Component: "quitcoach",
	})
	return config.AppConfig, nil
}

func main() {
	// Baseline logger for anything that fails before config is read
	logging.Init(logging.Config{Format: "auto", Level: "info", Component: "quitcoach"})

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("command failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
