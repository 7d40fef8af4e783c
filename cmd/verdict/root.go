package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dusk-indust/verdict/internal/config"
	"github.com/dusk-indust/verdict/internal/logging"
)

// version is set at build time.
var version = "dev"

// globalFlags are shared by all subcommands.
type globalFlags struct {
	ConfigDir string
	LogLevel  string
	JSONLogs  bool
}

func newRootCommand() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:           "verdict",
		Short:         "Batch triage pipeline with quorum validation",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.ConfigDir, "config-dir", ".", "directory containing verdict.yml")
	rootCmd.PersistentFlags().StringVar(&flags.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&flags.JSONLogs, "json-logs", false, "emit logs as JSON")

	rootCmd.AddCommand(newRunCommand(&flags))
	rootCmd.AddCommand(newSampleCommand())
	rootCmd.AddCommand(newVersionCommand())

	return rootCmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the verdict version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	}
}

// loadProject merges the config file with CLI overrides and builds the
// logger.
func loadProject(flags *globalFlags) (*config.ProjectConfig, error) {
	cfg, err := config.Load(flags.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if flags.LogLevel != "" {
		cfg.LogLevel = flags.LogLevel
	}
	if flags.JSONLogs {
		cfg.JSONLogs = true
	}
	return cfg, nil
}

func newLogger(cfg *config.ProjectConfig) *slog.Logger {
	return logging.New(os.Stderr, logging.Options{Level: cfg.LogLevel, JSON: cfg.JSONLogs})
}
