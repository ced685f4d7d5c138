// Package cli implements the apprepo commands.
package cli

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		logFormat  string
	)

	cmd := &cobra.Command{
		Use:   "apprepo",
		Short: "A private multi-format package repository",
		Long: `apprepo ingests uploaded build artifacts into named indexes and publishes
them in the layouts APT, YUM, pip and plain HTTP clients expect:
- Ingestion: process, incoming, watch, process-rejected
- Maintenance: setup, rebuild, resign, delete, cleanup
- Inspection: artifacts, packages, index list`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			InitLogging()
		},
	}

	cmd.PersistentFlags().StringVar(&configPath, "config", "", "config file path (default: auto-detect)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default: from config)")
	cmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "log format: text, json")

	ConfigPath = &configPath
	LogLevel = &logLevel
	LogFormat = &logFormat

	cmd.AddCommand(
		NewSetupCmd(),
		NewProcessCmd(),
		NewIncomingCmd(),
		NewProcessRejectedCmd(),
		NewWatchCmd(),
		NewRebuildCmd(),
		NewResignCmd(),
		NewArtifactsCmd(),
		NewDeleteCmd(),
		NewCleanupCmd(),
		NewPackagesCmd(),
		NewIndexCmd(),
		NewHookCmd(),
		NewConfigCmd(),
		NewVersionCmd(),
	)

	return cmd
}
