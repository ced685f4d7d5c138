package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/errutils"
)

// NewIndexCmd creates the index command with subcommands.
func NewIndexCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "index",
		Short: "Manage indexes",
		Long:  "List, add and remove the indexes artifacts can be uploaded to.",
	}

	cmd.AddCommand(
		newIndexListCmd(),
		newIndexAddCmd(),
		newIndexRemoveCmd(),
	)

	return cmd
}

func newIndexListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the configured indexes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			for _, name := range cfg.Indexes {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), name)
			}
			return nil
		},
	}
}

func newIndexAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add NAME",
		Short: "Add an index",
		Long: `Add an index to the configuration. When the repository has already been set
up, the directories and empty metadata of the new index are created as well.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndexAdd(cmd, args[0])
		},
	}
}

func runIndexAdd(cmd *cobra.Command, name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	initialised := false
	svc, err := openService(cfg, serviceOptions{requireKey: true, events: progress(cmd.OutOrStdout())})
	switch {
	case errors.Is(err, errutils.ErrKeyMissing):
		// Not set up yet; setup initialises every configured index.
	case err != nil:
		return err
	default:
		if err := svc.orch.AddIndex(cmd.Context(), name); err != nil {
			return err
		}
		initialised = true
	}

	if err := cfg.AddIndex(name); err != nil {
		return err
	}
	if err := cfg.SaveConfig(getConfigPath()); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	logger.Success("Index added", logger.Fields{"index": name, "initialised": initialised})
	if !initialised {
		logger.Info("Run 'apprepo setup' to initialise the new index")
	}
	return nil
}

func newIndexRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove NAME",
		Short: "Remove an index from the configuration",
		Long:  "Remove an index from the configuration. Its files are left on disk.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, err := openService(cfg, serviceOptions{})
			if err != nil {
				return err
			}
			if err := svc.orch.RemoveIndex(args[0]); err != nil {
				return err
			}
			cfg.RemoveIndex(args[0])
			if err := cfg.SaveConfig(getConfigPath()); err != nil {
				return fmt.Errorf("failed to save configuration: %w", err)
			}
			logger.Success("Index removed", logger.Fields{"index": args[0]})
			return nil
		},
	}
}
