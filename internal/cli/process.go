package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// NewProcessCmd creates the process command.
func NewProcessCmd() *cobra.Command {
	var platformName, arch string

	cmd := &cobra.Command{
		Use:   "process INDEX FILE",
		Short: "Ingest a single file into an index",
		Long: `Offer FILE to every indexer of INDEX. Platform and architecture are taken
from the filename unless --platform is given. The file is removed afterwards;
if ingestion fails it is kept in the rejected directory of the index.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, true)
			if err != nil {
				return err
			}
			if platformName == "" {
				return svc.orch.ProcessFilepathByName(cmd.Context(), args[0], args[1])
			}
			return svc.orch.ProcessFilepath(cmd.Context(), args[0], args[1], platformName, arch)
		},
	}

	cmd.Flags().StringVar(&platformName, "platform", "", "platform of the artifact (default: from filename)")
	cmd.Flags().StringVar(&arch, "arch", "", "architecture of the artifact")

	return cmd
}

// NewIncomingCmd creates the incoming command.
func NewIncomingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "incoming [INDEX...]",
		Short: "Process the incoming directories",
		Long:  "Drain incoming/<index> of the given indexes, or of every index when none is named.",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, true)
			if err != nil {
				return err
			}
			indexes := args
			if len(indexes) == 0 {
				indexes = svc.orch.Registry().Names()
			}
			var errs []error
			for _, name := range indexes {
				if err := svc.orch.ProcessIncoming(cmd.Context(), name); err != nil {
					errs = append(errs, fmt.Errorf("%s: %w", name, err))
				}
			}
			return errors.Join(errs...)
		},
	}
}

// NewProcessRejectedCmd creates the process-rejected command.
func NewProcessRejectedCmd() *cobra.Command {
	var platformName, arch string

	cmd := &cobra.Command{
		Use:   "process-rejected INDEX FILENAME",
		Short: "Retry a rejected upload",
		Long:  "Move FILENAME from rejected/<index> back to incoming and ingest it again.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, true)
			if err != nil {
				return err
			}
			return svc.orch.ProcessRejected(cmd.Context(), args[0], args[1], platformName, arch)
		},
	}

	cmd.Flags().StringVar(&platformName, "platform", "", "platform of the artifact (default: from filename)")
	cmd.Flags().StringVar(&arch, "arch", "", "architecture of the artifact")

	return cmd
}

func openConfiguredService(cmd *cobra.Command, requireKey bool) (*service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return openService(cfg, serviceOptions{requireKey: requireKey, events: progress(cmd.OutOrStdout())})
}
