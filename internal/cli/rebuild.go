package cli

import (
	"github.com/spf13/cobra"

	"github.com/glorpus-work/apprepo/pkg/indexer"
)

// NewRebuildCmd creates the rebuild command.
func NewRebuildCmd() *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "rebuild INDEX",
		Short: "Regenerate index metadata from the files on disk",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, true)
			if err != nil {
				return err
			}
			return svc.orch.RebuildIndex(cmd.Context(), args[0], typ)
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "indexer type to rebuild (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("type", completeIndexerTypes)

	return cmd
}

// NewResignCmd creates the resign command.
func NewResignCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resign",
		Short: "Sign every RPM and Debian package again",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, err := openConfiguredService(cmd, true)
			if err != nil {
				return err
			}
			return svc.orch.ResignPackages(cmd.Context())
		},
	}
}

func completeIndexerTypes(*cobra.Command, []string, string) ([]string, cobra.ShellCompDirective) {
	return indexer.Types(), cobra.ShellCompDirectiveNoFileComp
}
