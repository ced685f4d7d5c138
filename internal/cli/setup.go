package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/execute"
)

// packagingTools are run by the signer and the indexers.
var packagingTools = []string{"gpg", "rpm", "dpkg-sig", "dpkg-scanpackages", "createrepo"}

// NewSetupCmd creates the setup command.
func NewSetupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup",
		Short: "Prepare the repository for uploads",
		Long: `Create the incoming and rejected directories of every index, generate the
signing key on first run, publish the public key and write empty metadata for
every indexer. A newly generated key re-signs every existing package.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if missing := execute.Missing(packagingTools...); len(missing) > 0 {
				logger.Warn("Packaging tools not found on PATH, affected indexers will fail", logger.Fields{
					"missing": strings.Join(missing, ", "),
				})
			}
			svc, err := openService(cfg, serviceOptions{events: progress(cmd.OutOrStdout())})
			if err != nil {
				return err
			}
			if err := svc.orch.Setup(cmd.Context()); err != nil {
				return err
			}
			logger.Success("Repository ready", logger.Fields{
				"base_directory": cfg.BaseDirectory,
				"fingerprint":    svc.keyring.Fingerprint(),
			})
			return nil
		},
	}
}
