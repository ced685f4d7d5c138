package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/spf13/cobra"

	"github.com/glorpus-work/apprepo/internal/logger"
	"github.com/glorpus-work/apprepo/pkg/fsutil"
	"github.com/glorpus-work/apprepo/pkg/hook"
)

// NewHookCmd creates the hook command with subcommands.
func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook",
		Short: "Manage ingestion hooks",
		Long: `Hooks are Tengo scripts run around every ingestion. A pre-ingest hook can
reject an artifact by assigning err; a post-ingest hook sees which indexers
placed it.`,
	}

	cmd.AddCommand(newHookTemplateCmd(), newHookInitCmd())

	return cmd
}

func hookArgs(cmd *cobra.Command, args []string) error {
	if err := cobra.ExactArgs(1)(cmd, args); err != nil {
		return err
	}
	if !slices.Contains(hook.Types(), hook.Type(args[0])) {
		return fmt.Errorf("unsupported hook event: %s (want one of %v)", args[0], hook.Types())
	}
	return nil
}

func newHookTemplateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "template EVENT",
		Short: "Print a starting point for a hook script",
		Args:  hookArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), hook.Template(hook.Type(args[0])))
			return err
		},
	}
}

func newHookInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init EVENT",
		Short: "Write a hook template into the hooks directory",
		Args:  hookArgs,
		RunE: func(_ *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			path := filepath.Join(cfg.HooksDir(), args[0]+hook.Extension)
			if fsutil.Exists(path) && !force {
				return fmt.Errorf("hook already exists at %s (use --force to overwrite)", path)
			}
			if err := fsutil.EnsureDir(cfg.HooksDir()); err != nil {
				return err
			}
			if err := os.WriteFile(path, []byte(hook.Template(hook.Type(args[0]))+"\n"), fsutil.FileModeDefault); err != nil {
				return err
			}
			logger.Success("Hook created", logger.Fields{"path": path})
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing hook")

	return cmd
}
