package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewArtifactsCmd creates the artifacts command.
func NewArtifactsCmd() *cobra.Command {
	var typ string

	cmd := &cobra.Command{
		Use:   "artifacts INDEX",
		Short: "List the files managed by an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, false)
			if err != nil {
				return err
			}
			files, err := svc.orch.GetArtifacts(args[0], typ)
			if err != nil {
				return err
			}
			for _, f := range files {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), f)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&typ, "type", "", "indexer type to list (default: all)")
	_ = cmd.RegisterFlagCompletionFunc("type", completeIndexerTypes)

	return cmd
}

// NewDeleteCmd creates the delete command.
func NewDeleteCmd() *cobra.Command {
	var (
		match  string
		typ    string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "delete PATH | delete INDEX --match REGEX",
		Short: "Delete artifacts",
		Long: `Delete a single file below the packages directory, or with --match every
artifact of INDEX whose filename matches REGEX. Matching deletions rebuild the
affected indexers; a single-file delete leaves metadata alone until the next
rebuild.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, match != "")
			if err != nil {
				return err
			}
			if match == "" {
				return svc.orch.DeleteArtifact(cmd.Context(), args[0])
			}

			re, err := regexp.Compile(match)
			if err != nil {
				return fmt.Errorf("invalid --match expression: %w", err)
			}
			matched, err := svc.orch.DeleteMatching(cmd.Context(), args[0], typ, re, dryRun)
			if dryRun {
				for _, f := range matched {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "would delete: %s\n", f)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&match, "match", "", "regular expression matched against filenames")
	cmd.Flags().StringVar(&typ, "type", "", "restrict --match to one indexer type")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be deleted")

	return cmd
}

// NewCleanupCmd creates the cleanup command.
func NewCleanupCmd() *cobra.Command {
	var dryRun bool

	cmd := &cobra.Command{
		Use:   "cleanup INDEX",
		Short: "Remove all but the newest release of every package",
		Long: `Remove old releases from the browsable tree of INDEX and rebuild its listing.
Use --dry-run to see what would be removed without removing anything.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, false)
			if err != nil {
				return err
			}
			removed, err := svc.orch.CleanupOldVersions(cmd.Context(), args[0], dryRun)
			if err != nil {
				return err
			}
			verb := "removed"
			if dryRun {
				verb = "would remove"
			}
			for _, dir := range removed {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", verb, dir)
			}
			if len(removed) == 0 {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No old releases found")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "show what would be removed")

	return cmd
}

// NewPackagesCmd creates the packages command.
func NewPackagesCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "packages INDEX",
		Short: "Show the package listing of an index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := openConfiguredService(cmd, false)
			if err != nil {
				return err
			}
			packages, err := svc.orch.Packages(args[0])
			if err != nil {
				return err
			}
			if asJSON {
				encoder := json.NewEncoder(cmd.OutOrStdout())
				encoder.SetIndent("", "  ")
				return encoder.Encode(packages)
			}

			tabWriter := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, TabWidth, ' ', 0)
			_, _ = fmt.Fprintln(tabWriter, "NAME\tLATEST\tPRODUCT\tHIDDEN")
			for _, p := range packages {
				_, _ = fmt.Fprintf(tabWriter, "%s\t%s\t%s\t%t\n", p.Name, p.LatestVersion, p.ProductName, p.Hidden)
			}
			return tabWriter.Flush()
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print the raw listing")

	return cmd
}
