package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	pruneKeep   int
	pruneDryRun bool
)

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest versions",
	Long: `Keep the newest versions and delete the rest.

The window defaults to retention.keep from promptvault.yaml. Leftover
staging directories from interrupted snapshots are removed too.

Examples:
  promptvault prune               # Keep retention.keep versions
  promptvault prune --keep 10     # Keep the 10 newest
  promptvault prune --dry-run     # Show what would be deleted`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

var deleteCmd = &cobra.Command{
	Use:   "delete <version-id>",
	Short: "Delete one version",
	Long:  `Delete one version. Deleting a version that does not exist succeeds.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

func init() {
	pruneCmd.Flags().IntVarP(&pruneKeep, "keep", "k", 0, "number of newest versions to keep (default retention.keep)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "show what would be deleted")
}

func runPrune(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	keep := cfg.Retention.Keep
	if cmd.Flags().Changed("keep") {
		keep = pruneKeep
	}
	if keep < 0 {
		return fmt.Errorf("--keep must not be negative")
	}

	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if pruneDryRun {
		excess, err := v.PlanPrune(keep)
		if err != nil {
			return err
		}
		ids := make([]string, 0, len(excess))
		for _, m := range excess {
			ids = append(ids, m.VersionID)
		}
		data := map[string]interface{}{"keep": keep, "would_delete": ids}
		return render(cmd, "dry run", data, func(w io.Writer) {
			if len(ids) == 0 {
				fmt.Fprintf(w, "Nothing to prune (keeping %d)\n", keep)
				return
			}
			fmt.Fprintf(w, "Would delete %d versions (keeping %d):\n", len(ids), keep)
			for _, id := range ids {
				fmt.Fprintf(w, "  - %s\n", id)
			}
		})
	}

	deleted, err := v.DeleteOldVersions(keep)
	if err != nil {
		return err
	}
	data := map[string]interface{}{"keep": keep, "deleted": deleted}
	return render(cmd, "pruned", data, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Deleted %d versions (keeping %d)\n", deleted, keep)
	})
}

func runDelete(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	if err := v.DeleteVersion(args[0]); err != nil {
		return err
	}
	return render(cmd, "deleted", map[string]interface{}{"version_id": args[0]}, func(w io.Writer) {
		fmt.Fprintf(w, "✓ Deleted %s\n", args[0])
	})
}
