package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/promptvault/internal/journal"
)

var (
	historyLimit     int
	historyOperation string
	historyVersion   string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show the operation journal",
	Long: `Show recorded operations, newest first.

Examples:
  promptvault history                      # Last 20 operations
  promptvault history --op apply           # Only applied changes
  promptvault history --version baseline   # Operations touching a version`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "maximum entries to show (0 for all)")
	historyCmd.Flags().StringVar(&historyOperation, "op", "", "filter by operation (snapshot, apply, rollback, delete, prune, export)")
	historyCmd.Flags().StringVar(&historyVersion, "version", "", "filter by version or backup id")
}

func runHistory(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	entries, err := v.History(journal.Filter{
		Operation: journal.Operation(historyOperation),
		VersionID: historyVersion,
		Limit:     historyLimit,
	})
	if err != nil {
		return err
	}

	views := newEntryViews(entries)
	return render(cmd, fmt.Sprintf("%d entries", len(views)), views, func(w io.Writer) {
		if len(views) == 0 {
			fmt.Fprintln(w, "No operations recorded.")
			return
		}
		for _, e := range views {
			icon := "●"
			if !e.Success {
				icon = "✗"
			}
			target := e.VersionID
			if e.File != "" {
				target = e.File + " @ " + e.VersionID
			}
			fmt.Fprintf(w, "%s %s  %-9s %s\n", icon, e.CreatedAt, e.Operation, target)
			if e.Description != "" {
				fmt.Fprintf(w, "    %s\n", e.Description)
			}
			if e.Error != "" {
				fmt.Fprintf(w, "    Error: %s\n", e.Error)
			}
		}
	})
}
