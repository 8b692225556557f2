package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var diffCmd = &cobra.Command{
	Use:   "diff <from> <to>",
	Short: "Show which files differ between two versions",
	Long: `Classify the files of two versions as added, modified or deleted.

Files are compared whole; no line-level hunks are produced.

Examples:
  promptvault diff baseline 20260105_101112
  promptvault diff baseline pre_rollback_baseline --json`,
	Args: cobra.ExactArgs(2),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	result, err := v.Diff(args[0], args[1])
	if err != nil {
		return err
	}

	view := newDiffView(args[0], args[1], result)
	return render(cmd, fmt.Sprintf("%d files differ", len(view.Changes)), view, func(w io.Writer) {
		if len(view.Changes) == 0 {
			fmt.Fprintf(w, "No differences between %s and %s\n", view.From, view.To)
			return
		}
		fmt.Fprintf(w, "%s → %s\n\n", view.From, view.To)
		for _, c := range view.Changes {
			switch c.Status {
			case "added":
				fmt.Fprintf(w, "  + %-40s %d lines, %d bytes\n", c.File, c.NewLines, c.NewSize)
			case "deleted":
				fmt.Fprintf(w, "  - %-40s %d lines, %d bytes\n", c.File, c.OldLines, c.OldSize)
			default:
				fmt.Fprintf(w, "  ~ %-40s %d → %d lines, %d → %d bytes\n",
					c.File, c.OldLines, c.NewLines, c.OldSize, c.NewSize)
			}
		}
	})
}
