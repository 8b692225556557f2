package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

var listLimit int

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List versions, newest first",
	Long: `List stored versions, newest first.

Version directories with missing or unreadable metadata are reported
but never stop the listing.

Examples:
  promptvault list              # Latest 20 versions
  promptvault list --limit 0    # All versions
  promptvault list --toon       # Compact output for LLM context`,
	Args: cobra.NoArgs,
	RunE: runList,
}

var showCmd = &cobra.Command{
	Use:   "show <version-id>",
	Short: "Show one version's metadata and files",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func init() {
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "maximum versions to show (0 for all)")
}

func runList(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	listing, err := v.ListVersions(listLimit)
	if err != nil {
		return err
	}

	view := newListView(listing)
	return render(cmd, fmt.Sprintf("%d versions", len(view.Versions)), view, func(w io.Writer) {
		if len(view.Versions) == 0 {
			fmt.Fprintln(w, "No versions found. Run 'promptvault snapshot' to create one.")
		} else {
			fmt.Fprintf(w, "%-28s  %-20s  %5s  %-12s  %s\n", "VERSION", "TIMESTAMP", "FILES", "CREATED BY", "CHANGES")
			for _, ver := range view.Versions {
				fmt.Fprintf(w, "%-28s  %-20s  %5d  %-12s  %d\n",
					ver.VersionID, ver.Timestamp, ver.FileCount, ver.CreatedBy, len(ver.Changes))
			}
		}
		for _, s := range view.Skipped {
			fmt.Fprintf(w, "⚠ skipped %s: %s\n", s.Dir, s.Error)
		}
	})
}

func runShow(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	meta, ok := v.GetVersion(args[0])
	if !ok {
		return verrors.NotFound(args[0])
	}
	files, err := v.Store().Files(args[0])
	if err != nil {
		return err
	}

	view := newVersionView(*meta)
	view.Files = files
	return render(cmd, "version "+view.VersionID, view, func(w io.Writer) {
		fmt.Fprintf(w, "Version:    %s\n", view.VersionID)
		fmt.Fprintf(w, "Timestamp:  %s\n", view.Timestamp)
		fmt.Fprintf(w, "Label:      %s\n", view.Label)
		fmt.Fprintf(w, "Created by: %s\n", view.CreatedBy)
		fmt.Fprintf(w, "Files (%d):\n", view.FileCount)
		for _, f := range view.Files {
			fmt.Fprintf(w, "  - %s\n", f)
		}
		if len(view.Changes) > 0 {
			fmt.Fprintln(w, "Changes:")
			for _, c := range view.Changes {
				fmt.Fprintf(w, "  %s  %s: %s\n", c.Timestamp, c.File, c.Description)
			}
		}
	})
}
