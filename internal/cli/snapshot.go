package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var snapshotLabel string

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Capture the live directory as a new version",
	Long: `Capture every live prompt file as a new version.

Without --label the version id is the current time (YYYYMMDD_HHMMSS).
A label replaces any existing version with the same name.

Examples:
  promptvault snapshot                   # Timestamped version
  promptvault snapshot --label baseline  # Named version`,
	Args: cobra.NoArgs,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().StringVarP(&snapshotLabel, "label", "l", "", "version label (letters, digits, _ and -)")
}

func runSnapshot(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	id, err := v.Snapshot(snapshotLabel)
	if err != nil {
		return err
	}

	meta, _ := v.GetVersion(id)
	data := map[string]interface{}{"version_id": id}
	if meta != nil {
		data["file_count"] = meta.FileCount
	}
	return render(cmd, "snapshot created", data, func(w io.Writer) {
		if meta != nil {
			fmt.Fprintf(w, "✓ Created version %s (%d files)\n", id, meta.FileCount)
			return
		}
		fmt.Fprintf(w, "✓ Created version %s\n", id)
	})
}
