package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cadre-oss/promptvault/internal/diff"
	"github.com/cadre-oss/promptvault/internal/snapshot"
)

// liveID names the live directory for diff.Compare. It is not a valid label,
// so it never collides with a stored version.
const liveID = "@live"

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the store and live changes since the latest version",
	Long: `Display the live and versions directories, the latest version, and which
live files differ from it.

Examples:
  promptvault status
  promptvault status --json`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

// liveSource serves the live directory as a pseudo-version next to the
// stored versions.
type liveSource struct {
	store *snapshot.Store
}

func (s liveSource) Exists(id string) bool {
	if id == liveID {
		return true
	}
	return s.store.Exists(id)
}

func (s liveSource) Files(id string) ([]string, error) {
	if id == liveID {
		return s.store.LiveFiles()
	}
	return s.store.Files(id)
}

func (s liveSource) ReadFile(id, name string) ([]byte, error) {
	if id == liveID {
		return os.ReadFile(filepath.Join(s.store.LiveDir(), name))
	}
	return s.store.ReadFile(id, name)
}

type statusView struct {
	LiveDir     string           `json:"live_dir"`
	VersionsDir string           `json:"versions_dir"`
	LiveFiles   int              `json:"live_files"`
	Versions    int              `json:"versions"`
	Skipped     int              `json:"skipped"`
	Latest      string           `json:"latest,omitempty"`
	Changes     []fileChangeView `json:"changes"`
}

func runStatus(cmd *cobra.Command, args []string) error {
	v, closeVault, err := openVault()
	if err != nil {
		return err
	}
	defer closeVault()

	store := v.Store()
	live, err := store.LiveFiles()
	if err != nil {
		return err
	}
	listing, err := v.ListVersions(0)
	if err != nil {
		return err
	}

	view := statusView{
		LiveDir:     store.LiveDir(),
		VersionsDir: store.VersionsDir(),
		LiveFiles:   len(live),
		Versions:    len(listing.Versions),
		Skipped:     len(listing.Skipped),
		Changes:     []fileChangeView{},
	}
	if len(listing.Versions) > 0 {
		view.Latest = listing.Versions[0].VersionID
		result, err := diff.Compare(liveSource{store: store}, view.Latest, liveID)
		if err != nil {
			return err
		}
		view.Changes = newDiffView(view.Latest, liveID, result).Changes
	}

	return render(cmd, "status", view, func(w io.Writer) {
		fmt.Fprintf(w, "Live dir:     %s (%d files)\n", view.LiveDir, view.LiveFiles)
		fmt.Fprintf(w, "Versions dir: %s (%d versions)\n", view.VersionsDir, view.Versions)
		if view.Skipped > 0 {
			fmt.Fprintf(w, "⚠ %d version directories have unreadable metadata\n", view.Skipped)
		}
		if view.Latest == "" {
			fmt.Fprintln(w, "\nNo versions yet. Run 'promptvault snapshot' to create one.")
			return
		}
		fmt.Fprintf(w, "Latest:       %s\n\n", view.Latest)
		if len(view.Changes) == 0 {
			fmt.Fprintln(w, "Live directory matches the latest version.")
			return
		}
		fmt.Fprintln(w, "Changed since latest version:")
		for _, c := range view.Changes {
			fmt.Fprintf(w, "  %-9s %s\n", c.Status, c.File)
		}
	})
}
