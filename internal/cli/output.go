package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/cadre-oss/promptvault/internal/diff"
	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/journal"
	"github.com/cadre-oss/promptvault/internal/snapshot"
)

// render prints data as a JSON result, as toon, or through human.
func render(cmd *cobra.Command, message string, data interface{}, human func(w io.Writer)) error {
	w := cmd.OutOrStdout()

	if outputJSON {
		output, err := json.MarshalIndent(verrors.OK(message, data), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Fprintln(w, string(output))
		return nil
	}

	if outputToon {
		output, err := gotoon.Encode(data)
		if err != nil {
			return fmt.Errorf("failed to encode Toon: %w", err)
		}
		fmt.Fprintln(w, output)
		return nil
	}

	human(w)
	return nil
}

// reportError prints a failed command. With --json or --toon the failure is
// a structured result on stdout carrying error_kind.
func reportError(cmd *cobra.Command, err error) {
	result := verrors.Failed(err)

	switch {
	case outputJSON:
		if output, merr := json.MarshalIndent(result, "", "  "); merr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return
		}
	case outputToon:
		if output, terr := gotoon.Encode(result); terr == nil {
			fmt.Fprintln(cmd.OutOrStdout(), output)
			return
		}
	}

	w := cmd.ErrOrStderr()
	fmt.Fprintf(w, "Error: %v\n", err)
	if result.Suggestion != "" {
		fmt.Fprintf(w, "  → %s\n", result.Suggestion)
	}
}

// The view types flatten domain values into plain fields with string
// timestamps so both encoders see the same shape.

type changeView struct {
	File        string `json:"file"`
	Description string `json:"description"`
	Timestamp   string `json:"timestamp"`
}

type versionView struct {
	VersionID string       `json:"version_id"`
	Timestamp string       `json:"timestamp"`
	Label     string       `json:"label"`
	FileCount int          `json:"file_count"`
	CreatedBy string       `json:"created_by"`
	Changes   []changeView `json:"changes"`
	Files     []string     `json:"files,omitempty"`
}

type skippedView struct {
	Dir   string `json:"dir"`
	Error string `json:"error"`
}

type listView struct {
	Versions []versionView `json:"versions"`
	Skipped  []skippedView `json:"skipped,omitempty"`
}

type fileChangeView struct {
	File     string `json:"file"`
	Status   string `json:"status"`
	OldLines int    `json:"old_lines"`
	OldSize  int    `json:"old_size"`
	NewLines int    `json:"new_lines"`
	NewSize  int    `json:"new_size"`
}

type diffView struct {
	From    string           `json:"from"`
	To      string           `json:"to"`
	Changes []fileChangeView `json:"changes"`
}

type entryView struct {
	ID          string `json:"id"`
	Operation   string `json:"operation"`
	VersionID   string `json:"version_id,omitempty"`
	BackupID    string `json:"backup_id,omitempty"`
	File        string `json:"file,omitempty"`
	Description string `json:"description,omitempty"`
	Success     bool   `json:"success"`
	Error       string `json:"error,omitempty"`
	CreatedAt   string `json:"created_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func newVersionView(m snapshot.Metadata) versionView {
	changes := make([]changeView, 0, len(m.Changes))
	for _, c := range m.Changes {
		changes = append(changes, changeView{
			File:        c.File,
			Description: c.Description,
			Timestamp:   formatTime(c.Timestamp.Time),
		})
	}
	return versionView{
		VersionID: m.VersionID,
		Timestamp: formatTime(m.Timestamp.Time),
		Label:     m.Label,
		FileCount: m.FileCount,
		CreatedBy: m.CreatedBy,
		Changes:   changes,
	}
}

func newListView(listing *snapshot.Listing) listView {
	view := listView{Versions: make([]versionView, 0, len(listing.Versions))}
	for _, m := range listing.Versions {
		view.Versions = append(view.Versions, newVersionView(m))
	}
	for _, s := range listing.Skipped {
		view.Skipped = append(view.Skipped, skippedView{Dir: s.Dir, Error: s.Err.Error()})
	}
	return view
}

func newDiffView(from, to string, result diff.Result) diffView {
	view := diffView{From: from, To: to, Changes: make([]fileChangeView, 0, len(result))}
	for _, name := range result.Names() {
		c := result[name]
		fc := fileChangeView{File: name, Status: string(c.Status)}
		if c.Old != nil {
			fc.OldLines, fc.OldSize = c.Old.Lines, c.Old.Size
		}
		if c.New != nil {
			fc.NewLines, fc.NewSize = c.New.Lines, c.New.Size
		}
		view.Changes = append(view.Changes, fc)
	}
	return view
}

func newEntryViews(entries []*journal.Entry) []entryView {
	views := make([]entryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, entryView{
			ID:          e.ID,
			Operation:   string(e.Operation),
			VersionID:   e.VersionID,
			BackupID:    e.BackupID,
			File:        e.File,
			Description: e.Description,
			Success:     e.Success,
			Error:       e.Error,
			CreatedAt:   formatTime(e.CreatedAt),
		})
	}
	return views
}
