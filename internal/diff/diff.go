// Package diff classifies the files of two versions as added, modified or
// deleted. It compares whole files only and never produces line-level hunks.
package diff

import (
	"bytes"
	"sort"

	"golang.org/x/sync/errgroup"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/snapshot"
)

// Status is the classification of a differing file.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
)

// FileStats describes one side of a differing file.
type FileStats struct {
	Lines int `json:"lines"`
	Size  int `json:"size"`
}

// FileChange is the entry for a file that differs between two versions.
// Old is nil for added files and New is nil for deleted files.
type FileChange struct {
	Status Status     `json:"status"`
	Old    *FileStats `json:"old,omitempty"`
	New    *FileStats `json:"new,omitempty"`
}

// Result maps file names to their change. Identical files are absent.
type Result map[string]FileChange

// Names returns the changed file names, sorted.
func (r Result) Names() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Source reads captured versions. *snapshot.Store satisfies it.
type Source interface {
	Exists(id string) bool
	Files(id string) ([]string, error)
	ReadFile(id, name string) ([]byte, error)
}

var _ Source = (*snapshot.Store)(nil)

// Compare diffs version a against version b. Both must exist.
func Compare(src Source, a, b string) (Result, error) {
	for _, id := range []string{a, b} {
		if !src.Exists(id) {
			return nil, verrors.NotFound(id)
		}
	}

	var filesA, filesB map[string][]byte
	var g errgroup.Group
	g.Go(func() error {
		var err error
		filesA, err = load(src, a)
		return err
	})
	g.Go(func() error {
		var err error
		filesB, err = load(src, b)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	result := Result{}
	for name, contentA := range filesA {
		contentB, ok := filesB[name]
		switch {
		case !ok:
			result[name] = FileChange{Status: StatusDeleted, Old: stats(contentA)}
		case !bytes.Equal(contentA, contentB):
			result[name] = FileChange{Status: StatusModified, Old: stats(contentA), New: stats(contentB)}
		}
	}
	for name, contentB := range filesB {
		if _, ok := filesA[name]; !ok {
			result[name] = FileChange{Status: StatusAdded, New: stats(contentB)}
		}
	}
	return result, nil
}

func load(src Source, id string) (map[string][]byte, error) {
	names, err := src.Files(id)
	if err != nil {
		return nil, err
	}
	files := make(map[string][]byte, len(names))
	for _, name := range names {
		data, err := src.ReadFile(id, name)
		if err != nil {
			return nil, err
		}
		files[name] = data
	}
	return files, nil
}

func stats(content []byte) *FileStats {
	return &FileStats{Lines: CountLines(content), Size: len(content)}
}

// CountLines counts lines split on newline. A trailing newline does not start
// a new line and empty content has zero lines.
func CountLines(content []byte) int {
	if len(content) == 0 {
		return 0
	}
	n := bytes.Count(content, []byte{'\n'})
	if content[len(content)-1] != '\n' {
		n++
	}
	return n
}
