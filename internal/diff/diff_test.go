package diff

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/snapshot"
)

func newStore(t *testing.T) *snapshot.Store {
	t.Helper()
	live := t.TempDir()
	clock := time.Date(2026, 1, 5, 10, 0, 0, 0, time.Local)
	s, err := snapshot.NewStore(snapshot.Options{
		LiveDir:     live,
		VersionsDir: filepath.Join(t.TempDir(), "versioned"),
		Now: func() time.Time {
			clock = clock.Add(time.Second)
			return clock
		},
	})
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	return s
}

func write(t *testing.T, s *snapshot.Store, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(s.LiveDir(), name), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestCompare_Self(t *testing.T) {
	s := newStore(t)
	write(t, s, "a.md", "one\ntwo\n")
	write(t, s, "b.md", "three")
	id, _ := s.Create("v1", nil)

	result, err := Compare(s, id, id)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected empty diff, got %v", result)
	}
}

func TestCompare_AddedDeleted(t *testing.T) {
	s := newStore(t)
	write(t, s, "A", "x")
	write(t, s, "B", "y")
	v1, _ := s.Create("v1", nil)

	os.Remove(filepath.Join(s.LiveDir(), "B"))
	write(t, s, "C", "z")
	v2, _ := s.Create("v2", nil)

	result, err := Compare(s, v1, v2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 entries, got %v", result)
	}
	if _, ok := result["A"]; ok {
		t.Error("unchanged file A should be omitted")
	}

	b := result["B"]
	if b.Status != StatusDeleted || b.Old == nil || b.New != nil {
		t.Errorf("B: unexpected change %+v", b)
	}
	if b.Old.Size != 1 || b.Old.Lines != 1 {
		t.Errorf("B: unexpected stats %+v", b.Old)
	}

	c := result["C"]
	if c.Status != StatusAdded || c.New == nil || c.Old != nil {
		t.Errorf("C: unexpected change %+v", c)
	}

	if names := result.Names(); len(names) != 2 || names[0] != "B" || names[1] != "C" {
		t.Errorf("unexpected names %v", names)
	}
}

func TestCompare_Modified(t *testing.T) {
	s := newStore(t)
	write(t, s, "prompt.md", "line one\nline two\n")
	v1, _ := s.Create("v1", nil)

	write(t, s, "prompt.md", "line one\nline two\nline three\n")
	v2, _ := s.Create("v2", nil)

	result, err := Compare(s, v1, v2)
	if err != nil {
		t.Fatal(err)
	}
	change, ok := result["prompt.md"]
	if !ok || change.Status != StatusModified {
		t.Fatalf("expected modified, got %+v", result)
	}
	if change.Old.Lines != 2 || change.New.Lines != 3 {
		t.Errorf("expected lines 2 -> 3, got %d -> %d", change.Old.Lines, change.New.Lines)
	}
	if change.Old.Size != 18 || change.New.Size != 29 {
		t.Errorf("expected sizes 18 -> 29, got %d -> %d", change.Old.Size, change.New.Size)
	}

	reverse, _ := Compare(s, v2, v1)
	if reverse["prompt.md"].Old.Lines != 3 {
		t.Error("reverse diff should swap sides")
	}
}

func TestCompare_NotFound(t *testing.T) {
	s := newStore(t)
	write(t, s, "a.md", "a")
	v1, _ := s.Create("v1", nil)

	if _, err := Compare(s, v1, "missing"); !errors.Is(err, verrors.ErrVersionNotFound) {
		t.Errorf("expected VERSION_NOT_FOUND, got %v", err)
	}
	if _, err := Compare(s, "missing", v1); !errors.Is(err, verrors.ErrVersionNotFound) {
		t.Errorf("expected VERSION_NOT_FOUND, got %v", err)
	}
}

func TestCountLines(t *testing.T) {
	tests := []struct {
		content string
		want    int
	}{
		{"", 0},
		{"one", 1},
		{"one\n", 1},
		{"one\ntwo", 2},
		{"one\ntwo\n", 2},
		{"\n", 1},
		{"\n\n", 2},
	}
	for _, tt := range tests {
		if got := CountLines([]byte(tt.content)); got != tt.want {
			t.Errorf("CountLines(%q) = %d, want %d", tt.content, got, tt.want)
		}
	}
}
