package snapshot

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"errors"
	"io"
	"testing"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

func TestArchive(t *testing.T) {
	s := newTestStore(t, defaultPrompts(), nil)
	id, err := s.Create("release", nil)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := s.Archive(id, &buf); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	gz, err := gzip.NewReader(&buf)
	if err != nil {
		t.Fatalf("archive is not gzipped: %v", err)
	}
	tr := tar.NewReader(gz)

	got := make(map[string]string)
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			t.Fatal(err)
		}
		got[header.Name] = string(data)
	}

	for name, content := range defaultPrompts() {
		if got["release/"+name] != content {
			t.Errorf("%s: expected %q, got %q", name, content, got["release/"+name])
		}
	}
	if _, ok := got["release/"+MetadataFile]; !ok {
		t.Error("archive should include the metadata record")
	}
	if len(got) != len(defaultPrompts())+1 {
		t.Errorf("unexpected entries: %v", got)
	}
}

func TestArchive_NotFound(t *testing.T) {
	s := newTestStore(t, defaultPrompts(), nil)

	var buf bytes.Buffer
	if err := s.Archive("missing", &buf); !errors.Is(err, verrors.ErrVersionNotFound) {
		t.Fatalf("expected VERSION_NOT_FOUND, got %v", err)
	}
	if buf.Len() != 0 {
		t.Error("nothing should be written for a missing version")
	}
}
