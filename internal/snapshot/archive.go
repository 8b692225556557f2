package snapshot

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

// Archive writes version id, metadata record included, to w as a gzipped
// tarball. Entries are rooted at "<id>/".
func (s *Store) Archive(id string, w io.Writer) error {
	if !s.Exists(id) {
		return verrors.NotFound(id)
	}

	entries, err := os.ReadDir(s.Path(id))
	if err != nil {
		return verrors.IO(fmt.Sprintf("failed to read version %s", id), err)
	}

	gzWriter := gzip.NewWriter(w)
	tarWriter := tar.NewWriter(gzWriter)

	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := addToArchive(tarWriter, filepath.Join(s.Path(id), entry.Name()), id+"/"+entry.Name()); err != nil {
			return verrors.IO(fmt.Sprintf("failed to archive %s", entry.Name()), err)
		}
	}

	if err := tarWriter.Close(); err != nil {
		return verrors.IO("failed to finish archive", err)
	}
	if err := gzWriter.Close(); err != nil {
		return verrors.IO("failed to finish archive", err)
	}
	return nil
}

func addToArchive(tw *tar.Writer, path, name string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return err
	}
	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	header.Name = name

	if err := tw.WriteHeader(header); err != nil {
		return err
	}
	_, err = io.Copy(tw, file)
	return err
}
