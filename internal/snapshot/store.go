// Package snapshot owns the on-disk layout of prompt versions: one directory
// per version under the versions root, holding a byte-for-byte copy of every
// captured live file plus a metadata.json record.
//
// Store methods are not internally synchronized. Callers that mutate the
// same live directory from several goroutines or processes must serialize
// access themselves; package vault provides a scoped lock for that.
package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/telemetry"
)

const (
	stagingPrefix = ".staging-"
	trashPrefix   = ".trash-"
)

// CollisionPolicy decides what happens when an auto-generated id already exists.
type CollisionPolicy string

const (
	// CollisionSuffix appends _2, _3, ... to the timestamp id.
	CollisionSuffix CollisionPolicy = "suffix"
	// CollisionOverwrite replaces the existing version (last writer wins).
	CollisionOverwrite CollisionPolicy = "overwrite"
)

// ParseCollisionPolicy validates a policy name; empty selects CollisionSuffix.
func ParseCollisionPolicy(s string) (CollisionPolicy, error) {
	switch CollisionPolicy(s) {
	case "", CollisionSuffix:
		return CollisionSuffix, nil
	case CollisionOverwrite:
		return CollisionOverwrite, nil
	default:
		return "", fmt.Errorf("unknown collision policy %q (must be suffix or overwrite)", s)
	}
}

// Options configures a Store.
type Options struct {
	// LiveDir is the authoritative configuration directory.
	LiveDir string
	// VersionsDir holds version directories. Default: <LiveDir>/versioned.
	VersionsDir string
	// Patterns select which top-level live files are captured. Default: ["*"].
	Patterns []string
	// CollisionPolicy applies to unlabeled snapshots only.
	CollisionPolicy CollisionPolicy
	Logger          *telemetry.Logger
	// Now is the clock; tests inject a fixed one.
	Now func() time.Time
}

// Store is the versioned snapshot store for one live directory.
type Store struct {
	liveDir     string
	versionsDir string
	patterns    []string
	policy      CollisionPolicy
	logger      *telemetry.Logger
	now         func() time.Time
}

// Skipped describes a version directory left out of a listing.
type Skipped struct {
	Dir string `json:"dir"`
	Err error  `json:"-"`
}

// Listing is the result of List: usable versions newest first, plus the
// directories whose metadata could not be read.
type Listing struct {
	Versions []Metadata `json:"versions"`
	Skipped  []Skipped  `json:"skipped,omitempty"`
}

// NewStore validates opts and ensures the versions root exists.
func NewStore(opts Options) (*Store, error) {
	if opts.LiveDir == "" {
		return nil, verrors.New(verrors.CodeConfigInvalid, "live directory is required")
	}
	liveDir, err := filepath.Abs(opts.LiveDir)
	if err != nil {
		return nil, verrors.IO("failed to resolve live directory", err)
	}

	versionsDir := opts.VersionsDir
	if versionsDir == "" {
		versionsDir = filepath.Join(liveDir, "versioned")
	}
	versionsDir, err = filepath.Abs(versionsDir)
	if err != nil {
		return nil, verrors.IO("failed to resolve versions directory", err)
	}

	patterns := opts.Patterns
	if len(patterns) == 0 {
		patterns = []string{"*"}
	}
	for _, p := range patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, verrors.Wrap(verrors.CodeConfigInvalid, fmt.Sprintf("invalid snapshot pattern %q", p), err)
		}
	}

	policy, err := ParseCollisionPolicy(string(opts.CollisionPolicy))
	if err != nil {
		return nil, verrors.Wrap(verrors.CodeConfigInvalid, "invalid collision policy", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewDiscardLogger()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	if err := os.MkdirAll(versionsDir, 0755); err != nil {
		return nil, verrors.IO("failed to create versions directory", err)
	}

	return &Store{
		liveDir:     liveDir,
		versionsDir: versionsDir,
		patterns:    patterns,
		policy:      policy,
		logger:      logger,
		now:         now,
	}, nil
}

// LiveDir returns the absolute live directory path.
func (s *Store) LiveDir() string { return s.liveDir }

// VersionsDir returns the absolute versions root.
func (s *Store) VersionsDir() string { return s.versionsDir }

// Now returns the store clock's current time.
func (s *Store) Now() time.Time { return s.now() }

// Path returns the directory of a version. id must be a valid label.
func (s *Store) Path(id string) string {
	return filepath.Join(s.versionsDir, id)
}

// Exists reports whether a version directory exists for id.
func (s *Store) Exists(id string) bool {
	if !ValidLabel(id) {
		return false
	}
	info, err := os.Stat(s.Path(id))
	return err == nil && info.IsDir()
}

// Matches reports whether a live file name is captured by snapshots.
func (s *Store) Matches(name string) bool {
	if !ValidFileName(name) {
		return false
	}
	for _, p := range s.patterns {
		if ok, _ := filepath.Match(p, name); ok {
			return true
		}
	}
	return false
}

// LiveFiles lists the captured files of the live directory, sorted by name.
// Symlinks are captured when they resolve to a regular file.
func (s *Store) LiveFiles() ([]string, error) {
	entries, err := os.ReadDir(s.liveDir)
	if err != nil {
		return nil, verrors.IO("failed to read live directory", err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if !entry.Type().IsRegular() {
			if entry.Type()&os.ModeSymlink == 0 {
				continue
			}
			info, err := os.Stat(filepath.Join(s.liveDir, name))
			if err != nil || !info.Mode().IsRegular() {
				s.logger.Debug("Symlink does not resolve to a regular file, not captured", "file", name)
				continue
			}
		}
		if name == MetadataFile {
			s.logger.Warn("Live file shadows the metadata record, not captured", "file", name)
			continue
		}
		if s.Matches(name) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Create captures every live file into a new version and returns its id.
// A non-empty label becomes the version id and replaces any version with the
// same id; an empty label yields a YYYYMMDD_HHMMSS id subject to the
// collision policy. The live directory is never modified.
func (s *Store) Create(label string, changes []Change) (string, error) {
	if label != "" && !ValidLabel(label) {
		return "", verrors.Newf(verrors.CodeInvalidLabel, "label %q may only contain letters, digits, '_' and '-'", label)
	}

	now := s.now()
	id := label
	if id == "" {
		id = s.timestampID(now)
	}

	files, err := s.LiveFiles()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(s.versionsDir, 0755); err != nil {
		return "", verrors.IO("failed to create versions directory", err)
	}

	staging := filepath.Join(s.versionsDir, stagingPrefix+uuid.NewString())
	if err := os.Mkdir(staging, 0755); err != nil {
		return "", verrors.IO("failed to create staging directory", err)
	}
	committed := false
	defer func() {
		if !committed {
			os.RemoveAll(staging)
		}
	}()

	for _, name := range files {
		if err := CopyFile(filepath.Join(s.liveDir, name), filepath.Join(staging, name)); err != nil {
			return "", verrors.IO(fmt.Sprintf("failed to capture %s", name), err)
		}
		s.logger.Debug("Captured file", "version_id", id, "file", name)
	}

	if changes == nil {
		changes = []Change{}
	}
	meta := Metadata{
		VersionID: id,
		Timestamp: NewTimestamp(now),
		Label:     label,
		FileCount: len(files),
		Changes:   changes,
		CreatedBy: createdBy(changes),
	}
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", verrors.IO("failed to encode metadata", err)
	}
	if err := WriteFileAtomic(filepath.Join(staging, MetadataFile), data, 0644); err != nil {
		return "", verrors.IO("failed to write metadata", err)
	}

	if err := s.commit(staging, id); err != nil {
		return "", err
	}
	committed = true

	s.logger.Info("Version created", "version_id", id, "files", len(files), "created_by", meta.CreatedBy)
	return id, nil
}

// timestampID generates an id for an unlabeled snapshot.
func (s *Store) timestampID(now time.Time) string {
	base := now.Format(IDFormat)
	if s.policy == CollisionOverwrite || !s.Exists(base) {
		return base
	}
	for n := 2; ; n++ {
		candidate := base + "_" + strconv.Itoa(n)
		if !s.Exists(candidate) {
			return candidate
		}
	}
}

// commit moves a fully written staging directory to its final id. An existing
// version with that id is moved aside first and removed afterwards, so the id
// always resolves to a complete version.
func (s *Store) commit(staging, id string) error {
	final := s.Path(id)

	var trash string
	if _, err := os.Stat(final); err == nil {
		trash = filepath.Join(s.versionsDir, trashPrefix+uuid.NewString())
		if err := os.Rename(final, trash); err != nil {
			return verrors.IO(fmt.Sprintf("failed to replace version %s", id), err)
		}
		s.logger.Info("Replacing existing version", "version_id", id)
	}

	if err := os.Rename(staging, final); err != nil {
		if trash != "" {
			_ = os.Rename(trash, final)
		}
		return verrors.IO(fmt.Sprintf("failed to commit version %s", id), err)
	}
	syncDir(s.versionsDir)

	if trash != "" {
		if err := os.RemoveAll(trash); err != nil {
			s.logger.Warn("Failed to remove replaced version", "path", trash, "error", err)
		}
	}
	return nil
}

// List returns up to limit versions sorted by timestamp, newest first.
// limit <= 0 means no limit. Directories with unreadable metadata are
// reported in Listing.Skipped instead of failing the listing.
func (s *Store) List(limit int) (*Listing, error) {
	listing := &Listing{Versions: []Metadata{}}

	entries, err := os.ReadDir(s.versionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return listing, nil
		}
		return nil, verrors.IO("failed to read versions directory", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		meta, err := s.readMetadata(entry.Name())
		if err != nil {
			s.logger.Warn("Skipping version with unreadable metadata", "dir", entry.Name(), "error", err)
			listing.Skipped = append(listing.Skipped, Skipped{Dir: entry.Name(), Err: err})
			continue
		}
		listing.Versions = append(listing.Versions, *meta)
	}

	SortNewestFirst(listing.Versions)

	if limit > 0 && len(listing.Versions) > limit {
		listing.Versions = listing.Versions[:limit]
	}
	return listing, nil
}

// SortNewestFirst orders versions by timestamp descending, breaking ties by
// version id descending so the order is total.
func SortNewestFirst(versions []Metadata) {
	sort.SliceStable(versions, func(i, j int) bool {
		ti, tj := versions[i].Timestamp.Time, versions[j].Timestamp.Time
		if !ti.Equal(tj) {
			return ti.After(tj)
		}
		return versions[i].VersionID > versions[j].VersionID
	})
}

func (s *Store) readMetadata(dirName string) (*Metadata, error) {
	data, err := os.ReadFile(filepath.Join(s.versionsDir, dirName, MetadataFile))
	if err != nil {
		return nil, verrors.Wrap(verrors.CodeMetadataCorrupt, fmt.Sprintf("cannot read metadata for %s", dirName), err)
	}
	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, verrors.Wrap(verrors.CodeMetadataCorrupt, fmt.Sprintf("cannot parse metadata for %s", dirName), err)
	}
	if err := meta.validate(dirName); err != nil {
		return nil, verrors.Wrap(verrors.CodeMetadataCorrupt, fmt.Sprintf("invalid metadata for %s", dirName), err)
	}
	if meta.Changes == nil {
		meta.Changes = []Change{}
	}
	return &meta, nil
}

// Get looks up a version's metadata. The boolean is false when the version
// does not exist or its metadata cannot be read.
func (s *Store) Get(id string) (*Metadata, bool) {
	if !ValidLabel(id) {
		return nil, false
	}
	meta, err := s.readMetadata(id)
	if err != nil {
		return nil, false
	}
	return meta, true
}

// Files returns the captured file names of a version, sorted, excluding the
// metadata record.
func (s *Store) Files(id string) ([]string, error) {
	if !s.Exists(id) {
		return nil, verrors.NotFound(id)
	}
	entries, err := os.ReadDir(s.Path(id))
	if err != nil {
		return nil, verrors.IO(fmt.Sprintf("failed to read version %s", id), err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.Type().IsRegular() || entry.Name() == MetadataFile {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

// ReadFile returns the content of one captured file.
func (s *Store) ReadFile(id, name string) ([]byte, error) {
	if !s.Exists(id) {
		return nil, verrors.NotFound(id)
	}
	if !ValidFileName(name) {
		return nil, verrors.Newf(verrors.CodeInvalidFileName, "invalid file name %q", name)
	}
	data, err := os.ReadFile(filepath.Join(s.Path(id), name))
	if err != nil {
		return nil, verrors.IO(fmt.Sprintf("failed to read %s from version %s", name, id), err)
	}
	return data, nil
}

// Delete removes a version entirely. Deleting an absent version is a no-op.
func (s *Store) Delete(id string) error {
	if !ValidLabel(id) {
		return verrors.Newf(verrors.CodeInvalidLabel, "invalid version id %q", id)
	}
	final := s.Path(id)
	if _, err := os.Stat(final); os.IsNotExist(err) {
		return nil
	}

	trash := filepath.Join(s.versionsDir, trashPrefix+uuid.NewString())
	if err := os.Rename(final, trash); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return verrors.IO(fmt.Sprintf("failed to delete version %s", id), err)
	}
	if err := os.RemoveAll(trash); err != nil {
		return verrors.IO(fmt.Sprintf("failed to delete version %s", id), err)
	}

	s.logger.Info("Version deleted", "version_id", id)
	return nil
}

// Export copies a version's files, metadata record included, into dest.
func (s *Store) Export(id, dest string) error {
	if !s.Exists(id) {
		return verrors.NotFound(id)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return verrors.IO("failed to create export directory", err)
	}

	entries, err := os.ReadDir(s.Path(id))
	if err != nil {
		return verrors.IO(fmt.Sprintf("failed to read version %s", id), err)
	}
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		if err := CopyFile(filepath.Join(s.Path(id), entry.Name()), filepath.Join(dest, entry.Name())); err != nil {
			return verrors.IO(fmt.Sprintf("failed to export %s", entry.Name()), err)
		}
	}

	s.logger.Info("Version exported", "version_id", id, "dest", dest)
	return nil
}

// CleanStaging removes staging and trash directories left by interrupted
// operations and returns how many were removed.
func (s *Store) CleanStaging() (int, error) {
	entries, err := os.ReadDir(s.versionsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, verrors.IO("failed to read versions directory", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if !entry.IsDir() || !(strings.HasPrefix(name, stagingPrefix) || strings.HasPrefix(name, trashPrefix)) {
			continue
		}
		if err := os.RemoveAll(filepath.Join(s.versionsDir, name)); err != nil {
			return removed, verrors.IO(fmt.Sprintf("failed to remove %s", name), err)
		}
		removed++
	}
	return removed, nil
}
