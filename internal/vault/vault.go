// Package vault coordinates the versioned prompt store: it applies single-file
// changes behind an automatic backup, rolls the live directory back to a
// prior version, and prunes old versions, all under a scoped lock per live
// directory. Every mutating operation is journaled and announced on the
// event bus.
package vault

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cadre-oss/promptvault/internal/config"
	"github.com/cadre-oss/promptvault/internal/diff"
	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/event"
	"github.com/cadre-oss/promptvault/internal/journal"
	"github.com/cadre-oss/promptvault/internal/retention"
	"github.com/cadre-oss/promptvault/internal/snapshot"
	"github.com/cadre-oss/promptvault/internal/telemetry"
)

// BackupPrefix prefixes the label of the safety snapshot a rollback takes.
const BackupPrefix = "pre_rollback_"

// BackupLabel is the deterministic label of the backup taken before rolling
// back to versionID.
func BackupLabel(versionID string) string {
	return BackupPrefix + versionID
}

// Options wires the collaborators of a Vault. Nil fields get silent defaults.
type Options struct {
	Logger      *telemetry.Logger
	Metrics     *telemetry.Metrics
	Bus         *event.Bus
	Journal     *journal.Journal
	LockTimeout time.Duration
}

// Vault is the entry point for operators and the analysis pipeline.
type Vault struct {
	store       *snapshot.Store
	lock        *Lock
	held        bool
	bus         *event.Bus
	journal     *journal.Journal
	metrics     *telemetry.Metrics
	logger      *telemetry.Logger
	lockTimeout time.Duration
}

// New wraps an existing store.
func New(store *snapshot.Store, opts Options) *Vault {
	logger := opts.Logger
	if logger == nil {
		logger = telemetry.NewDiscardLogger()
	}
	metrics := opts.Metrics
	if metrics == nil {
		metrics = telemetry.NewMetrics()
	}
	timeout := opts.LockTimeout
	if timeout == 0 {
		timeout = DefaultLockTimeout
	}
	return &Vault{
		store:       store,
		lock:        NewLock(store.LiveDir(), store.VersionsDir()),
		bus:         opts.Bus,
		journal:     opts.Journal,
		metrics:     metrics,
		logger:      logger,
		lockTimeout: timeout,
	}
}

// Open builds a Vault and its collaborators from configuration.
func Open(cfg *config.Config, logger *telemetry.Logger) (*Vault, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = telemetry.NewDiscardLogger()
	}

	liveDir := cfg.Path(cfg.LiveDir)
	logger = logger.WithFields(map[string]interface{}{"live_dir": liveDir})

	store, err := snapshot.NewStore(snapshot.Options{
		LiveDir:         liveDir,
		VersionsDir:     cfg.Path(cfg.VersionsDir),
		Patterns:        cfg.Snapshot.Patterns,
		CollisionPolicy: snapshot.CollisionPolicy(cfg.Snapshot.CollisionPolicy),
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	j, err := journal.New(cfg.Journal.Driver, cfg.Path(cfg.Journal.Path))
	if err != nil {
		return nil, verrors.Wrap(verrors.CodeConfigInvalid, "failed to open journal", err)
	}

	metrics := telemetry.NewMetrics()
	exporter, err := telemetry.OpenExporter(cfg.Path(cfg.Metrics.File))
	if err != nil {
		j.Close()
		return nil, verrors.IO("failed to open metrics file", err)
	}
	if exporter != nil {
		metrics.SetExporter(exporter)
	}

	bus, err := BuildBus(cfg.Hooks, logger)
	if err != nil {
		j.Close()
		return nil, err
	}

	return New(store, Options{
		Logger:  logger,
		Metrics: metrics,
		Bus:     bus,
		Journal: j,
	}), nil
}

// BuildBus creates an event bus with the configured hooks. Disabled hooks
// yield a nil bus, which is a valid no-op.
func BuildBus(cfg config.HooksConfig, logger *telemetry.Logger) (*event.Bus, error) {
	if !cfg.Enabled || len(cfg.Hooks) == 0 {
		return nil, nil
	}
	var hookLogger event.Logger
	if logger != nil {
		hookLogger = logger
	}
	bus := event.NewBus(hookLogger)
	for _, hc := range cfg.Hooks {
		h, err := event.Build(hc.Spec(), hookLogger)
		if err != nil {
			return nil, verrors.Wrap(verrors.CodeConfigInvalid, "invalid hook", err)
		}
		bus.Register(h)
	}
	return bus, nil
}

// Close waits for pending hooks, then closes the metrics exporter and the journal.
func (v *Vault) Close() error {
	v.bus.Wait()
	if err := v.metrics.Close(); err != nil {
		v.logger.Warn("Failed to close metrics exporter", "error", err)
	}
	return v.journal.Close()
}

// Store exposes the underlying snapshot store.
func (v *Vault) Store() *snapshot.Store { return v.store }

// Metrics exposes the operation counters.
func (v *Vault) Metrics() *telemetry.Metrics { return v.metrics }

// Journal exposes the operation journal; it may be nil.
func (v *Vault) Journal() *journal.Journal { return v.journal }

// WithLock runs fn while holding the live directory lock. fn receives a
// Vault whose methods do not lock again, so a caller can group several
// operations into one critical section. The lock is not reentrant: calling
// methods of the outer Vault from fn deadlocks until the lock timeout.
func (v *Vault) WithLock(fn func(*Vault) error) error {
	if v.held {
		return fn(v)
	}
	release, err := v.lock.Acquire(v.lockTimeout)
	if err != nil {
		return err
	}
	defer release()

	inner := *v
	inner.held = true
	return fn(&inner)
}

// Snapshot captures the live directory. An empty label yields a timestamp id.
func (v *Vault) Snapshot(label string) (string, error) {
	start := time.Now()
	var id string
	err := v.WithLock(func(v *Vault) error {
		var err error
		id, err = v.store.Create(label, nil)
		return err
	})
	v.finish(start, err, "version.created", map[string]string{"version_id": id})
	v.record(journal.Entry{Operation: journal.OpSnapshot, VersionID: id, Description: label}, err)
	if err != nil {
		return "", err
	}

	v.metrics.IncSnapshotsCreated()
	v.emit(event.VersionCreated, map[string]interface{}{"version_id": id, "label": label})
	return id, nil
}

// ApplyChange backs up the live directory and then overwrites fileName with
// content. The backup always exists before the write starts, and a failed
// backup leaves the live file untouched. The backup id is returned even
// when the write itself fails so the caller can trace the attempt.
//
// A blocking change.applying hook can veto the write; the backup is kept.
func (v *Vault) ApplyChange(fileName string, content []byte, description string) (string, error) {
	start := time.Now()
	if !v.store.Matches(fileName) {
		err := verrors.Newf(verrors.CodeInvalidFileName, "%q is not a capturable live file name", fileName).
			WithSuggestion("use a bare file name matching the configured snapshot patterns")
		v.finish(start, err, "change.applied", map[string]string{"file": fileName})
		v.record(journal.Entry{Operation: journal.OpApply, File: fileName, Description: description}, err)
		return "", err
	}

	var backupID string
	err := v.WithLock(func(v *Vault) error {
		target, err := snapshot.ResolveLiveFile(filepath.Join(v.store.LiveDir(), fileName))
		if err != nil {
			return verrors.Wrap(verrors.CodeInvalidFileName, fmt.Sprintf("cannot write %s", fileName), err).
				WithSuggestion("point the live entry at a regular file or remove it")
		}

		change := snapshot.Change{
			File:        fileName,
			Description: description,
			Timestamp:   snapshot.NewTimestamp(v.store.Now()),
		}
		id, err := v.store.Create("", []snapshot.Change{change})
		if err != nil {
			return err
		}
		backupID = id
		v.metrics.IncSnapshotsCreated()
		v.emit(event.VersionCreated, map[string]interface{}{"version_id": id})

		data := map[string]interface{}{"version_id": id, "file": fileName, "description": description}
		if err := v.bus.Emit(event.NewEvent(event.ChangeApplying, data)); err != nil {
			return verrors.Wrap(verrors.CodeHookRejected, fmt.Sprintf("change to %s was not applied", fileName), err).
				WithSuggestion(fmt.Sprintf("backup %s was kept; nothing in the live directory changed", id))
		}

		perm := os.FileMode(0644)
		if info, err := os.Stat(target); err == nil {
			perm = info.Mode().Perm()
		}
		if err := snapshot.WriteFileAtomic(target, content, perm); err != nil {
			return verrors.IO(fmt.Sprintf("failed to write %s", fileName), err).
				WithSuggestion(fmt.Sprintf("restore with 'promptvault rollback %s'", id))
		}
		return nil
	})

	v.finish(start, err, "change.applied", map[string]string{"file": fileName, "version_id": backupID})
	v.record(journal.Entry{
		Operation:   journal.OpApply,
		VersionID:   backupID,
		BackupID:    backupID,
		File:        fileName,
		Description: description,
	}, err)
	if err != nil {
		return backupID, err
	}

	v.metrics.IncChangesApplied()
	v.logger.Info("Change applied", "file", fileName, "backup_id", backupID, "bytes", len(content))
	v.emit(event.ChangeApplied, map[string]interface{}{
		"version_id":  backupID,
		"file":        fileName,
		"description": description,
	})
	return backupID, nil
}

// RollbackResult reports what a rollback did.
type RollbackResult struct {
	VersionID string   `json:"version_id"`
	BackupID  string   `json:"backup_id,omitempty"`
	Restored  []string `json:"restored"`
}

// Rollback restores every file of versionID into the live directory. With
// createBackup the current live state is first captured as
// BackupLabel(versionID), replacing an earlier backup with that label.
//
// Rollback is additive: live files absent from the target version are left
// in place. Files are copied one by one, each atomically; if a copy fails
// the files already restored stay restored and the error lists the rest.
func (v *Vault) Rollback(versionID string, createBackup bool) (*RollbackResult, error) {
	start := time.Now()
	result := &RollbackResult{VersionID: versionID, Restored: []string{}}

	err := v.WithLock(func(v *Vault) error {
		if !v.store.Exists(versionID) {
			return verrors.NotFound(versionID)
		}
		files, err := v.store.Files(versionID)
		if err != nil {
			return err
		}

		if createBackup && !snapshot.ValidLabel(BackupLabel(versionID)) {
			return verrors.Newf(verrors.CodeInvalidLabel, "version id %q is too long for a %s backup", versionID, BackupPrefix).
				WithSuggestion("roll back with --no-backup after taking a snapshot with a shorter label")
		}
		targets := make([]string, len(files))
		for i, name := range files {
			dst, err := snapshot.ResolveLiveFile(filepath.Join(v.store.LiveDir(), name))
			if err != nil {
				return verrors.Wrap(verrors.CodeInvalidFileName, fmt.Sprintf("cannot restore %s", name), err).
					WithSuggestion("point the live entry at a regular file or remove it")
			}
			targets[i] = dst
		}

		data := map[string]interface{}{"version_id": versionID, "backup": createBackup}
		if err := v.bus.Emit(event.NewEvent(event.RollbackStarted, data)); err != nil {
			return verrors.Wrap(verrors.CodeHookRejected, fmt.Sprintf("rollback to %s was not started", versionID), err)
		}

		if createBackup {
			id, err := v.store.Create(BackupLabel(versionID), nil)
			if err != nil {
				return err
			}
			result.BackupID = id
			v.metrics.IncSnapshotsCreated()
			v.emit(event.VersionCreated, map[string]interface{}{"version_id": id, "label": id})
		}

		for i, name := range files {
			src := filepath.Join(v.store.Path(versionID), name)
			if err := snapshot.ReplaceFileAtomic(src, targets[i]); err != nil {
				return verrors.IO(fmt.Sprintf("failed to restore %s (%d of %d files restored)", name, i, len(files)), err)
			}
			result.Restored = append(result.Restored, name)
			v.logger.Debug("Restored file", "version_id", versionID, "file", name)
		}
		return nil
	})

	v.finish(start, err, "rollback.completed", map[string]string{"version_id": versionID})
	v.record(journal.Entry{Operation: journal.OpRollback, VersionID: versionID, BackupID: result.BackupID}, err)
	if err != nil {
		return result, err
	}

	v.metrics.IncRollbacks()
	v.logger.Info("Rollback completed", "version_id", versionID, "backup_id", result.BackupID, "files", len(result.Restored))
	v.emit(event.RollbackCompleted, map[string]interface{}{
		"version_id": versionID,
		"backup_id":  result.BackupID,
		"files":      len(result.Restored),
	})
	return result, nil
}

// ListVersions returns up to limit versions newest first. It does not lock:
// versions are immutable and commit by rename.
func (v *Vault) ListVersions(limit int) (*snapshot.Listing, error) {
	listing, err := v.store.List(limit)
	if err != nil {
		return nil, err
	}
	v.metrics.AddMetadataSkipped(len(listing.Skipped))
	return listing, nil
}

// GetVersion looks up one version; the boolean is false when it is absent.
func (v *Vault) GetVersion(versionID string) (*snapshot.Metadata, bool) {
	return v.store.Get(versionID)
}

// Diff compares version a against version b.
func (v *Vault) Diff(a, b string) (diff.Result, error) {
	return diff.Compare(v.store, a, b)
}

// DeleteVersion removes one version. Deleting an absent version succeeds.
func (v *Vault) DeleteVersion(versionID string) error {
	start := time.Now()
	existed := false
	err := v.WithLock(func(v *Vault) error {
		existed = v.store.Exists(versionID)
		return v.store.Delete(versionID)
	})
	v.finish(start, err, "version.deleted", map[string]string{"version_id": versionID})
	v.record(journal.Entry{Operation: journal.OpDelete, VersionID: versionID}, err)
	if err != nil {
		return err
	}
	if existed {
		v.metrics.AddVersionsDeleted(1)
		v.emit(event.VersionDeleted, map[string]interface{}{"version_id": versionID})
	}
	return nil
}

// PlanPrune returns the versions DeleteOldVersions(keep) would remove.
func (v *Vault) PlanPrune(keep int) ([]snapshot.Metadata, error) {
	listing, err := v.store.List(0)
	if err != nil {
		return nil, err
	}
	return retention.SelectForDeletion(listing.Versions, keep), nil
}

// DeleteOldVersions keeps the keep newest versions, deletes the rest and
// returns how many were deleted. Leftover staging directories are removed
// too.
func (v *Vault) DeleteOldVersions(keep int) (int, error) {
	start := time.Now()
	deleted := 0
	var removedIDs []string

	err := v.WithLock(func(v *Vault) error {
		excess, err := v.PlanPrune(keep)
		if err != nil {
			return err
		}
		for _, meta := range excess {
			if err := v.store.Delete(meta.VersionID); err != nil {
				return err
			}
			deleted++
			removedIDs = append(removedIDs, meta.VersionID)
		}
		if n, err := v.store.CleanStaging(); err != nil {
			v.logger.Warn("Failed to clean staging directories", "error", err)
		} else if n > 0 {
			v.logger.Info("Removed leftover staging directories", "count", n)
		}
		return nil
	})

	v.metrics.AddVersionsDeleted(deleted)
	v.finish(start, err, "retention.pruned", map[string]string{"keep": fmt.Sprint(keep)})
	v.record(journal.Entry{
		Operation:   journal.OpPrune,
		Description: fmt.Sprintf("keep=%d deleted=%d", keep, deleted),
	}, err)
	for _, id := range removedIDs {
		v.emit(event.VersionDeleted, map[string]interface{}{"version_id": id})
	}
	if err != nil {
		return deleted, err
	}

	v.logger.Info("Old versions pruned", "keep", keep, "deleted", deleted)
	v.emit(event.RetentionPruned, map[string]interface{}{"keep": keep, "deleted": deleted, "version_ids": removedIDs})
	return deleted, nil
}

// ExportVersion copies a version, metadata included, into dest.
func (v *Vault) ExportVersion(versionID, dest string) error {
	err := v.store.Export(versionID, dest)
	v.record(journal.Entry{Operation: journal.OpExport, VersionID: versionID, Description: dest}, err)
	return err
}

// ExportArchive writes a version as a gzipped tarball to path. The file
// appears atomically; a failed export leaves nothing behind.
func (v *Vault) ExportArchive(versionID, path string) error {
	var buf bytes.Buffer
	err := v.store.Archive(versionID, &buf)
	if err == nil {
		if werr := snapshot.WriteFileAtomic(path, buf.Bytes(), 0644); werr != nil {
			err = verrors.IO("failed to write archive", werr)
		}
	}
	v.record(journal.Entry{Operation: journal.OpExport, VersionID: versionID, Description: path}, err)
	if err == nil {
		v.logger.Info("Version archived", "version_id", versionID, "path", path, "bytes", buf.Len())
	}
	return err
}

// History returns journal entries newest first.
func (v *Vault) History(f journal.Filter) ([]*journal.Entry, error) {
	entries, err := v.journal.List(f)
	if err != nil {
		return nil, verrors.IO("failed to read journal", err)
	}
	return entries, nil
}

// emit sends an after-the-fact event. The operation already happened, so a
// blocking hook failure is only logged.
func (v *Vault) emit(t event.EventType, data map[string]interface{}) {
	if err := v.bus.Emit(event.NewEvent(t, data)); err != nil {
		v.logger.Warn("Hook failed after operation completed", "event", string(t), "error", err)
	}
}

// record appends to the journal. Journal failures never fail the operation.
func (v *Vault) record(e journal.Entry, opErr error) {
	e.Success = opErr == nil
	if opErr != nil {
		e.Error = opErr.Error()
	}
	if _, err := v.journal.Record(e); err != nil {
		v.logger.Warn("Failed to write journal entry", "operation", string(e.Operation), "error", err)
	}
}

// finish records latency and failure counters and flushes metrics.
func (v *Vault) finish(start time.Time, err error, ev string, labels map[string]string) {
	v.metrics.RecordOperation(time.Since(start))
	if err != nil {
		v.metrics.IncOperationFailures()
		v.logger.Error("Operation failed", "event", ev, "error", err)
	}
	v.metrics.Flush(ev, labels)
}
