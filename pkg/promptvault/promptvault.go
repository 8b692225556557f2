// Package promptvault provides a public API over the versioned prompt store
// for analysis pipelines that edit prompt files.
//
// Every call returns a Result: a success flag, an error kind on failure,
// and the call's data. Callers never receive a bare error.
//
// Example usage:
//
//	import "github.com/cadre-oss/promptvault/pkg/promptvault"
//
//	pv, err := promptvault.Open(".")
//	if err != nil {
//		return err
//	}
//	defer pv.Close()
//
//	res := pv.ApplyChange("agent.system.main.md", newContent, "shorter tool instructions")
//	if !res.Success {
//		log.Printf("change refused: %s (%s)", res.ErrorKind, res.Message)
//	}
package promptvault

import (
	"github.com/cadre-oss/promptvault/internal/config"
	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/telemetry"
	"github.com/cadre-oss/promptvault/internal/vault"
)

// Result is the structured outcome of every call.
type Result = verrors.Result

// Error kinds reported in Result.ErrorKind.
const (
	ErrorInvalidLabel    = verrors.CodeInvalidLabel
	ErrorInvalidFileName = verrors.CodeInvalidFileName
	ErrorVersionNotFound = verrors.CodeVersionNotFound
	ErrorIOFailure       = verrors.CodeIOFailure
	ErrorMetadataCorrupt = verrors.CodeMetadataCorrupt
	ErrorConfigInvalid   = verrors.CodeConfigInvalid
	ErrorLockFailed      = verrors.CodeLockFailed
	ErrorHookRejected    = verrors.CodeHookRejected
)

// Client is an open store. It is safe for concurrent use; mutating calls
// on the same live directory are serialized.
type Client struct {
	vault  *vault.Vault
	logger *telemetry.Logger
}

// Open loads promptvault.yaml from dir (defaults when absent) and opens the
// store it describes.
func Open(dir string) (*Client, error) {
	cfg, err := config.Load(dir)
	if err != nil {
		return nil, err
	}
	return OpenConfig(cfg)
}

// OpenConfig opens the store described by cfg.
func OpenConfig(cfg *config.Config) (*Client, error) {
	logger := telemetry.NewLoggerWithOptions(cfg.Logging.Level, cfg.Logging.Format, false)
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Path(cfg.Logging.File)); err != nil {
			return nil, verrors.IO("failed to open log file", err)
		}
	}
	v, err := vault.Open(cfg, logger)
	if err != nil {
		logger.Close()
		return nil, err
	}
	return &Client{vault: v, logger: logger}, nil
}

// Close waits for pending hooks and releases the journal and log file.
func (c *Client) Close() error {
	err := c.vault.Close()
	c.logger.Close()
	return err
}

// Snapshot captures the live directory. Data: {"version_id"}.
func (c *Client) Snapshot(label string) Result {
	id, err := c.vault.Snapshot(label)
	return verrors.FromError(err, "snapshot created", map[string]interface{}{"version_id": id})
}

// ApplyChange backs up the live directory, then overwrites fileName.
// Data: {"backup_id", "file"}. A failure after the backup still reports
// the backup id in Data.
func (c *Client) ApplyChange(fileName string, content []byte, description string) Result {
	backupID, err := c.vault.ApplyChange(fileName, content, description)
	data := map[string]interface{}{"backup_id": backupID, "file": fileName}
	if err != nil {
		res := verrors.Failed(err)
		if backupID != "" {
			res.Data = data
		}
		return res
	}
	return verrors.OK("change applied", data)
}

// Rollback restores a version into the live directory. Data: *RollbackResult.
func (c *Client) Rollback(versionID string, createBackup bool) Result {
	result, err := c.vault.Rollback(versionID, createBackup)
	return verrors.FromError(err, "rollback completed", result)
}

// ListVersions returns up to limit versions newest first. Data: *snapshot.Listing.
func (c *Client) ListVersions(limit int) Result {
	listing, err := c.vault.ListVersions(limit)
	return verrors.FromError(err, "versions listed", listing)
}

// GetVersion returns one version's metadata. Data: *snapshot.Metadata.
func (c *Client) GetVersion(versionID string) Result {
	meta, ok := c.vault.GetVersion(versionID)
	if !ok {
		return verrors.Failed(verrors.NotFound(versionID))
	}
	return verrors.OK("version found", meta)
}

// Diff compares two versions. Data: diff.Result.
func (c *Client) Diff(a, b string) Result {
	result, err := c.vault.Diff(a, b)
	return verrors.FromError(err, "versions compared", result)
}

// DeleteOldVersions keeps the keep newest versions. Data: {"deleted"}.
func (c *Client) DeleteOldVersions(keep int) Result {
	deleted, err := c.vault.DeleteOldVersions(keep)
	return verrors.FromError(err, "old versions deleted", map[string]interface{}{"deleted": deleted})
}

// Vault exposes the underlying vault for callers that group operations
// with WithLock.
func (c *Client) Vault() *vault.Vault { return c.vault }
