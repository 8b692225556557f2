package journal

import "time"

// Operation names a mutating vault operation.
type Operation string

const (
	OpSnapshot Operation = "snapshot"
	OpApply    Operation = "apply"
	OpRollback Operation = "rollback"
	OpDelete   Operation = "delete"
	OpPrune    Operation = "prune"
	OpExport   Operation = "export"
)

// Entry is one journal record. VersionID is the version the operation
// produced or targeted; BackupID is the safety snapshot taken first, if any.
type Entry struct {
	ID          string    `json:"id"`
	Operation   Operation `json:"operation"`
	VersionID   string    `json:"version_id,omitempty"`
	BackupID    string    `json:"backup_id,omitempty"`
	File        string    `json:"file,omitempty"`
	Description string    `json:"description,omitempty"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Filter narrows a listing. Zero values match everything; Limit <= 0 means no limit.
type Filter struct {
	Operation Operation
	VersionID string
	Limit     int
}

func (f Filter) matches(e *Entry) bool {
	if f.Operation != "" && e.Operation != f.Operation {
		return false
	}
	if f.VersionID != "" && e.VersionID != f.VersionID && e.BackupID != f.VersionID {
		return false
	}
	return true
}
