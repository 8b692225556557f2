package snapshot

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// MetadataFile is the per-version metadata record name.
const MetadataFile = "metadata.json"

// IDFormat is the layout of auto-generated version ids (YYYYMMDD_HHMMSS).
const IDFormat = "20060102_150405"

// Creator values for Metadata.CreatedBy.
const (
	CreatedByMetaLearning = "meta_learning"
	CreatedByManual       = "manual"
)

// Change records the intent behind a snapshot taken ahead of a file edit.
type Change struct {
	File        string    `json:"file"`
	Description string    `json:"description"`
	Timestamp   Timestamp `json:"timestamp"`
}

// Metadata is the metadata.json record stored in every version directory.
// A version is immutable once written.
type Metadata struct {
	VersionID string    `json:"version_id"`
	Timestamp Timestamp `json:"timestamp"`
	Label     string    `json:"label"`
	FileCount int       `json:"file_count"`
	Changes   []Change  `json:"changes"`
	CreatedBy string    `json:"created_by"`
}

// createdBy derives the creator tag from the change list.
func createdBy(changes []Change) string {
	if len(changes) > 0 {
		return CreatedByMetaLearning
	}
	return CreatedByManual
}

func (m *Metadata) validate(dirName string) error {
	if m.VersionID == "" {
		return fmt.Errorf("missing version_id")
	}
	if m.VersionID != dirName {
		return fmt.Errorf("version_id %q does not match directory %q", m.VersionID, dirName)
	}
	if m.Timestamp.IsZero() {
		return fmt.Errorf("missing timestamp")
	}
	return nil
}

// Timestamp is an ISO-8601 instant. It is written as RFC 3339 with
// nanoseconds and also accepts the zone-less form older version trees
// carry (2026-01-05T10:11:12.123456), read as local time.
type Timestamp struct {
	time.Time
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

// NewTimestamp wraps t.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses RFC 3339 or zone-less ISO-8601.
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return Timestamp{Time: t}, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.Local); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp %q", s)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(time.RFC3339Nano))
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*t = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
