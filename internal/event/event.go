package event

import "time"

// EventType identifies the kind of lifecycle event.
type EventType string

const (
	// Version lifecycle
	VersionCreated EventType = "version.created"
	VersionDeleted EventType = "version.deleted"

	// Change application
	ChangeApplying EventType = "change.applying"
	ChangeApplied  EventType = "change.applied"

	// Rollback
	RollbackStarted   EventType = "rollback.started"
	RollbackCompleted EventType = "rollback.completed"

	// Retention
	RetentionPruned EventType = "retention.pruned"
)

// AllTypes lists every event type the vault emits.
var AllTypes = []EventType{
	VersionCreated,
	VersionDeleted,
	ChangeApplying,
	ChangeApplied,
	RollbackStarted,
	RollbackCompleted,
	RetentionPruned,
}

// Known reports whether t is an event type the vault emits.
func Known(t EventType) bool {
	for _, k := range AllTypes {
		if k == t {
			return true
		}
	}
	return false
}

// Event carries data about a lifecycle occurrence.
type Event struct {
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Data      map[string]interface{} `json:"data,omitempty"`
}

// NewEvent creates an event with the current timestamp.
func NewEvent(t EventType, data map[string]interface{}) Event {
	return Event{
		Type:      t,
		Timestamp: time.Now(),
		Data:      data,
	}
}

// String returns a data field as a string, or "" when absent.
func (e Event) String(key string) string {
	if v, ok := e.Data[key].(string); ok {
		return v
	}
	return ""
}
