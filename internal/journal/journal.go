// Package journal keeps an append-only audit trail of mutating vault
// operations, so every live-directory change can be traced to the version
// that preceded it.
package journal

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Store defines the interface for journal storage backends
type Store interface {
	Append(e *Entry) error
	Get(id string) (*Entry, error)
	List(f Filter) ([]*Entry, error)
	Close() error
}

// Driver names accepted by New.
const (
	DriverSQLite = "sqlite"
	DriverMemory = "memory"
	DriverNone   = "none"
)

// Journal stamps and records entries
type Journal struct {
	store Store
	now   func() time.Time
}

// New creates a journal backed by the named driver
func New(driver, path string) (*Journal, error) {
	var store Store
	var err error

	switch driver {
	case DriverMemory, "":
		store = NewMemoryStore()
	case DriverSQLite:
		if path == "" {
			return nil, fmt.Errorf("sqlite journal requires a path")
		}
		store, err = NewSQLiteStore(path)
		if err != nil {
			return nil, fmt.Errorf("failed to create sqlite journal: %w", err)
		}
	case DriverNone:
		store = nopStore{}
	default:
		return nil, fmt.Errorf("unsupported journal driver: %s", driver)
	}

	return NewWithStore(store), nil
}

// NewWithStore wraps an existing store
func NewWithStore(store Store) *Journal {
	return &Journal{store: store, now: time.Now}
}

// Record assigns an id and timestamp to e and appends it
func (j *Journal) Record(e Entry) (*Entry, error) {
	if j == nil {
		return nil, nil
	}
	e.ID = uuid.New().String()
	if e.CreatedAt.IsZero() {
		e.CreatedAt = j.now()
	}
	if err := j.store.Append(&e); err != nil {
		return nil, fmt.Errorf("failed to record %s: %w", e.Operation, err)
	}
	return &e, nil
}

// Get retrieves an entry by id
func (j *Journal) Get(id string) (*Entry, error) {
	return j.store.Get(id)
}

// List returns entries newest first
func (j *Journal) List(f Filter) ([]*Entry, error) {
	if j == nil {
		return []*Entry{}, nil
	}
	return j.store.List(f)
}

// Close closes the underlying store
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.store.Close()
}

// nopStore discards everything; used when the journal is disabled.
type nopStore struct{}

func (nopStore) Append(*Entry) error { return nil }
func (nopStore) Get(id string) (*Entry, error) {
	return nil, fmt.Errorf("journal entry not found: %s", id)
}
func (nopStore) List(Filter) ([]*Entry, error) { return []*Entry{}, nil }
func (nopStore) Close() error                  { return nil }
