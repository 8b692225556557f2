package testutil

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/cadre-oss/promptvault/internal/config"
	"github.com/cadre-oss/promptvault/internal/journal"
	"github.com/cadre-oss/promptvault/internal/telemetry"
)

// StepClock is a deterministic clock that advances one second per call, so
// consecutive unlabeled snapshots get distinct timestamp ids.
type StepClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewStepClock starts at 2026-01-05 10:00:00 local time.
func NewStepClock() *StepClock {
	return &StepClock{t: time.Date(2026, 1, 5, 10, 0, 0, 0, time.Local)}
}

// Now advances the clock and returns the new time.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

// FrozenClock always returns the same instant.
type FrozenClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFrozenClock returns a clock fixed at t.
func NewFrozenClock(t time.Time) *FrozenClock {
	return &FrozenClock{t: t}
}

// Now returns the fixed time.
func (c *FrozenClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// FailingJournalStore is a journal.Store whose writes always fail.
type FailingJournalStore struct {
	mu       sync.Mutex
	Attempts int
}

func (s *FailingJournalStore) Append(*journal.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Attempts++
	return fmt.Errorf("mock journal error")
}

func (s *FailingJournalStore) Get(id string) (*journal.Entry, error) {
	return nil, fmt.Errorf("mock journal error")
}

func (s *FailingJournalStore) List(journal.Filter) ([]*journal.Entry, error) {
	return nil, fmt.Errorf("mock journal error")
}

func (s *FailingJournalStore) Close() error { return nil }

// AttemptCount returns the number of Append calls made (thread-safe).
func (s *FailingJournalStore) AttemptCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.Attempts
}

// TestLogger returns a logger suitable for tests (no output).
func TestLogger() *telemetry.Logger {
	return telemetry.NewDiscardLogger()
}

// TestConfig returns a minimal config rooted at dir, with a sibling versions
// root and an in-memory journal.
func TestConfig(dir string) *config.Config {
	return &config.Config{
		LiveDir:     "prompts",
		VersionsDir: "versioned",
		Snapshot: config.SnapshotConfig{
			Patterns:        []string{"*"},
			CollisionPolicy: "suffix",
		},
		Retention: config.RetentionConfig{Keep: 50},
		Logging: config.LoggingConfig{
			Level:  "debug",
			Format: "text",
		},
		Journal: config.JournalConfig{
			Driver: "memory",
		},
		BaseDir: filepath.Clean(dir),
	}
}
