package testutil

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/cadre-oss/promptvault/internal/config"
	"github.com/cadre-oss/promptvault/internal/event"
	"github.com/cadre-oss/promptvault/internal/journal"
	"github.com/cadre-oss/promptvault/internal/snapshot"
	"github.com/cadre-oss/promptvault/internal/telemetry"
	"github.com/cadre-oss/promptvault/internal/vault"
)

// TestHarness provides everything needed for vault tests: a temp live
// directory, a store on a stepping clock, a vault with an in-memory journal,
// and an event bus that captures every event.
type TestHarness struct {
	T       *testing.T
	Config  *config.Config
	Store   *snapshot.Store
	Vault   *vault.Vault
	Journal *journal.Journal
	Bus     *event.Bus
	Logger  *telemetry.Logger
	Clock   *StepClock

	mu     sync.Mutex
	events []event.Event
}

// NewTestHarness creates a harness whose live directory holds files.
func NewTestHarness(t *testing.T, files map[string]string) *TestHarness {
	t.Helper()

	cfg := TestConfig(t.TempDir())
	liveDir := cfg.Path(cfg.LiveDir)
	if err := os.MkdirAll(liveDir, 0755); err != nil {
		t.Fatal(err)
	}

	logger := TestLogger()
	clock := NewStepClock()
	store, err := snapshot.NewStore(snapshot.Options{
		LiveDir:         liveDir,
		VersionsDir:     cfg.Path(cfg.VersionsDir),
		Patterns:        cfg.Snapshot.Patterns,
		CollisionPolicy: snapshot.CollisionPolicy(cfg.Snapshot.CollisionPolicy),
		Logger:          logger,
		Now:             clock.Now,
	})
	if err != nil {
		t.Fatal(err)
	}

	j, err := journal.New(journal.DriverMemory, "")
	if err != nil {
		t.Fatal(err)
	}

	bus := event.NewBus(logger)
	h := &TestHarness{
		T:       t,
		Config:  cfg,
		Store:   store,
		Journal: j,
		Bus:     bus,
		Logger:  logger,
		Clock:   clock,
	}
	// Capture events via a hook
	bus.Register(&eventCapture{harness: h})

	h.Vault = vault.New(store, vault.Options{
		Logger:  logger,
		Bus:     bus,
		Journal: j,
	})
	t.Cleanup(func() { h.Vault.Close() })

	for name, content := range files {
		h.WriteLive(name, content)
	}
	return h
}

// WriteLive writes a file into the live directory.
func (h *TestHarness) WriteLive(name, content string) {
	h.T.Helper()
	if err := os.WriteFile(filepath.Join(h.Store.LiveDir(), name), []byte(content), 0644); err != nil {
		h.T.Fatalf("failed to write live file %s: %v", name, err)
	}
}

// RemoveLive deletes a file from the live directory.
func (h *TestHarness) RemoveLive(name string) {
	h.T.Helper()
	if err := os.Remove(filepath.Join(h.Store.LiveDir(), name)); err != nil {
		h.T.Fatalf("failed to remove live file %s: %v", name, err)
	}
}

// ReadLive returns a live file's content, failing the test if it is missing.
func (h *TestHarness) ReadLive(name string) string {
	h.T.Helper()
	data, err := os.ReadFile(filepath.Join(h.Store.LiveDir(), name))
	if err != nil {
		h.T.Fatalf("failed to read live file %s: %v", name, err)
	}
	return string(data)
}

// LiveExists reports whether a live file exists.
func (h *TestHarness) LiveExists(name string) bool {
	_, err := os.Stat(filepath.Join(h.Store.LiveDir(), name))
	return err == nil
}

// ReadVersion returns a captured file's content.
func (h *TestHarness) ReadVersion(versionID, name string) string {
	h.T.Helper()
	data, err := h.Store.ReadFile(versionID, name)
	if err != nil {
		h.T.Fatalf("failed to read %s from %s: %v", name, versionID, err)
	}
	return string(data)
}

// VersionCount returns the number of listed versions.
func (h *TestHarness) VersionCount() int {
	h.T.Helper()
	listing, err := h.Store.List(0)
	if err != nil {
		h.T.Fatalf("failed to list versions: %v", err)
	}
	return len(listing.Versions)
}

// Reject registers a blocking hook that fails every event of type t with err.
func (h *TestHarness) Reject(t event.EventType, err error) {
	h.Bus.Register(&rejectHook{eventType: t, err: err})
}

// Events returns a copy of the captured events.
func (h *TestHarness) Events() []event.Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]event.Event, len(h.events))
	copy(cp, h.events)
	return cp
}

// AssertEventEmitted checks that an event with the given type was emitted.
func (h *TestHarness) AssertEventEmitted(eventType event.EventType) {
	h.T.Helper()
	if h.EventCount(eventType) == 0 {
		h.T.Errorf("expected event %q to be emitted", eventType)
	}
}

// AssertNoEvent checks that an event type was NOT emitted.
func (h *TestHarness) AssertNoEvent(eventType event.EventType) {
	h.T.Helper()
	if h.EventCount(eventType) > 0 {
		h.T.Errorf("expected event %q NOT to be emitted, but it was", eventType)
	}
}

// EventCount returns the number of events with the given type.
func (h *TestHarness) EventCount(eventType event.EventType) int {
	count := 0
	for _, e := range h.Events() {
		if e.Type == eventType {
			count++
		}
	}
	return count
}

// eventCapture is a blocking hook that records events synchronously.
type eventCapture struct {
	harness *TestHarness
}

func (c *eventCapture) Name() string                 { return "test-capture" }
func (c *eventCapture) Matches(event.EventType) bool { return true } // match all
func (c *eventCapture) IsBlocking() bool             { return true } // sync for tests

func (c *eventCapture) Handle(ev event.Event) error {
	c.harness.mu.Lock()
	defer c.harness.mu.Unlock()
	c.harness.events = append(c.harness.events, ev)
	return nil
}

type rejectHook struct {
	eventType event.EventType
	err       error
}

func (r *rejectHook) Name() string                   { return "test-reject" }
func (r *rejectHook) Matches(t event.EventType) bool { return t == r.eventType }
func (r *rejectHook) IsBlocking() bool               { return true }
func (r *rejectHook) Handle(event.Event) error       { return r.err }
