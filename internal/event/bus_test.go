package event

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
)

// testLogger records warn messages.
type testLogger struct {
	mu       sync.Mutex
	warnings []string
	infos    []string
}

func (l *testLogger) Warn(msg string, keyvals ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.warnings = append(l.warnings, msg)
}

func (l *testLogger) Info(msg string, keyvals ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.infos = append(l.infos, msg)
}

func (l *testLogger) Debug(msg string, keyvals ...interface{}) {}

// collectHook records handled events.
type collectHook struct {
	baseHook
	mu       sync.Mutex
	handled  []Event
	handleFn func(Event) error
}

func newCollectHook(name string, events []EventType, blocking bool) *collectHook {
	return &collectHook{
		baseHook: baseHook{name: name, events: events, blocking: blocking},
	}
}

func (h *collectHook) Handle(ev Event) error {
	if h.handleFn != nil {
		return h.handleFn(ev)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.handled = append(h.handled, ev)
	return nil
}

func (h *collectHook) events() []Event {
	h.mu.Lock()
	defer h.mu.Unlock()
	cp := make([]Event, len(h.handled))
	copy(cp, h.handled)
	return cp
}

func TestBus_Emit_BlockingHook(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("test", []EventType{VersionCreated}, true)
	bus.Register(hook)

	ev := NewEvent(VersionCreated, map[string]interface{}{"version_id": "v1"})
	err := bus.Emit(ev)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	handled := hook.events()
	if len(handled) != 1 {
		t.Fatalf("expected 1 handled event, got %d", len(handled))
	}
	if handled[0].Type != VersionCreated {
		t.Errorf("expected VersionCreated, got %s", handled[0].Type)
	}
	if handled[0].String("version_id") != "v1" {
		t.Errorf("expected version_id v1, got %q", handled[0].String("version_id"))
	}
}

func TestBus_Emit_NonBlockingHook(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("async", []EventType{ChangeApplied}, false)
	bus.Register(hook)

	bus.Emit(NewEvent(ChangeApplied, nil))
	bus.Wait()

	handled := hook.events()
	if len(handled) != 1 {
		t.Fatalf("expected 1 handled event, got %d", len(handled))
	}
}

func TestBus_Emit_RoutingByEventType(t *testing.T) {
	bus := NewBus(nil)
	changeHook := newCollectHook("change-hook", []EventType{ChangeApplying, ChangeApplied}, true)
	rollbackHook := newCollectHook("rollback-hook", []EventType{RollbackStarted}, true)
	bus.Register(changeHook)
	bus.Register(rollbackHook)

	bus.Emit(NewEvent(ChangeApplying, nil))
	bus.Emit(NewEvent(RollbackStarted, nil))
	bus.Emit(NewEvent(ChangeApplied, nil))

	if n := len(changeHook.events()); n != 2 {
		t.Errorf("expected change hook to handle 2 events, got %d", n)
	}
	if n := len(rollbackHook.events()); n != 1 {
		t.Errorf("expected rollback hook to handle 1 event, got %d", n)
	}
}

func TestBus_Emit_NoMatchingEvents(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("test", []EventType{RetentionPruned}, true)
	bus.Register(hook)

	bus.Emit(NewEvent(VersionCreated, nil))

	if len(hook.events()) != 0 {
		t.Error("hook should not have been called for non-matching event")
	}
}

func TestBus_Emit_MatchAllEvents(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("catch-all", nil, true) // nil events = match all
	bus.Register(hook)

	bus.Emit(NewEvent(VersionCreated, nil))
	bus.Emit(NewEvent(RollbackCompleted, nil))

	if len(hook.events()) != 2 {
		t.Errorf("expected 2 events, got %d", len(hook.events()))
	}
}

func TestBus_BlockingHookError(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("failing", []EventType{ChangeApplying}, true)
	hook.handleFn = func(ev Event) error {
		return ErrRejected
	}
	bus.Register(hook)

	err := bus.Emit(NewEvent(ChangeApplying, nil))
	if err == nil {
		t.Fatal("expected error from blocking hook")
	}
	if !errors.Is(err, ErrRejected) {
		t.Errorf("expected wrapped ErrRejected, got %v", err)
	}
}

func TestBus_BlockingHookErrorStopsLaterHooks(t *testing.T) {
	bus := NewBus(nil)
	first := newCollectHook("first", nil, true)
	first.handleFn = func(ev Event) error { return fmt.Errorf("stop") }
	second := newCollectHook("second", nil, true)
	bus.Register(first)
	bus.Register(second)

	bus.Emit(NewEvent(ChangeApplying, nil))

	if len(second.events()) != 0 {
		t.Error("hooks after a failing blocking hook should not run")
	}
}

func TestBus_NonBlockingHookErrorLogged(t *testing.T) {
	logger := &testLogger{}
	bus := NewBus(logger)
	hook := newCollectHook("failing-async", []EventType{VersionDeleted}, false)
	hook.handleFn = func(ev Event) error {
		return fmt.Errorf("async hook error")
	}
	bus.Register(hook)

	if err := bus.Emit(NewEvent(VersionDeleted, nil)); err != nil {
		t.Fatalf("non-blocking failure must not reach the caller: %v", err)
	}
	bus.Wait()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warnings) == 0 {
		t.Error("expected warning to be logged for failed async hook")
	}
}

func TestBus_NonBlockingHookPanicRecovered(t *testing.T) {
	logger := &testLogger{}
	bus := NewBus(logger)
	hook := newCollectHook("panicky", nil, false)
	hook.handleFn = func(ev Event) error { panic("boom") }
	bus.Register(hook)

	bus.Emit(NewEvent(VersionCreated, nil))
	bus.Wait()

	logger.mu.Lock()
	defer logger.mu.Unlock()
	if len(logger.warnings) != 1 {
		t.Errorf("expected panic to be logged once, got %v", logger.warnings)
	}
}

func TestBus_BlockingHooksSequential(t *testing.T) {
	bus := NewBus(nil)
	var order []string
	var mu sync.Mutex

	for i := 0; i < 3; i++ {
		idx := i
		hook := newCollectHook(fmt.Sprintf("hook-%d", idx), []EventType{RollbackStarted}, true)
		hook.handleFn = func(ev Event) error {
			mu.Lock()
			order = append(order, fmt.Sprintf("hook-%d", idx))
			mu.Unlock()
			return nil
		}
		bus.Register(hook)
	}

	bus.Emit(NewEvent(RollbackStarted, nil))

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 3 {
		t.Fatalf("expected 3 hook executions, got %d", len(order))
	}
	// Blocking hooks execute in registration order.
	for i, name := range order {
		expected := fmt.Sprintf("hook-%d", i)
		if name != expected {
			t.Errorf("expected %s at position %d, got %s", expected, i, name)
		}
	}
}

func TestBus_Disabled(t *testing.T) {
	bus := NewBus(nil)
	hook := newCollectHook("test", nil, true)
	bus.Register(hook)

	bus.SetEnabled(false)
	bus.Emit(NewEvent(VersionCreated, nil))

	if len(hook.events()) != 0 {
		t.Error("disabled bus should not dispatch events")
	}
}

func TestBus_NilBusSafe(t *testing.T) {
	var bus *Bus

	// All operations should be no-ops, not panic.
	bus.Register(nil)
	bus.SetEnabled(false)
	bus.Wait()
	if bus.Len() != 0 {
		t.Error("nil bus should report no hooks")
	}
	err := bus.Emit(NewEvent(VersionCreated, nil))
	if err != nil {
		t.Errorf("nil bus Emit should return nil error, got %v", err)
	}
}

func TestBus_ConcurrentEmit(t *testing.T) {
	bus := NewBus(nil)
	var count int64
	hook := newCollectHook("concurrent", nil, true)
	hook.handleFn = func(ev Event) error {
		atomic.AddInt64(&count, 1)
		return nil
	}
	bus.Register(hook)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bus.Emit(NewEvent(VersionCreated, nil))
		}()
	}
	wg.Wait()

	if atomic.LoadInt64(&count) != 100 {
		t.Errorf("expected 100 hook invocations, got %d", count)
	}
}
