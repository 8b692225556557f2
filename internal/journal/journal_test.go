package journal

import (
	"path/filepath"
	"testing"
	"time"
)

func newStores(t *testing.T) map[string]Store {
	t.Helper()
	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "nested", "journal.db"))
	if err != nil {
		t.Fatalf("failed to open sqlite journal: %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })
	return map[string]Store{
		"memory": NewMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestStore_AppendAndGet(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			j := NewWithStore(store)
			e, err := j.Record(Entry{
				Operation:   OpApply,
				VersionID:   "20260105_101112",
				File:        "main.md",
				Description: "tighten tone",
				Success:     true,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if e.ID == "" || e.CreatedAt.IsZero() {
				t.Fatalf("expected id and timestamp to be set, got %+v", e)
			}

			got, err := j.Get(e.ID)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Operation != OpApply || got.File != "main.md" || got.Description != "tighten tone" || !got.Success {
				t.Errorf("entry not preserved: %+v", got)
			}
			if !got.CreatedAt.Equal(e.CreatedAt) {
				t.Errorf("expected created_at %v, got %v", e.CreatedAt, got.CreatedAt)
			}

			if _, err := j.Get("missing"); err == nil {
				t.Error("expected error for missing entry")
			}
		})
	}
}

func TestStore_ListOrderAndFilter(t *testing.T) {
	base := time.Date(2026, 1, 5, 10, 0, 0, 0, time.UTC)
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			j := NewWithStore(store)
			records := []Entry{
				{Operation: OpSnapshot, VersionID: "v1", Success: true, CreatedAt: base},
				{Operation: OpRollback, VersionID: "v1", BackupID: "pre_rollback_v1", Success: true, CreatedAt: base.Add(time.Minute)},
				{Operation: OpApply, VersionID: "v2", File: "a.md", Success: false, Error: "disk full", CreatedAt: base.Add(2 * time.Minute)},
				{Operation: OpSnapshot, VersionID: "v3", Success: true, CreatedAt: base.Add(2 * time.Minute)},
			}
			for _, r := range records {
				if _, err := j.Record(r); err != nil {
					t.Fatal(err)
				}
			}

			all, err := j.List(Filter{})
			if err != nil {
				t.Fatal(err)
			}
			if len(all) != 4 {
				t.Fatalf("expected 4 entries, got %d", len(all))
			}
			// Equal timestamps list the later append first.
			if all[0].VersionID != "v3" || all[1].VersionID != "v2" || all[3].VersionID != "v1" {
				t.Errorf("unexpected order: %s %s %s %s", all[0].VersionID, all[1].VersionID, all[2].VersionID, all[3].VersionID)
			}
			if all[1].Error != "disk full" || all[1].Success {
				t.Errorf("failure not preserved: %+v", all[1])
			}

			snaps, _ := j.List(Filter{Operation: OpSnapshot})
			if len(snaps) != 2 {
				t.Errorf("expected 2 snapshot entries, got %d", len(snaps))
			}

			byBackup, _ := j.List(Filter{VersionID: "pre_rollback_v1"})
			if len(byBackup) != 1 || byBackup[0].Operation != OpRollback {
				t.Errorf("expected rollback entry by backup id, got %v", byBackup)
			}

			limited, _ := j.List(Filter{Limit: 2})
			if len(limited) != 2 {
				t.Errorf("expected 2 entries, got %d", len(limited))
			}
		})
	}
}

func TestSQLiteStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := New(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	e, err := j.Record(Entry{Operation: OpDelete, VersionID: "old", Success: true})
	if err != nil {
		t.Fatal(err)
	}
	j.Close()

	reopened, err := New(DriverSQLite, path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	got, err := reopened.Get(e.ID)
	if err != nil {
		t.Fatalf("entry lost across reopen: %v", err)
	}
	if got.Operation != OpDelete {
		t.Errorf("expected delete, got %s", got.Operation)
	}
}

func TestNew_Drivers(t *testing.T) {
	if _, err := New("postgres", ""); err == nil {
		t.Error("expected error for unsupported driver")
	}
	if _, err := New(DriverSQLite, ""); err == nil {
		t.Error("expected error for sqlite without path")
	}

	none, err := New(DriverNone, "")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := none.Record(Entry{Operation: OpSnapshot}); err != nil {
		t.Errorf("disabled journal should accept records: %v", err)
	}
	entries, _ := none.List(Filter{})
	if len(entries) != 0 {
		t.Errorf("disabled journal should list nothing, got %d", len(entries))
	}
}

func TestJournal_NilSafe(t *testing.T) {
	var j *Journal
	if e, err := j.Record(Entry{Operation: OpSnapshot}); e != nil || err != nil {
		t.Error("nil journal should ignore records")
	}
	if entries, err := j.List(Filter{}); err != nil || len(entries) != 0 {
		t.Error("nil journal should list nothing")
	}
	if err := j.Close(); err != nil {
		t.Error("nil journal close should be a no-op")
	}
}
