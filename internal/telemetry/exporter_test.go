package telemetry

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestJSONFileExporter_Export(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".promptvault", "metrics.jsonl")

	exporter, err := NewJSONFileExporter(path)
	if err != nil {
		t.Fatal(err)
	}
	defer exporter.Close()

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     "version.created",
		Metrics: map[string]interface{}{
			"snapshots_created": int64(5),
		},
		Labels: map[string]string{
			"version_id": "20260105_101112",
		},
	}

	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	snapshot.Event = "rollback.completed"
	if err := exporter.Export(snapshot); err != nil {
		t.Fatal(err)
	}

	exporter.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 JSONL lines, got %d", len(lines))
	}

	var parsed MetricsSnapshot
	if err := json.Unmarshal([]byte(lines[0]), &parsed); err != nil {
		t.Fatal(err)
	}
	if parsed.Event != "version.created" {
		t.Errorf("expected event 'version.created', got %q", parsed.Event)
	}
	if parsed.Labels["version_id"] != "20260105_101112" {
		t.Errorf("expected label to round-trip, got %v", parsed.Labels)
	}
}

func TestOpenExporter_EmptyPath(t *testing.T) {
	e, err := OpenExporter("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e != nil {
		t.Fatal("expected nil exporter for empty path")
	}
}

func TestMetrics_FlushWithExporter(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "metrics.jsonl")

	exporter, err := OpenExporter(path)
	if err != nil {
		t.Fatal(err)
	}

	m := NewMetrics()
	m.SetExporter(exporter)
	m.IncChangesApplied()
	m.IncSnapshotsCreated()

	m.Flush("change.applied", map[string]string{"file": "agent.system.main.md"})
	exporter.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var snapshot MetricsSnapshot
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(data))), &snapshot); err != nil {
		t.Fatal(err)
	}
	if snapshot.Event != "change.applied" {
		t.Errorf("expected event 'change.applied', got %q", snapshot.Event)
	}
	if snapshot.Metrics["changes_applied"] != float64(1) {
		t.Errorf("expected changes_applied=1, got %v", snapshot.Metrics["changes_applied"])
	}
}

func TestMetrics_FlushWithoutExporter(t *testing.T) {
	m := NewMetrics()
	// Should not panic
	m.Flush("test", nil)

	var nilMetrics *Metrics
	nilMetrics.Flush("test", nil)
}

func TestMetrics_SummaryAndReset(t *testing.T) {
	m := NewMetrics()
	m.IncRollbacks()
	m.AddVersionsDeleted(3)
	m.AddMetadataSkipped(2)
	m.IncOperationFailures()
	m.RecordOperation(10 * time.Millisecond)
	m.RecordOperation(30 * time.Millisecond)

	s := m.GetSummary()
	if s["rollbacks"] != int64(1) {
		t.Errorf("expected rollbacks=1, got %v", s["rollbacks"])
	}
	if s["versions_deleted"] != int64(3) {
		t.Errorf("expected versions_deleted=3, got %v", s["versions_deleted"])
	}
	if s["metadata_skipped"] != int64(2) {
		t.Errorf("expected metadata_skipped=2, got %v", s["metadata_skipped"])
	}
	if s["avg_operation_ms"] != int64(20) {
		t.Errorf("expected avg_operation_ms=20, got %v", s["avg_operation_ms"])
	}

	m.Reset()
	s = m.GetSummary()
	if s["rollbacks"] != int64(0) {
		t.Errorf("expected reset rollbacks, got %v", s["rollbacks"])
	}
	if _, ok := s["avg_operation_ms"]; ok {
		t.Error("expected no latency after reset")
	}
}

func TestMetrics_LatencyIsRunningAverage(t *testing.T) {
	m := NewMetrics()
	for i := 0; i < 10000; i++ {
		m.RecordOperation(4 * time.Millisecond)
	}
	m.RecordOperation(10005 * time.Millisecond)

	s := m.GetSummary()
	if s["operations"] != int64(10001) {
		t.Errorf("expected operations=10001, got %v", s["operations"])
	}
	if s["avg_operation_ms"] != int64(5) {
		t.Errorf("expected avg_operation_ms=5, got %v", s["avg_operation_ms"])
	}
}
