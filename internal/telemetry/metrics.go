package telemetry

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics collects store operation counters.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	SnapshotsCreated  int64
	ChangesApplied    int64
	Rollbacks         int64
	VersionsDeleted   int64
	MetadataSkipped   int64
	OperationFailures int64

	// Operation latency as a running total
	opTotal time.Duration
	opCount int64

	// Exporter (optional)
	exporter MetricsExporter
}

// NewMetrics creates a new metrics collector
func NewMetrics() *Metrics {
	return &Metrics{}
}

// IncSnapshotsCreated increments the snapshots counter
func (m *Metrics) IncSnapshotsCreated() {
	atomic.AddInt64(&m.SnapshotsCreated, 1)
}

// IncChangesApplied increments the applied changes counter
func (m *Metrics) IncChangesApplied() {
	atomic.AddInt64(&m.ChangesApplied, 1)
}

// IncRollbacks increments the rollback counter
func (m *Metrics) IncRollbacks() {
	atomic.AddInt64(&m.Rollbacks, 1)
}

// AddVersionsDeleted adds n to the deleted versions counter
func (m *Metrics) AddVersionsDeleted(n int) {
	atomic.AddInt64(&m.VersionsDeleted, int64(n))
}

// AddMetadataSkipped adds n to the corrupt metadata counter
func (m *Metrics) AddMetadataSkipped(n int) {
	atomic.AddInt64(&m.MetadataSkipped, int64(n))
}

// IncOperationFailures increments the failed operations counter
func (m *Metrics) IncOperationFailures() {
	atomic.AddInt64(&m.OperationFailures, 1)
}

// RecordOperation records the duration of a store operation
func (m *Metrics) RecordOperation(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opTotal += d
	m.opCount++
}

// GetSummary returns a summary of collected metrics
func (m *Metrics) GetSummary() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	summary := map[string]interface{}{
		"snapshots_created":  atomic.LoadInt64(&m.SnapshotsCreated),
		"changes_applied":    atomic.LoadInt64(&m.ChangesApplied),
		"rollbacks":          atomic.LoadInt64(&m.Rollbacks),
		"versions_deleted":   atomic.LoadInt64(&m.VersionsDeleted),
		"metadata_skipped":   atomic.LoadInt64(&m.MetadataSkipped),
		"operation_failures": atomic.LoadInt64(&m.OperationFailures),
	}

	if m.opCount > 0 {
		summary["operations"] = m.opCount
		summary["avg_operation_ms"] = m.opTotal.Milliseconds() / m.opCount
	}

	return summary
}

// Reset resets all metrics
func (m *Metrics) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	atomic.StoreInt64(&m.SnapshotsCreated, 0)
	atomic.StoreInt64(&m.ChangesApplied, 0)
	atomic.StoreInt64(&m.Rollbacks, 0)
	atomic.StoreInt64(&m.VersionsDeleted, 0)
	atomic.StoreInt64(&m.MetadataSkipped, 0)
	atomic.StoreInt64(&m.OperationFailures, 0)

	m.opTotal = 0
	m.opCount = 0
}

// SetExporter attaches a metrics exporter.
func (m *Metrics) SetExporter(e MetricsExporter) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.exporter = e
}

// Flush exports the current metrics snapshot with the given event label.
func (m *Metrics) Flush(event string, labels map[string]string) {
	if m == nil {
		return
	}
	m.mu.RLock()
	exporter := m.exporter
	m.mu.RUnlock()

	if exporter == nil {
		return
	}

	snapshot := MetricsSnapshot{
		Timestamp: time.Now(),
		Event:     event,
		Metrics:   m.GetSummary(),
		Labels:    labels,
	}
	// Best-effort export.
	_ = exporter.Export(snapshot)
}

// Close releases the exporter, if any.
func (m *Metrics) Close() error {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	exporter := m.exporter
	m.exporter = nil
	m.mu.Unlock()

	if exporter == nil {
		return nil
	}
	return exporter.Close()
}
