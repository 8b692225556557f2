package telemetry

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestLogger_WithFileKeepsFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "promptvault.log")

	logger := NewLoggerWithOptions("info", "json", false).
		WithFields(map[string]interface{}{"live_dir": "/srv/prompts"})
	if err := logger.WithFile(path); err != nil {
		t.Fatalf("WithFile failed: %v", err)
	}

	logger.Debug("hidden at info level")
	logger.Info("version created", "version_id", "v1")
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	out := string(data)
	if strings.Contains(out, "hidden at info level") {
		t.Error("debug line should be filtered at info level")
	}
	if !strings.Contains(out, `"version_id":"v1"`) {
		t.Errorf("expected JSON version_id field, got %s", out)
	}
	if !strings.Contains(out, `"live_dir":"/srv/prompts"`) {
		t.Errorf("expected live_dir field to survive WithFile, got %s", out)
	}
}

func TestNewDiscardLogger(t *testing.T) {
	logger := NewDiscardLogger()
	// Should not panic or write anywhere
	logger.Error("dropped")
	if err := logger.Close(); err != nil {
		t.Fatalf("unexpected close error: %v", err)
	}
}
