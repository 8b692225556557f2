package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestVaultError_Error(t *testing.T) {
	err := New(CodeInvalidLabel, "label contains '/'")
	expected := "[INVALID_LABEL] label contains '/'"
	if err.Error() != expected {
		t.Errorf("expected %q, got %q", expected, err.Error())
	}
}

func TestVaultError_Wrap(t *testing.T) {
	inner := fmt.Errorf("no space left on device")
	err := IO("failed to copy agent.system.main.md", inner)

	if err.Error() != "[IO_FAILURE] failed to copy agent.system.main.md: no space left on device" {
		t.Errorf("unexpected error string: %s", err.Error())
	}

	if !errors.Is(err, inner) {
		t.Error("errors.Is should find inner error")
	}
}

func TestVaultError_WithSuggestion(t *testing.T) {
	base := New(CodeConfigInvalid, "live_dir is required")
	err := base.WithSuggestion("set live_dir in promptvault.yaml")

	if err.Suggestion != "set live_dir in promptvault.yaml" {
		t.Errorf("unexpected suggestion: %s", err.Suggestion)
	}
	if base.Suggestion != "" {
		t.Error("WithSuggestion should not modify the receiver")
	}
}

func TestVaultError_ErrorsAs(t *testing.T) {
	err := NotFound("20260105_101112")

	var vaultErr *VaultError
	if !errors.As(err, &vaultErr) {
		t.Fatal("errors.As should work")
	}
	if vaultErr.Code != CodeVersionNotFound {
		t.Errorf("expected code %q, got %q", CodeVersionNotFound, vaultErr.Code)
	}
	if vaultErr.Suggestion == "" {
		t.Error("expected NotFound to carry a suggestion")
	}
}

func TestSentinels_MatchByCode(t *testing.T) {
	err := fmt.Errorf("rollback: %w", NotFound("v1"))
	if !errors.Is(err, ErrVersionNotFound) {
		t.Error("expected wrapped NotFound to match ErrVersionNotFound")
	}
	if errors.Is(err, ErrInvalidLabel) {
		t.Error("did not expect match against ErrInvalidLabel")
	}
}

func TestAsCode(t *testing.T) {
	err := New(CodeMetadataCorrupt, "unexpected end of JSON input")
	if AsCode(err) != CodeMetadataCorrupt {
		t.Errorf("expected code %q, got %q", CodeMetadataCorrupt, AsCode(err))
	}

	plain := fmt.Errorf("plain error")
	if AsCode(plain) != "" {
		t.Error("expected empty code for non-VaultError")
	}
}

func TestSuggestion(t *testing.T) {
	err := New(CodeLockFailed, "lock busy").WithSuggestion("retry later")
	if Suggestion(err) != "retry later" {
		t.Errorf("expected 'retry later', got %q", Suggestion(err))
	}

	if Suggestion(fmt.Errorf("plain")) != "" {
		t.Error("expected empty suggestion for non-VaultError")
	}
}

func TestResult(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantOK   bool
		wantKind string
	}{
		{"success", nil, true, ""},
		{"coded", NotFound("v9"), false, CodeVersionNotFound},
		{"wrapped coded", fmt.Errorf("outer: %w", New(CodeInvalidLabel, "bad")), false, CodeInvalidLabel},
		{"plain", fmt.Errorf("permission denied"), false, CodeIOFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := FromError(tt.err, "done", nil)
			if res.Success != tt.wantOK {
				t.Errorf("expected success=%v, got %v", tt.wantOK, res.Success)
			}
			if res.ErrorKind != tt.wantKind {
				t.Errorf("expected kind %q, got %q", tt.wantKind, res.ErrorKind)
			}
			if !tt.wantOK && res.Message == "" {
				t.Error("expected a message on failure")
			}
		})
	}
}
