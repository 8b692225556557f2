package errors

import (
	"errors"
	"fmt"
)

// Error codes for programmatic handling.
const (
	CodeInvalidLabel    = "INVALID_LABEL"
	CodeInvalidFileName = "INVALID_FILE_NAME"
	CodeVersionNotFound = "VERSION_NOT_FOUND"
	CodeIOFailure       = "IO_FAILURE"
	CodeMetadataCorrupt = "METADATA_CORRUPT"
	CodeConfigInvalid   = "CONFIG_INVALID"
	CodeLockFailed      = "LOCK_FAILED"
	CodeHookRejected    = "HOOK_REJECTED"
)

// Sentinels for errors.Is checks. Matching is by code, so any VaultError with
// the same code matches regardless of message.
var (
	ErrInvalidLabel    = New(CodeInvalidLabel, "invalid label")
	ErrInvalidFileName = New(CodeInvalidFileName, "invalid file name")
	ErrVersionNotFound = New(CodeVersionNotFound, "version not found")
	ErrIOFailure       = New(CodeIOFailure, "i/o failure")
	ErrMetadataCorrupt = New(CodeMetadataCorrupt, "metadata corrupt")
)

// VaultError is a structured error with a code and actionable suggestion.
type VaultError struct {
	Code       string // machine-readable code (e.g. VERSION_NOT_FOUND)
	Message    string // human-readable description
	Suggestion string // actionable fix
	Err        error  // wrapped underlying error
}

// Error implements the error interface.
func (e *VaultError) Error() string {
	msg := fmt.Sprintf("[%s] %s", e.Code, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap supports errors.Is / errors.As.
func (e *VaultError) Unwrap() error {
	return e.Err
}

// New creates a VaultError with the given code and message.
func New(code, message string) *VaultError {
	return &VaultError{Code: code, Message: message}
}

// Newf creates a VaultError with a formatted message.
func Newf(code, format string, args ...interface{}) *VaultError {
	return &VaultError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates a VaultError wrapping an existing error.
func Wrap(code, message string, err error) *VaultError {
	return &VaultError{Code: code, Message: message, Err: err}
}

// IO wraps a filesystem failure.
func IO(message string, err error) *VaultError {
	return Wrap(CodeIOFailure, message, err)
}

// NotFound reports an absent version id.
func NotFound(versionID string) *VaultError {
	return Newf(CodeVersionNotFound, "version %s not found", versionID).
		WithSuggestion("run 'promptvault list' to see available versions")
}

// WithSuggestion returns a copy with the suggestion set.
func (e *VaultError) WithSuggestion(suggestion string) *VaultError {
	cp := *e
	cp.Suggestion = suggestion
	return &cp
}

// Is checks whether target matches this error's code.
func (e *VaultError) Is(target error) bool {
	var ve *VaultError
	if errors.As(target, &ve) {
		return e.Code == ve.Code
	}
	return false
}

// AsCode extracts the VaultError code from an error, or "" if not a VaultError.
func AsCode(err error) string {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Code
	}
	return ""
}

// Suggestion extracts the suggestion from an error, or "" if not a VaultError.
func Suggestion(err error) string {
	var ve *VaultError
	if errors.As(err, &ve) {
		return ve.Suggestion
	}
	return ""
}
