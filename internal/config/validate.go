package config

import (
	"fmt"
	"path/filepath"
	"strings"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
	"github.com/cadre-oss/promptvault/internal/event"
)

// Validate checks a configuration and reports every problem at once.
func Validate(cfg *Config) error {
	var errors []string

	if strings.TrimSpace(cfg.LiveDir) == "" {
		errors = append(errors, "live_dir is required")
	}
	if cfg.VersionsDir != "" && cfg.LiveDir != "" &&
		filepath.Clean(cfg.Path(cfg.VersionsDir)) == filepath.Clean(cfg.Path(cfg.LiveDir)) {
		errors = append(errors, "versions_dir must differ from live_dir")
	}

	for _, p := range cfg.Snapshot.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			errors = append(errors, fmt.Sprintf("invalid snapshot pattern %q: %s", p, err))
		}
		if strings.ContainsAny(p, `/\`) {
			errors = append(errors, fmt.Sprintf("snapshot pattern %q must not contain a path separator", p))
		}
	}

	validPolicies := map[string]bool{
		"suffix":    true,
		"overwrite": true,
	}
	if !validPolicies[cfg.Snapshot.CollisionPolicy] {
		errors = append(errors, fmt.Sprintf("invalid collision_policy: %s (must be suffix or overwrite)", cfg.Snapshot.CollisionPolicy))
	}

	if cfg.Retention.Keep < 1 {
		errors = append(errors, fmt.Sprintf("retention.keep must be at least 1, got %d", cfg.Retention.Keep))
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[strings.ToLower(cfg.Logging.Level)] {
		errors = append(errors, fmt.Sprintf("invalid logging level: %s", cfg.Logging.Level))
	}
	validFormats := map[string]bool{
		"text": true,
		"json": true,
	}
	if !validFormats[strings.ToLower(cfg.Logging.Format)] {
		errors = append(errors, fmt.Sprintf("invalid logging format: %s", cfg.Logging.Format))
	}

	switch cfg.Journal.Driver {
	case "sqlite":
		if cfg.Journal.Path == "" {
			errors = append(errors, "journal.path is required for the sqlite driver")
		}
	case "memory", "none":
	default:
		errors = append(errors, fmt.Sprintf("invalid journal driver: %s (must be sqlite, memory, or none)", cfg.Journal.Driver))
	}

	errors = append(errors, validateHooks(cfg.Hooks)...)

	if len(errors) > 0 {
		return verrors.Newf(verrors.CodeConfigInvalid, "config validation failed: %s", strings.Join(errors, "; ")).
			WithSuggestion("run 'promptvault config show' to inspect the effective configuration")
	}
	return nil
}

func validateHooks(cfg HooksConfig) []string {
	var errors []string
	seen := make(map[string]bool)

	for i, h := range cfg.Hooks {
		label := h.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
			errors = append(errors, fmt.Sprintf("hook %s: name is required", label))
		} else if seen[h.Name] {
			errors = append(errors, fmt.Sprintf("hook %s: duplicate name", label))
		}
		seen[h.Name] = true

		if _, err := event.Build(h.Spec(), nil); err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}

// Spec converts the hook configuration into an event hook spec.
func (h HookConfig) Spec() event.Spec {
	return event.Spec{
		Name:     h.Name,
		Type:     h.Type,
		Events:   h.Events,
		Blocking: h.Blocking,
		Command:  h.Command,
		URL:      h.URL,
		Message:  h.Message,
		Level:    h.Level,
	}
}
