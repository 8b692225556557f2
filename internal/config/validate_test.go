package config

import (
	"errors"
	"strings"
	"testing"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "defaults",
			mutate: func(c *Config) {},
		},
		{
			name:    "empty live dir",
			mutate:  func(c *Config) { c.LiveDir = " " },
			wantErr: "live_dir is required",
		},
		{
			name: "versions equal live",
			mutate: func(c *Config) {
				c.LiveDir = "prompts"
				c.VersionsDir = "./prompts/"
			},
			wantErr: "versions_dir must differ",
		},
		{
			name:    "malformed pattern",
			mutate:  func(c *Config) { c.Snapshot.Patterns = []string{"[md"} },
			wantErr: "invalid snapshot pattern",
		},
		{
			name:    "pattern with separator",
			mutate:  func(c *Config) { c.Snapshot.Patterns = []string{"sub/*.md"} },
			wantErr: "path separator",
		},
		{
			name:    "collision policy",
			mutate:  func(c *Config) { c.Snapshot.CollisionPolicy = "merge" },
			wantErr: "invalid collision_policy",
		},
		{
			name:    "keep zero",
			mutate:  func(c *Config) { c.Retention.Keep = -1 },
			wantErr: "retention.keep",
		},
		{
			name:    "logging level",
			mutate:  func(c *Config) { c.Logging.Level = "trace" },
			wantErr: "invalid logging level",
		},
		{
			name:    "logging format",
			mutate:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "invalid logging format",
		},
		{
			name:    "journal driver",
			mutate:  func(c *Config) { c.Journal.Driver = "postgres" },
			wantErr: "invalid journal driver",
		},
		{
			name: "sqlite without path",
			mutate: func(c *Config) {
				c.Journal.Driver = "sqlite"
				c.Journal.Path = ""
			},
			wantErr: "journal.path",
		},
		{
			name: "hook unknown event",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Name: "h", Type: "log", Events: []string{"crew.started"}}}
			},
			wantErr: "unknown event",
		},
		{
			name: "hook missing name",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Type: "log"}}
			},
			wantErr: "name is required",
		},
		{
			name: "hook duplicate name",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Name: "h", Type: "log"}, {Name: "h", Type: "log"}}
			},
			wantErr: "duplicate name",
		},
		{
			name: "shell hook without command",
			mutate: func(c *Config) {
				c.Hooks.Hooks = []HookConfig{{Name: "h", Type: "shell"}}
			},
			wantErr: "requires a command",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
			if !errors.Is(err, verrors.New(verrors.CodeConfigInvalid, "")) {
				t.Errorf("expected CONFIG_INVALID, got %v", err)
			}
		})
	}
}

func TestValidate_AccumulatesErrors(t *testing.T) {
	cfg := defaultConfig()
	cfg.Snapshot.CollisionPolicy = "merge"
	cfg.Logging.Level = "trace"

	err := Validate(cfg)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "collision_policy") || !strings.Contains(err.Error(), "logging level") {
		t.Errorf("expected both problems reported, got %v", err)
	}
}
