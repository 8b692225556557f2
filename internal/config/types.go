package config

// Config represents the vault configuration (promptvault.yaml)
type Config struct {
	LiveDir     string          `yaml:"live_dir" json:"live_dir"`
	VersionsDir string          `yaml:"versions_dir,omitempty" json:"versions_dir,omitempty"` // default <live_dir>/versioned
	Snapshot    SnapshotConfig  `yaml:"snapshot" json:"snapshot"`
	Retention   RetentionConfig `yaml:"retention" json:"retention"`
	Logging     LoggingConfig   `yaml:"logging" json:"logging"`
	Metrics     MetricsConfig   `yaml:"metrics" json:"metrics"`
	Journal     JournalConfig   `yaml:"journal" json:"journal"`
	Hooks       HooksConfig     `yaml:"hooks" json:"hooks"`

	// BaseDir anchors relative paths; it is the directory the file was loaded from.
	BaseDir string `yaml:"-" json:"-"`
}

// SnapshotConfig controls what a snapshot captures and how ids are assigned
type SnapshotConfig struct {
	Patterns        []string `yaml:"patterns" json:"patterns"`                 // glob patterns over top-level live files
	CollisionPolicy string   `yaml:"collision_policy" json:"collision_policy"` // suffix, overwrite
}

// RetentionConfig configures pruning
type RetentionConfig struct {
	Keep int `yaml:"keep" json:"keep"`
}

// LoggingConfig configures logging
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`   // debug, info, warn, error
	Format string `yaml:"format" json:"format"` // text, json
	File   string `yaml:"file,omitempty" json:"file,omitempty"`
}

// MetricsConfig configures the metrics exporter
type MetricsConfig struct {
	File string `yaml:"file,omitempty" json:"file,omitempty"` // JSONL output, empty disables
}

// JournalConfig configures the operation journal
type JournalConfig struct {
	Driver string `yaml:"driver" json:"driver"` // sqlite, memory, none
	Path   string `yaml:"path" json:"path"`
}

// HooksConfig configures lifecycle event hooks.
type HooksConfig struct {
	Enabled bool         `yaml:"enabled" json:"enabled"`
	Hooks   []HookConfig `yaml:"hooks" json:"hooks"`
}

// HookConfig defines a single hook.
type HookConfig struct {
	Name     string   `yaml:"name" json:"name"`
	Type     string   `yaml:"type" json:"type"`     // shell, webhook, log, pause
	Events   []string `yaml:"events" json:"events"` // event types to match
	Blocking bool     `yaml:"blocking" json:"blocking"`
	Command  string   `yaml:"command,omitempty" json:"command,omitempty"` // for shell hooks
	URL      string   `yaml:"url,omitempty" json:"url,omitempty"`         // for webhook hooks
	Message  string   `yaml:"message,omitempty" json:"message,omitempty"` // for pause hooks
	Level    string   `yaml:"level,omitempty" json:"level,omitempty"`     // for log hooks (debug, info, warn)
}
