package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	verrors "github.com/cadre-oss/promptvault/internal/errors"
)

// FileName is the configuration file looked up in a project directory.
const FileName = "promptvault.yaml"

// Default values applied to unset fields.
const (
	DefaultLiveDir       = "prompts"
	DefaultKeep          = 50
	DefaultJournalDriver = "sqlite"
	DefaultJournalPath   = ".promptvault/journal.db"
)

// Load loads promptvault.yaml from dir. A missing file yields the defaults.
func Load(dir string) (*Config, error) {
	return LoadFile(filepath.Join(dir, FileName))
}

// LoadFile loads a configuration file by path.
func LoadFile(path string) (*Config, error) {
	base, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, verrors.IO("failed to resolve config directory", err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Return default config if no file exists
			cfg := defaultConfig()
			cfg.BaseDir = base
			return cfg, nil
		}
		return nil, verrors.IO("failed to read config file", err)
	}

	cfg, err := Parse(content)
	if err != nil {
		return nil, err
	}
	cfg.BaseDir = base
	return cfg, nil
}

// Parse decodes YAML content with environment interpolation and defaults.
func Parse(content []byte) (*Config, error) {
	// Interpolate environment variables
	content = []byte(interpolateEnv(string(content)))

	var cfg Config
	if err := yaml.Unmarshal(content, &cfg); err != nil {
		return nil, verrors.Wrap(verrors.CodeConfigInvalid, "failed to parse config", err).
			WithSuggestion(fmt.Sprintf("check %s for YAML syntax errors", FileName))
	}

	// Apply defaults
	applyDefaults(&cfg)

	return &cfg, nil
}

// Marshal renders the configuration as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Path resolves p against BaseDir unless it is already absolute.
func (c *Config) Path(p string) string {
	if p == "" || filepath.IsAbs(p) || c.BaseDir == "" {
		return p
	}
	return filepath.Join(c.BaseDir, p)
}

var (
	envPattern = regexp.MustCompile(`\$\{env\.([^}]+)\}`)
	varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)
)

// interpolateEnv replaces ${env.VAR} and ${VAR} with environment values.
// Unset variables are left as written.
func interpolateEnv(content string) string {
	content = envPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := envPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match // keep original if not found
	})

	content = varPattern.ReplaceAllStringFunc(content, func(match string) string {
		varName := varPattern.FindStringSubmatch(match)[1]
		if val, ok := os.LookupEnv(varName); ok {
			return val
		}
		return match
	})

	return content
}

func defaultConfig() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	if cfg.LiveDir == "" {
		cfg.LiveDir = DefaultLiveDir
	}
	if len(cfg.Snapshot.Patterns) == 0 {
		cfg.Snapshot.Patterns = []string{"*"}
	}
	if cfg.Snapshot.CollisionPolicy == "" {
		cfg.Snapshot.CollisionPolicy = "suffix"
	}
	if cfg.Retention.Keep == 0 {
		cfg.Retention.Keep = DefaultKeep
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	if cfg.Journal.Driver == "" {
		cfg.Journal.Driver = DefaultJournalDriver
	}
	if cfg.Journal.Path == "" && cfg.Journal.Driver == "sqlite" {
		cfg.Journal.Path = DefaultJournalPath
	}
}
