package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cadre-oss/promptvault/internal/config"
	"github.com/cadre-oss/promptvault/internal/telemetry"
	"github.com/cadre-oss/promptvault/internal/vault"
)

var (
	cfgFile     string
	liveDir     string
	versionsDir string
	verbose     bool
	outputJSON  bool
	outputToon  bool
)

var rootCmd = &cobra.Command{
	Use:   "promptvault",
	Short: "Versioned store for prompt files",
	Long: `promptvault - snapshots, diffs and rollbacks for a directory of prompt files.

Every change to a live prompt file is preceded by a full snapshot of the
directory, so any automated edit can be undone with a single rollback.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Failures are reported on stderr, or as a
// structured result with --json, and returned for the exit code.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		reportError(rootCmd, err)
	}
	return err
}

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "config file (default is ./promptvault.yaml)")
	pf.StringVar(&liveDir, "live-dir", "", "live prompt directory (overrides live_dir)")
	pf.StringVar(&versionsDir, "versions-dir", "", "versions directory (overrides versions_dir)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.BoolVar(&outputJSON, "json", false, "output as JSON")
	pf.BoolVar(&outputToon, "toon", false, "output in LLM-friendly toon format")

	viper.SetEnvPrefix("PROMPTVAULT")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()
	_ = viper.BindPFlag("config", pf.Lookup("config"))
	_ = viper.BindPFlag("live_dir", pf.Lookup("live-dir"))
	_ = viper.BindPFlag("versions_dir", pf.Lookup("versions-dir"))
	_ = viper.BindPFlag("verbose", pf.Lookup("verbose"))

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(snapshotCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(diffCmd)
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(rollbackCmd)
	rootCmd.AddCommand(pruneCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(doctorCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(completionCmd)
}

func initConfig() {
	if viper.GetBool("verbose") {
		if path := configPath(); fileExists(path) {
			fmt.Fprintln(os.Stderr, "Using config file:", path)
		}
	}
}

// configPath is --config, $PROMPTVAULT_CONFIG or ./promptvault.yaml.
func configPath() string {
	if path := viper.GetString("config"); path != "" {
		return path
	}
	return config.FileName
}

// loadConfig loads the configuration file and applies flag and environment
// overrides. Override paths are relative to the working directory.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFile(configPath())
	if err != nil {
		return nil, err
	}
	if dir := viper.GetString("live_dir"); dir != "" {
		cfg.LiveDir = absPath(dir)
	}
	if dir := viper.GetString("versions_dir"); dir != "" {
		cfg.VersionsDir = absPath(dir)
	}
	return cfg, nil
}

// newLogger builds the command logger from the logging section.
func newLogger(cfg *config.Config) (*telemetry.Logger, error) {
	logger := telemetry.NewLoggerWithOptions(cfg.Logging.Level, cfg.Logging.Format, viper.GetBool("verbose"))
	if cfg.Logging.File != "" {
		if err := logger.WithFile(cfg.Path(cfg.Logging.File)); err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
	}
	return logger, nil
}

// openVault loads configuration and opens the vault. The returned closer
// releases the vault and the logger.
func openVault() (*vault.Vault, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, nil, err
	}
	v, err := vault.Open(cfg, logger)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}
	return v, func() {
		if err := v.Close(); err != nil {
			logger.Warn("Failed to close vault", "error", err)
		}
		logger.Close()
	}, nil
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
