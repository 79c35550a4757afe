// Package config provides configuration file support for SafeChecks.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DirName is the per-workspace state directory.
const DirName = ".safechecks"

// Config represents the SafeChecks device configuration.
type Config struct {
	Remote  RemoteConfig  `yaml:"remote"`
	Sync    SyncConfig    `yaml:"sync"`
	Store   StoreConfig   `yaml:"store"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
	Gateway GatewayConfig `yaml:"gateway"`
}

// RemoteConfig selects the row-store backend.
type RemoteConfig struct {
	Driver   string        `yaml:"driver"` // http, xlsx, none
	URL      string        `yaml:"url"`
	Secret   string        `yaml:"secret,omitempty"`
	Timeout  time.Duration `yaml:"timeout"`
	Workbook string        `yaml:"workbook,omitempty"`
}

// SyncConfig tunes the poll loop and the retry queue.
type SyncConfig struct {
	PullInterval    time.Duration `yaml:"pull_interval"`
	MinPullInterval time.Duration `yaml:"min_pull_interval"`
	RetryDelay      time.Duration `yaml:"retry_delay"`
	DispatchQueue   int           `yaml:"dispatch_queue"`
}

// StoreConfig selects the local persistence backend.
type StoreConfig struct {
	Driver string `yaml:"driver"` // file, sqlite
	Path   string `yaml:"path,omitempty"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // json, text
}

// MetricsConfig enables the Prometheus endpoint of the poll loop.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// GatewayConfig configures the reference spreadsheet gateway.
type GatewayConfig struct {
	Addr     string `yaml:"addr"`
	Workbook string `yaml:"workbook"`
	Secret   string `yaml:"secret,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Remote: RemoteConfig{
			Driver:  "http",
			Timeout: 15 * time.Second,
		},
		Sync: SyncConfig{
			PullInterval:    15 * time.Second,
			MinPullInterval: 15 * time.Second,
			RetryDelay:      400 * time.Millisecond,
			DispatchQueue:   64,
		},
		Store: StoreConfig{
			Driver: "file",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Gateway: GatewayConfig{
			Addr:     ":8080",
			Workbook: "safechecks.xlsx",
		},
	}
}

// Path returns the config file location for a workspace root.
func Path(root string) string {
	return filepath.Join(root, DirName, "config.yaml")
}

// Load loads configuration from .safechecks/config.yaml, then applies
// environment overrides. A .env file in the workspace root seeds the
// environment without replacing variables that are already set.
// Returns default config if the file doesn't exist.
func Load(root string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(Path(root))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	envFile := filepath.Join(root, ".env")
	if _, err := os.Stat(envFile); err == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	applyEnv(cfg)

	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("SAFECHECKS_REMOTE_URL"); v != "" {
		cfg.Remote.URL = v
	}
	if v := os.Getenv("SAFECHECKS_REMOTE_SECRET"); v != "" {
		cfg.Remote.Secret = v
	}
	if v := os.Getenv("SAFECHECKS_REMOTE_DRIVER"); v != "" {
		cfg.Remote.Driver = v
	}
	if v := os.Getenv("SAFECHECKS_REMOTE_WORKBOOK"); v != "" {
		cfg.Remote.Workbook = v
	}
	if v := os.Getenv("SAFECHECKS_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("SAFECHECKS_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("SAFECHECKS_PULL_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Sync.PullInterval = d
		}
	}
}

// Save writes configuration to .safechecks/config.yaml.
func Save(root string, cfg *Config) error {
	cfgPath := Path(root)

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(cfgPath), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(cfgPath, data, 0644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}
