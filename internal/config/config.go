// Package config loads tool configuration from ~/.nova/config.yaml and
// NOVA_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds all tool settings.
type Config struct {
	// DataDir holds the local database and log file.
	DataDir string `mapstructure:"data_dir"`

	// CredentialsFile points at the service-account JSON for the sync
	// backend. Empty means local-only operation.
	CredentialsFile string `mapstructure:"credentials_file"`

	Sync      SyncConfig      `mapstructure:"sync"`
	Dashboard DashboardConfig `mapstructure:"dashboard"`

	// LogFile overrides the default log location (DataDir/nova.log).
	LogFile string `mapstructure:"log_file"`
}

// SyncConfig controls cloud synchronization.
type SyncConfig struct {
	Enabled bool `mapstructure:"enabled"`
	// Timeout bounds each individual pull or push.
	Timeout time.Duration `mapstructure:"timeout"`
}

// DashboardConfig controls the live dashboard server.
type DashboardConfig struct {
	Port int `mapstructure:"port"`
}

// DefaultDataDir returns ~/.nova, falling back to a relative .nova when
// the home directory cannot be determined.
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".nova"
	}
	return filepath.Join(home, ".nova")
}

// Load reads configuration from the config file, environment, and
// defaults, in ascending priority of defaults < file < environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(DefaultDataDir())

	v.SetEnvPrefix("NOVA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("data_dir", DefaultDataDir())
	v.SetDefault("credentials_file", "")
	v.SetDefault("sync.enabled", true)
	v.SetDefault("sync.timeout", 15*time.Second)
	v.SetDefault("dashboard.port", 8080)
	v.SetDefault("log_file", "")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks settings that would otherwise fail obscurely later.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}
	if c.Sync.Timeout <= 0 {
		return fmt.Errorf("sync.timeout must be positive")
	}
	if c.Dashboard.Port <= 0 || c.Dashboard.Port > 65535 {
		return fmt.Errorf("dashboard.port must be a valid port, got %d", c.Dashboard.Port)
	}
	return nil
}

// DatabasePath returns the local database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, "nova.db")
}

// LogPath returns the log file location.
func (c *Config) LogPath() string {
	if c.LogFile != "" {
		return c.LogFile
	}
	return filepath.Join(c.DataDir, "nova.log")
}

// ConfigPath returns where the config file lives (or would live).
func (c *Config) ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yaml")
}

// SyncConfigured reports whether cloud sync can be attempted at all.
func (c *Config) SyncConfigured() bool {
	return c.Sync.Enabled && c.CredentialsFile != ""
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		DataDir: DefaultDataDir(),
		Sync: SyncConfig{
			Enabled: true,
			Timeout: 15 * time.Second,
		},
		Dashboard: DashboardConfig{Port: 8080},
	}
}

// WriteDefault writes the default configuration to path, refusing to
// overwrite an existing file.
func WriteDefault(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	cfg := Default()
	// The duration is rendered as a string ("15s") rather than raw
	// nanoseconds; viper parses both back.
	data, err := yaml.Marshal(map[string]interface{}{
		"data_dir":         cfg.DataDir,
		"credentials_file": cfg.CredentialsFile,
		"sync": map[string]interface{}{
			"enabled": cfg.Sync.Enabled,
			"timeout": cfg.Sync.Timeout.String(),
		},
		"dashboard": map[string]interface{}{
			"port": cfg.Dashboard.Port,
		},
	})
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	header := "# Lunar Nova configuration.\n# Values can be overridden with NOVA_* environment variables,\n# e.g. NOVA_SYNC_ENABLED=false or NOVA_DASHBOARD_PORT=9000.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}
