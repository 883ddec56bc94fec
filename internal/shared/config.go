package shared

import (
	_ "embed"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Database DatabaseConfig `toml:"database"`
	Server   ServerConfig   `toml:"server"`
	Library  LibraryConfig  `toml:"library"`
	Sync     SyncConfig     `toml:"sync"`
	Export   ExportConfig   `toml:"export"`
	Import   ImportConfig   `toml:"import"`
	Logging  LoggingConfig  `toml:"logging"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Addr joins host and port for [net/http.Server].
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LibraryConfig identifies the local library owner.
type LibraryConfig struct {
	UserID string `toml:"user_id"`
}

// SyncConfig configures the remote replay target and the connectivity probe.
type SyncConfig struct {
	RemoteURL     string  `toml:"remote_url"`
	RateLimit     float64 `toml:"rate_limit"`
	ProbeURL      string  `toml:"probe_url"`
	ProbeInterval int     `toml:"probe_interval"` // seconds
}

// ExportConfig contains export defaults.
type ExportConfig struct {
	OutputDir  string `toml:"output_dir"`
	NumWorkers int    `toml:"num_workers"`
}

// ImportConfig configures Beatport URL imports.
type ImportConfig struct {
	WatchDir  string  `toml:"watch_dir"`
	BatchSize int     `toml:"batch_size"`
	RateLimit float64 `toml:"rate_limit"` // batches per second
}

// LoggingConfig contains the log level name.
type LoggingConfig struct {
	Level string `toml:"level"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their values from [DefaultConfig].
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse config: %v", ErrInvalidConfig, err)
	}

	return config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks value ranges that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("%w: database.path is required", ErrInvalidConfig)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidConfig, c.Server.Port)
	}
	if strings.TrimSpace(c.Library.UserID) == "" {
		return fmt.Errorf("%w: library.user_id is required", ErrInvalidConfig)
	}
	if c.Sync.RateLimit < 0 || c.Import.RateLimit < 0 {
		return fmt.Errorf("%w: rate limits must not be negative", ErrInvalidConfig)
	}
	if _, err := ParseLogLevel(c.Logging.Level); err != nil {
		return err
	}
	return nil
}

// LoadEnv reads KEY=VALUE pairs from the dotenv file at path into the process environment.
//
// A missing file is not an error. Variables already set in the environment win.
func LoadEnv(path string) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides config values from RHYTM_* environment variables.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("RHYTM_DATABASE_PATH"); v != "" {
		c.Database.Path = v
	}
	if v := os.Getenv("RHYTM_SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%w: RHYTM_SERVER_PORT=%q", ErrInvalidConfig, v)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("RHYTM_SYNC_REMOTE_URL"); v != "" {
		c.Sync.RemoteURL = v
	}
	if v := os.Getenv("RHYTM_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	return nil
}
