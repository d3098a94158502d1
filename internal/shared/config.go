package shared

import (
	_ "embed"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Engine   EngineConfig   `toml:"engine"`
	Browser  BrowserConfig  `toml:"browser"`
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
}

// EngineConfig holds the user-facing reconciliation settings.
type EngineConfig struct {
	Enabled           bool   `toml:"enabled"`
	Quality           string `toml:"quality"`
	Debug             bool   `toml:"debug"`
	AttemptIntervalMs int    `toml:"attempt_interval_ms"`
	MaxAttempts       int    `toml:"max_attempts"`
}

// BrowserConfig describes how to reach the browser's DevTools endpoint.
type BrowserConfig struct {
	CDPURL         string `toml:"cdp_url"`
	StartURL       string `toml:"start_url"`
	CallTimeoutMs  int    `toml:"call_timeout_ms"`
	PollIntervalMs int    `toml:"poll_interval_ms"`
}

// ServerConfig contains settings for the local configuration push endpoint.
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// Addr returns the host:port pair the push endpoint listens on.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// CallTimeout returns the per-call deadline for host surface calls.
func (b BrowserConfig) CallTimeout() time.Duration {
	if b.CallTimeoutMs <= 0 {
		return 2 * time.Second
	}
	return time.Duration(b.CallTimeoutMs) * time.Millisecond
}

// PollInterval returns the location polling period.
func (b BrowserConfig) PollInterval() time.Duration {
	if b.PollIntervalMs <= 0 {
		return 400 * time.Millisecond
	}
	return time.Duration(b.PollIntervalMs) * time.Millisecond
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
//
// Keys missing from the file keep their default values.
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

// SaveConfig writes config to path as TOML, replacing any existing file.
func SaveConfig(path string, config *Config) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}
