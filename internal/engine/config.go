package engine

import (
	"fmt"
	"time"

	"github.com/desertthunder/tubetune/internal/quality"
	"github.com/desertthunder/tubetune/internal/shared"
)

const (
	defaultAttemptInterval = 500 * time.Millisecond
	defaultMaxAttempts     = 60
)

// Config is an immutable snapshot of the reconciliation settings.
type Config struct {
	Enabled         bool
	Quality         string
	Debug           bool
	AttemptInterval time.Duration
	MaxAttempts     int
}

// DefaultConfig returns the settings used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Enabled:         true,
		Quality:         quality.DefaultLabel,
		Debug:           true,
		AttemptInterval: defaultAttemptInterval,
		MaxAttempts:     defaultMaxAttempts,
	}
}

// ConfigFrom converts the file representation into a normalized [Config].
func ConfigFrom(c shared.EngineConfig) Config {
	return Config{
		Enabled:         c.Enabled,
		Quality:         c.Quality,
		Debug:           c.Debug,
		AttemptInterval: time.Duration(c.AttemptIntervalMs) * time.Millisecond,
		MaxAttempts:     c.MaxAttempts,
	}.normalize()
}

// normalize replaces missing or non-positive values with defaults.
func (c Config) normalize() Config {
	if c.Quality == "" {
		c.Quality = quality.DefaultLabel
	}
	if c.AttemptInterval <= 0 {
		c.AttemptInterval = defaultAttemptInterval
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaultMaxAttempts
	}
	return c
}

// Merge returns c with every field present in u replaced.
func (c Config) Merge(u ConfigUpdate) Config {
	if u.Enabled != nil {
		c.Enabled = *u.Enabled
	}
	if u.Quality != nil {
		c.Quality = *u.Quality
	}
	if u.Debug != nil {
		c.Debug = *u.Debug
	}
	if u.AttemptIntervalMs != nil {
		c.AttemptInterval = time.Duration(*u.AttemptIntervalMs) * time.Millisecond
	}
	if u.MaxAttempts != nil {
		c.MaxAttempts = *u.MaxAttempts
	}
	return c.normalize()
}

// ConfigUpdate is a full or partial configuration push. Absent fields keep their current value.
type ConfigUpdate struct {
	Enabled           *bool   `json:"enabled,omitempty"`
	Quality           *string `json:"quality,omitempty"`
	Debug             *bool   `json:"debug,omitempty"`
	AttemptIntervalMs *int    `json:"attemptIntervalMs,omitempty"`
	MaxAttempts       *int    `json:"maxAttempts,omitempty"`
}

// FullUpdate returns an update carrying every field of c.
func FullUpdate(c Config) ConfigUpdate {
	interval := int(c.AttemptInterval / time.Millisecond)
	return ConfigUpdate{
		Enabled:           &c.Enabled,
		Quality:           &c.Quality,
		Debug:             &c.Debug,
		AttemptIntervalMs: &interval,
		MaxAttempts:       &c.MaxAttempts,
	}
}

// Empty reports whether u carries no fields.
func (u ConfigUpdate) Empty() bool {
	return u.Enabled == nil && u.Quality == nil && u.Debug == nil && u.AttemptIntervalMs == nil && u.MaxAttempts == nil
}

// Validate rejects unknown quality labels and non-positive timings.
func (u ConfigUpdate) Validate() error {
	if u.Quality != nil && !quality.ValidLabel(*u.Quality) {
		return fmt.Errorf("%w: %q", shared.ErrInvalidQuality, *u.Quality)
	}
	if u.AttemptIntervalMs != nil && *u.AttemptIntervalMs <= 0 {
		return fmt.Errorf("%w: attemptIntervalMs must be positive", shared.ErrInvalidConfig)
	}
	if u.MaxAttempts != nil && *u.MaxAttempts <= 0 {
		return fmt.Errorf("%w: maxAttempts must be positive", shared.ErrInvalidConfig)
	}
	return nil
}
