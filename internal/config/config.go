// Package config handles pubfrac configuration: methodology constants,
// registry column names, encodings, cache and server settings.
package config

import (
	"fmt"
	"path/filepath"

	"github.com/matsen/pubfrac/internal/attribution"
	"github.com/matsen/pubfrac/internal/methodology"
	"github.com/matsen/pubfrac/internal/registry"
)

// Config represents configuration stored in ~/.config/pubfrac/config.yml.
type Config struct {
	Methodology MethodologyConfig    `yaml:"methodology" json:"methodology"`
	Columns     registry.ColumnNames `yaml:"columns" json:"columns"`
	Encodings   []string             `yaml:"encodings" json:"encodings"`
	Cache       CacheConfig          `yaml:"cache" json:"cache"`
	Server      ServerConfig         `yaml:"server" json:"server"`
	Log         LogConfig            `yaml:"log" json:"log"`

	path string // file the config was read from, empty for defaults
}

// MethodologyConfig holds the closed sets and window of the methodology.
type MethodologyConfig struct {
	AllowedTags []string             `yaml:"allowed_tags" json:"allowed_tags"`
	ReviewFlags []string             `yaml:"review_flags" json:"review_flags"`
	WindowYears int                  `yaml:"window_years" json:"window_years"`
	Types       attribution.TypeSets `yaml:"types" json:"types"`
}

// CacheConfig controls the persistent registry cache.
type CacheConfig struct {
	Dir      string `yaml:"dir" json:"dir"`
	Disabled bool   `yaml:"disabled" json:"disabled"`
}

// ServerConfig controls `pubfrac serve`.
type ServerConfig struct {
	Addr string `yaml:"addr" json:"addr"`
}

// LogConfig controls diagnostic logging.
type LogConfig struct {
	Level string `yaml:"level" json:"level"` // debug, info, warn, error
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Methodology: MethodologyConfig{
			AllowedTags: append([]string(nil), methodology.DefaultAllowedTags...),
			ReviewFlags: []string{string(registry.ReviewStrict)},
			WindowYears: methodology.DefaultWindowYears,
			Types:       attribution.DefaultTypeSets(),
		},
		Columns:   registry.DefaultColumns,
		Encodings: append([]string(nil), registry.DefaultEncodings...),
		Cache:     CacheConfig{Dir: DefaultCacheDir()},
		Server:    ServerConfig{Addr: "127.0.0.1:8080"},
		Log:       LogConfig{Level: "warn"},
	}
}

// Path returns the file the configuration was loaded from, if any.
func (c *Config) Path() string {
	return c.path
}

// Validate checks that the configuration can drive the pipeline.
func (c *Config) Validate() error {
	m := c.Methodology
	if len(m.AllowedTags) == 0 {
		return fmt.Errorf("methodology.allowed_tags must not be empty")
	}
	if m.WindowYears < 1 {
		return fmt.Errorf("methodology.window_years must be at least 1, got %d", m.WindowYears)
	}
	if len(m.Types.Portal) == 0 || len(m.Types.Scopus) == 0 {
		return fmt.Errorf("methodology.types must list portal and scopus labels")
	}
	for _, f := range m.ReviewFlags {
		if _, err := methodology.ParseReviewFlag(f); err != nil {
			return fmt.Errorf("methodology.review_flags: %w", err)
		}
	}
	if err := registry.ValidateEncodings(c.Encodings); err != nil {
		return fmt.Errorf("encodings: %w", err)
	}
	return nil
}

// Eligibility converts the methodology section. Flags are validated by Validate.
func (c *Config) Eligibility() methodology.Eligibility {
	e := methodology.Eligibility{
		AllowedTags: c.Methodology.AllowedTags,
		WindowYears: c.Methodology.WindowYears,
	}
	for _, f := range c.Methodology.ReviewFlags {
		flag, _ := methodology.ParseReviewFlag(f)
		e.ReviewFlags = append(e.ReviewFlags, flag)
	}
	return e
}

// LoaderOptions returns the registry loader options.
func (c *Config) LoaderOptions() registry.Options {
	return registry.Options{
		Columns:   c.Columns.WithDefaults(),
		Encodings: c.Encodings,
	}
}

// CachePath returns the registry cache database path.
func (c *Config) CachePath() string {
	return filepath.Join(c.Cache.Dir, CacheFile)
}
