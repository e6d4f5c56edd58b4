package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	// AppDir is the directory name under XDG_CONFIG_HOME and XDG_CACHE_HOME.
	AppDir = "pubfrac"
	// ConfigFile is the config file name.
	ConfigFile = "config.yml"
	// CacheFile is the registry cache database name.
	CacheFile = "registry.db"
)

// Environment variables that override file configuration.
const (
	EnvConfigPath = "PUBFRAC_CONFIG"
	EnvLogLevel   = "PUBFRAC_LOG_LEVEL"
	EnvCacheDir   = "PUBFRAC_CACHE_DIR"
	EnvAddr       = "PUBFRAC_ADDR"
)

// ErrConfigNotFound is returned when an explicitly requested config file does not exist.
var ErrConfigNotFound = errors.New("config file not found")

// DefaultConfigPath returns the path to the user config file.
// Respects XDG_CONFIG_HOME, defaults to ~/.config/pubfrac/config.yml.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, AppDir, ConfigFile)
}

// DefaultCacheDir returns the directory holding the registry cache.
// Respects XDG_CACHE_HOME, defaults to ~/.cache/pubfrac.
func DefaultCacheDir() string {
	cacheHome := os.Getenv("XDG_CACHE_HOME")
	if cacheHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), AppDir)
		}
		cacheHome = filepath.Join(home, ".cache")
	}
	return filepath.Join(cacheHome, AppDir)
}

// Load reads configuration and applies environment overrides.
//
// An explicit path (argument or PUBFRAC_CONFIG) must exist. Without one, the
// default path is used if present; otherwise defaults apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		if env := os.Getenv(EnvConfigPath); env != "" {
			path, explicit = env, true
		} else {
			path = DefaultConfigPath()
		}
	}

	if path != "" {
		path = ExpandPath(path)
		data, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("parsing config %s: %w", path, err)
			}
			cfg.path = path
		case os.IsNotExist(err) && !explicit:
			// no user config; defaults apply
		case os.IsNotExist(err):
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, path)
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.Cache.Dir = ExpandPath(cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv(EnvCacheDir); v != "" {
		c.Cache.Dir = v
	}
	if v := os.Getenv(EnvAddr); v != "" {
		c.Server.Addr = v
	}
}

// ExpandPath expands a leading ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[1:])
	}
	return path
}
