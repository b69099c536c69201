// Package config loads service configuration from an optional YAML file,
// then applies GROUNDTRACK_* environment overrides. Invalid override
// values log a warning and fall back rather than failing startup.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full trackd configuration.
type Config struct {
	HTTPAddr string `yaml:"http_addr"`
	LogLevel string `yaml:"log_level"`

	Auth struct {
		Enabled bool   `yaml:"enabled"`
		Token   string `yaml:"token"`
	} `yaml:"auth"`

	Catalog struct {
		SourceURL      string `yaml:"source_url"`
		FetchOnStart   bool   `yaml:"fetch_on_start"`
		RefreshSeconds int    `yaml:"refresh_seconds"` // 0 disables periodic refresh
		CacheDir       string `yaml:"cache_dir"`
		MaxCacheFiles  int    `yaml:"max_cache_files"`
	} `yaml:"catalog"`

	Track struct {
		Workers        int     `yaml:"workers"`
		StaleAfterDays float64 `yaml:"stale_after_days"`
		MaxSamples     int     `yaml:"max_samples"`
		MaxStepSeconds int     `yaml:"max_step_seconds"`
	} `yaml:"track"`
}

// Default returns the built-in configuration.
func Default() Config {
	var cfg Config
	cfg.HTTPAddr = ":8080"
	cfg.LogLevel = "info"
	cfg.Catalog.FetchOnStart = false
	cfg.Catalog.CacheDir = "/tmp/groundtrack/catalog"
	cfg.Catalog.MaxCacheFiles = 5
	cfg.Track.Workers = runtime.NumCPU()
	cfg.Track.StaleAfterDays = 7
	cfg.Track.MaxSamples = 500
	cfg.Track.MaxStepSeconds = 3600
	return cfg
}

// Load reads the YAML file at path over the defaults, then applies
// environment overrides. An empty path skips the file.
func Load(path string, logger *slog.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	cfg.applyEnv(logger)

	if cfg.Auth.Enabled && cfg.Auth.Token == "" {
		return cfg, fmt.Errorf("auth token is required when auth is enabled")
	}
	if cfg.Track.Workers < 1 {
		cfg.Track.Workers = 1
	}
	if cfg.Track.MaxSamples < 1 {
		cfg.Track.MaxSamples = 1
	}
	return cfg, nil
}

// StaleAfter returns the staleness threshold as a duration.
func (c *Config) StaleAfter() time.Duration {
	return time.Duration(c.Track.StaleAfterDays * 24 * float64(time.Hour))
}

func (c *Config) applyEnv(logger *slog.Logger) {
	if v := os.Getenv("GROUNDTRACK_HTTP_ADDR"); v != "" {
		c.HTTPAddr = v
	}
	if v := os.Getenv("GROUNDTRACK_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}

	if v := os.Getenv("GROUNDTRACK_AUTH_ENABLED"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid GROUNDTRACK_AUTH_ENABLED value, keeping current", "value", v)
		} else {
			c.Auth.Enabled = enabled
		}
	}
	if v := os.Getenv("GROUNDTRACK_AUTH_TOKEN"); v != "" {
		c.Auth.Token = v
	}

	if v := os.Getenv("GROUNDTRACK_CATALOG_URL"); v != "" {
		c.Catalog.SourceURL = v
	}
	if v := os.Getenv("GROUNDTRACK_CATALOG_FETCH_ON_START"); v != "" {
		enabled, err := strconv.ParseBool(v)
		if err != nil {
			logger.Warn("invalid GROUNDTRACK_CATALOG_FETCH_ON_START value, keeping current", "value", v)
		} else {
			c.Catalog.FetchOnStart = enabled
		}
	}
	if v := os.Getenv("GROUNDTRACK_CATALOG_REFRESH_SECONDS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			logger.Warn("invalid GROUNDTRACK_CATALOG_REFRESH_SECONDS value, keeping current", "value", v)
		} else {
			c.Catalog.RefreshSeconds = n
		}
	}
	if v := os.Getenv("GROUNDTRACK_CATALOG_CACHE_DIR"); v != "" {
		c.Catalog.CacheDir = v
	}

	if v := os.Getenv("GROUNDTRACK_TRACK_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid GROUNDTRACK_TRACK_WORKERS value, keeping current", "value", v)
		} else {
			c.Track.Workers = n
		}
	}
	if v := os.Getenv("GROUNDTRACK_TRACK_STALE_AFTER_DAYS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil || f <= 0 {
			logger.Warn("invalid GROUNDTRACK_TRACK_STALE_AFTER_DAYS value, keeping current", "value", v)
		} else {
			c.Track.StaleAfterDays = f
		}
	}
	if v := os.Getenv("GROUNDTRACK_TRACK_MAX_SAMPLES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			logger.Warn("invalid GROUNDTRACK_TRACK_MAX_SAMPLES value, keeping current", "value", v)
		} else {
			c.Track.MaxSamples = n
		}
	}
}

// SlogLevel maps the configured log level string onto a slog.Level.
// Unknown values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
