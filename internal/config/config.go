// Package config loads the frontend configuration from defaults, an optional
// TOML file and environment overrides, in that order.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

const (
	EnvConfigFile      = "WRITINGS_CONFIG"
	EnvListenAddr      = "WRITINGS_LISTEN_ADDR"
	EnvStaticDir       = "WRITINGS_STATIC_DIR"
	EnvSiteURL         = "WRITINGS_SITE_URL"
	EnvAPIOrigin       = "WRITINGS_API_ORIGIN"
	EnvCachePolicy     = "WRITINGS_CACHE_POLICY"
	EnvLogLevel        = "WRITINGS_LOG_LEVEL"
	EnvLogFormat       = "WRITINGS_LOG_FORMAT"
	EnvShutdownTimeout = "WRITINGS_SHUTDOWN_TIMEOUT"
)

type Config struct {
	ListenAddr string `toml:"listen_addr"`
	StaticDir  string `toml:"static_dir"`

	// SiteURL is the public address of this frontend. Links in writings that
	// point elsewhere open in a new tab.
	SiteURL string `toml:"site_url"`

	APIOrigin string `toml:"api_origin"`

	CachePolicy string `toml:"cache_policy"`

	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"`

	ShutdownTimeout string `toml:"shutdown_timeout"`
}

func Default() Config {
	return Config{
		ListenAddr:      ":8080",
		StaticDir:       "internal/web/static",
		APIOrigin:       "http://127.0.0.1:5000",
		CachePolicy:     "no-cache",
		LogLevel:        "info",
		LogFormat:       "console",
		ShutdownTimeout: "10s",
	}
}

func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv(EnvConfigFile)); path != "" {
		fileCfg, err := loadFile(path)
		if err != nil {
			return Config{}, err
		}
		cfg.Merge(fileCfg)
	}

	cfg.loadEnv()
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Merge copies the non-empty fields of overlay onto c.
func (c *Config) Merge(overlay Config) {
	mergeString(&c.ListenAddr, overlay.ListenAddr)
	mergeString(&c.StaticDir, overlay.StaticDir)
	mergeString(&c.SiteURL, overlay.SiteURL)
	mergeString(&c.APIOrigin, overlay.APIOrigin)
	mergeString(&c.CachePolicy, overlay.CachePolicy)
	mergeString(&c.LogLevel, overlay.LogLevel)
	mergeString(&c.LogFormat, overlay.LogFormat)
	mergeString(&c.ShutdownTimeout, overlay.ShutdownTimeout)
}

func (c Config) ShutdownTimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(c.ShutdownTimeout)
	return d
}

// SiteHost is the host part of SiteURL, empty when unset.
func (c Config) SiteHost() string {
	parsed, err := url.Parse(c.SiteURL)
	if err != nil {
		return ""
	}
	return parsed.Host
}

func (c *Config) loadEnv() {
	c.ListenAddr = getEnv(EnvListenAddr, c.ListenAddr)
	c.StaticDir = getEnv(EnvStaticDir, c.StaticDir)
	c.SiteURL = getEnv(EnvSiteURL, c.SiteURL)
	c.APIOrigin = getEnv(EnvAPIOrigin, c.APIOrigin)
	c.CachePolicy = getEnv(EnvCachePolicy, c.CachePolicy)
	c.LogLevel = getEnv(EnvLogLevel, c.LogLevel)
	c.LogFormat = getEnv(EnvLogFormat, c.LogFormat)
	c.ShutdownTimeout = getEnv(EnvShutdownTimeout, c.ShutdownTimeout)
}

func (c Config) validate() error {
	var errs []error

	if strings.TrimSpace(c.ListenAddr) == "" {
		errs = append(errs, errors.New("listen_addr is required"))
	}
	if origin, err := url.Parse(c.APIOrigin); err != nil || origin.Host == "" ||
		(origin.Scheme != "http" && origin.Scheme != "https") {
		errs = append(errs, fmt.Errorf("api_origin %q must be an absolute http(s) URL", c.APIOrigin))
	}
	if c.SiteURL != "" {
		if site, err := url.Parse(c.SiteURL); err != nil || site.Host == "" {
			errs = append(errs, fmt.Errorf("site_url %q must be an absolute URL", c.SiteURL))
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "console", "json":
	default:
		errs = append(errs, fmt.Errorf("log_format %q must be console or json", c.LogFormat))
	}
	if d, err := time.ParseDuration(c.ShutdownTimeout); err != nil || d <= 0 {
		errs = append(errs, fmt.Errorf("invalid shutdown_timeout %q", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func loadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

func mergeString(dst *string, value string) {
	if strings.TrimSpace(value) != "" {
		*dst = strings.TrimSpace(value)
	}
}

func getEnv(key string, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}

	return value
}
