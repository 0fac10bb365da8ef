// Package config loads sub5.toml. Every key is optional; a missing file
// yields the defaults.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"time"

	"github.com/BurntSushi/toml"
)

const DefaultPath = "sub5.toml"

// Config is the whole configuration file.
type Config struct {
	Dashboard Dashboard `toml:"dashboard"`
	Server    Server    `toml:"server"`
}

// Dashboard configures the terminal client.
type Dashboard struct {
	BaseURL         string        `toml:"base_url"`
	RefreshInterval time.Duration `toml:"refresh_interval"`
	SyncReloadDelay time.Duration `toml:"sync_reload_delay"`
	NotificationTTL time.Duration `toml:"notification_ttl"`
	Locale          string        `toml:"locale"`
	RequestTimeout  time.Duration `toml:"request_timeout"`
	Retries         int           `toml:"retries"`
	LogFile         string        `toml:"log_file"`
	ActivitiesLimit int           `toml:"activities_limit"`
	OverviewLimit   int           `toml:"overview_limit"`
}

// Server configures the backend.
type Server struct {
	Listen               string        `toml:"listen"`
	DBPath               string        `toml:"db_path"`
	SyncInterval         time.Duration `toml:"sync_interval"`
	TokenRefreshInterval time.Duration `toml:"token_refresh_interval"`
	DaysToSync           int           `toml:"days_to_sync"`
	NoSync               bool          `toml:"no_sync"`
	MCPPort              int           `toml:"mcp_port"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Dashboard: Dashboard{
			BaseURL:         "http://localhost:5000",
			RefreshInterval: 5 * time.Minute,
			SyncReloadDelay: 5 * time.Second,
			NotificationTTL: 5 * time.Second,
			Locale:          "ru",
			RequestTimeout:  15 * time.Second,
			LogFile:         "sub5.log",
			ActivitiesLimit: 100,
			OverviewLimit:   50,
		},
		Server: Server{
			Listen:               ":5000",
			DBPath:               "training_data.db",
			SyncInterval:         time.Hour,
			TokenRefreshInterval: 30 * time.Minute,
			DaysToSync:           14,
		},
	}
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("reading config %s: unknown key %q", path, undecoded[0].String())
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("reading config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate rejects values the dashboard or server cannot run with.
func (c Config) Validate() error {
	d := c.Dashboard
	u, err := url.Parse(d.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("dashboard.base_url %q is not an http(s) url", d.BaseURL)
	}
	if d.RefreshInterval <= 0 {
		return errors.New("dashboard.refresh_interval must be positive")
	}
	if d.SyncReloadDelay < 0 || d.NotificationTTL <= 0 {
		return errors.New("dashboard.sync_reload_delay and notification_ttl must not be negative")
	}
	if d.Retries < 0 {
		return errors.New("dashboard.retries must not be negative")
	}
	if d.ActivitiesLimit <= 0 || d.OverviewLimit <= 0 {
		return errors.New("dashboard activity limits must be positive")
	}

	s := c.Server
	if s.DaysToSync <= 0 {
		return errors.New("server.days_to_sync must be positive")
	}
	if s.SyncInterval <= 0 || s.TokenRefreshInterval <= 0 {
		return errors.New("server intervals must be positive")
	}
	return nil
}
