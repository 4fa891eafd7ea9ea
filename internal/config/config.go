// Package config provides YAML-based configuration loading for Vidvault.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Vidvault configuration, loaded from vidvault.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Admins    []string        `yaml:"admins"`
	Quota     QuotaConfig     `yaml:"quota"`
	Session   SessionConfig   `yaml:"session"`
	Store     StoreConfig     `yaml:"store"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Health    HealthConfig    `yaml:"health"`
	Broadcast BroadcastConfig `yaml:"broadcast"`
	Seed      SeedConfig      `yaml:"seed"`
}

// DatabaseConfig selects the storage backend: sqlite (default, file on
// disk) or mysql (server deployment).
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // "sqlite" or "mysql"
	Path   string `yaml:"path"`   // sqlite file path
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	Name   string `yaml:"name"`
	User   string `yaml:"user"`
}

// QuotaConfig bounds downloads per user over a sliding window.
// The check is best-effort: near-simultaneous requests may both pass.
type QuotaConfig struct {
	WindowMinutes int   `yaml:"window_minutes"`
	MaxDownloads  int   `yaml:"max_downloads"`
	ExemptAdmins  *bool `yaml:"exempt_admins"` // defaults to true
}

// SessionConfig controls in-memory conversation session lifecycle.
type SessionConfig struct {
	IdleTimeoutSec   int `yaml:"idle_timeout_sec"`
	SweepIntervalSec int `yaml:"sweep_interval_sec"`
}

// StoreConfig bounds persistence operations.
type StoreConfig struct {
	OpTimeoutSec int `yaml:"op_timeout_sec"`
}

// ChannelsConfig toggles the chat platform adapters.
type ChannelsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
	Slack   SlackConfig   `yaml:"slack"`
}

// DiscordConfig holds Discord adapter settings (token comes from env).
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"` // default channel for broadcasts
}

// SlackConfig holds Slack adapter settings (tokens come from env).
type SlackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
}

// HealthConfig configures the keep-alive HTTP endpoint.
type HealthConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// BroadcastConfig configures the scheduled broadcast poller.
// PollCron is a standard 5-field cron expression.
type BroadcastConfig struct {
	PollCron string `yaml:"poll_cron"`
}

// SeedConfig lists categories created at db init.
type SeedConfig struct {
	Categories []string `yaml:"categories"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "vidvault.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Name == "" {
		c.Database.Name = "vidvault"
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Quota.WindowMinutes == 0 {
		c.Quota.WindowMinutes = 24 * 60
	}
	if c.Quota.MaxDownloads == 0 {
		c.Quota.MaxDownloads = 10
	}
	if c.Quota.ExemptAdmins == nil {
		exempt := true
		c.Quota.ExemptAdmins = &exempt
	}
	if c.Session.IdleTimeoutSec == 0 {
		c.Session.IdleTimeoutSec = 600
	}
	if c.Session.SweepIntervalSec == 0 {
		c.Session.SweepIntervalSec = 60
	}
	if c.Store.OpTimeoutSec == 0 {
		c.Store.OpTimeoutSec = 5
	}
	if c.Health.Port == 0 {
		c.Health.Port = 8080
	}
	if c.Broadcast.PollCron == "" {
		c.Broadcast.PollCron = "* * * * *"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "sqlite", "mysql":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (sqlite, mysql)", c.Database.Driver))
	}
	if c.Quota.WindowMinutes < 0 {
		errs = append(errs, "quota.window_minutes must be positive")
	}
	if c.Quota.MaxDownloads < 0 {
		errs = append(errs, "quota.max_downloads must be positive")
	}
	if c.Session.IdleTimeoutSec < 0 {
		errs = append(errs, "session.idle_timeout_sec must be positive")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
