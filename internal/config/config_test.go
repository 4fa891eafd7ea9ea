package config

import (
	"strings"
	"testing"
)

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte("admins:\n  - \"100\"\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Database.Driver != "sqlite" {
		t.Errorf("expected sqlite default, got %q", cfg.Database.Driver)
	}
	if cfg.Database.Path != "vidvault.db" {
		t.Errorf("expected default db path, got %q", cfg.Database.Path)
	}
	if cfg.Quota.WindowMinutes != 24*60 || cfg.Quota.MaxDownloads != 10 {
		t.Errorf("unexpected quota defaults: %+v", cfg.Quota)
	}
	if cfg.Quota.ExemptAdmins == nil || !*cfg.Quota.ExemptAdmins {
		t.Errorf("admins should be quota-exempt by default")
	}
	if cfg.Session.IdleTimeoutSec != 600 || cfg.Session.SweepIntervalSec != 60 {
		t.Errorf("unexpected session defaults: %+v", cfg.Session)
	}
	if cfg.Store.OpTimeoutSec != 5 {
		t.Errorf("unexpected store default: %+v", cfg.Store)
	}
	if cfg.Health.Port != 8080 {
		t.Errorf("unexpected health port default: %d", cfg.Health.Port)
	}
	if cfg.Broadcast.PollCron != "* * * * *" {
		t.Errorf("unexpected poll cron default: %q", cfg.Broadcast.PollCron)
	}
}

func TestParse_FullConfig(t *testing.T) {
	raw := `
database:
  driver: mysql
  host: db.example.com
  port: 3307
  name: vids
  user: vidvault
admins:
  - "100"
  - "200"
quota:
  window_minutes: 60
  max_downloads: 3
  exempt_admins: false
channels:
  discord:
    enabled: true
    channel_id: "c-123"
  slack:
    enabled: true
health:
  enabled: true
  port: 9090
seed:
  categories: [Music, Gaming]
`
	cfg, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	if cfg.Database.Driver != "mysql" || cfg.Database.Host != "db.example.com" || cfg.Database.Port != 3307 {
		t.Errorf("unexpected database config: %+v", cfg.Database)
	}
	if cfg.Quota.ExemptAdmins == nil || *cfg.Quota.ExemptAdmins || cfg.Quota.MaxDownloads != 3 {
		t.Errorf("explicit exempt_admins: false must survive defaults: %+v", cfg.Quota)
	}
	if !cfg.Channels.Discord.Enabled || cfg.Channels.Discord.ChannelID != "c-123" {
		t.Errorf("unexpected discord config: %+v", cfg.Channels.Discord)
	}
	if !cfg.Health.Enabled || cfg.Health.Port != 9090 {
		t.Errorf("unexpected health config: %+v", cfg.Health)
	}
	if len(cfg.Seed.Categories) != 2 {
		t.Errorf("unexpected seed config: %+v", cfg.Seed)
	}
}

func TestParse_BadDriver(t *testing.T) {
	_, err := Parse([]byte("database:\n  driver: postgres\n"))
	if err == nil || !strings.Contains(err.Error(), "database.driver") {
		t.Fatalf("expected driver validation error, got %v", err)
	}
}

func TestParse_BadYAML(t *testing.T) {
	if _, err := Parse([]byte("database: [not a map")); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestLoadSecrets(t *testing.T) {
	t.Setenv("VIDVAULT_DISCORD_TOKEN", "tok-discord")
	t.Setenv("VIDVAULT_SLACK_BOT_TOKEN", "xoxb-1")
	t.Setenv("VIDVAULT_SLACK_APP_TOKEN", "xapp-1")

	s, err := LoadSecrets()
	if err != nil {
		t.Fatalf("load secrets: %v", err)
	}
	if s.DiscordToken != "tok-discord" || s.SlackBotToken != "xoxb-1" || s.SlackAppToken != "xapp-1" {
		t.Errorf("unexpected secrets: %+v", s)
	}
}
