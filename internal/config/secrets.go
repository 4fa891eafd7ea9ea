package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Secrets holds credentials loaded from the environment. Tokens never
// appear in the YAML config file.
type Secrets struct {
	DiscordToken  string `env:"VIDVAULT_DISCORD_TOKEN"`
	SlackBotToken string `env:"VIDVAULT_SLACK_BOT_TOKEN"`
	SlackAppToken string `env:"VIDVAULT_SLACK_APP_TOKEN"`
}

// LoadSecrets reads credentials from the process environment.
func LoadSecrets() (*Secrets, error) {
	var s Secrets
	if err := env.Parse(&s); err != nil {
		return nil, fmt.Errorf("config: load secrets: %w", err)
	}
	return &s, nil
}
