package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/avelar/vidvault/internal/bot"
	discordadapter "github.com/avelar/vidvault/internal/bot/discord"
	slackadapter "github.com/avelar/vidvault/internal/bot/slack"
	"github.com/avelar/vidvault/internal/broadcast"
	"github.com/avelar/vidvault/internal/config"
	"github.com/avelar/vidvault/internal/db"
	"github.com/avelar/vidvault/internal/flow"
	"github.com/avelar/vidvault/internal/health"
	"github.com/avelar/vidvault/internal/policy"
	"github.com/avelar/vidvault/internal/session"
	"github.com/avelar/vidvault/internal/store"
)

func newServeCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Vidvault bot daemon",
		Long:  "Connects the configured chat platforms, serves the library, and runs the broadcast scheduler and health endpoint.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "vidvault.yaml", "path to Vidvault config file")
	return cmd
}

func runServe(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	secrets, err := config.LoadSecrets()
	if err != nil {
		return err
	}

	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	if err := db.AutoMigrate(gormDB); err != nil {
		return err
	}

	st := store.New(gormDB, time.Duration(cfg.Store.OpTimeoutSec)*time.Second)
	sessions := session.NewStore(time.Duration(cfg.Session.IdleTimeoutSec) * time.Second)

	pol, err := policy.New(policy.Opts{
		Store:        st,
		Admins:       cfg.Admins,
		Window:       time.Duration(cfg.Quota.WindowMinutes) * time.Minute,
		MaxDownloads: cfg.Quota.MaxDownloads,
		ExemptAdmins: *cfg.Quota.ExemptAdmins,
	})
	if err != nil {
		return err
	}

	engine, err := flow.New(flow.Opts{
		Store:    st,
		Sessions: sessions,
		Policy:   pol,
	})
	if err != nil {
		return err
	}

	adapters, err := createAdapters(cfg, secrets)
	if err != nil {
		return err
	}

	daemon, err := bot.NewDaemon(bot.DaemonOpts{
		Engine:        engine,
		Sessions:      sessions,
		Adapters:      adapters,
		SweepInterval: time.Duration(cfg.Session.SweepIntervalSec) * time.Second,
		Out:           out,
	})
	if err != nil {
		return err
	}

	scheduler, err := broadcast.New(broadcast.Opts{
		Store:    st,
		Sender:   daemon,
		PollCron: cfg.Broadcast.PollCron,
		Out:      out,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle OS signals for graceful shutdown.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	go scheduler.Run(ctx)

	if cfg.Health.Enabled {
		go func() {
			if err := health.Start(ctx, health.StartOpts{
				Store: st,
				Port:  cfg.Health.Port,
				Out:   out,
			}); err != nil {
				log.Printf("vb: health server: %v", err)
			}
		}()
	}

	return daemon.Run(ctx)
}

// createAdapters builds one adapter per enabled platform.
func createAdapters(cfg *config.Config, secrets *config.Secrets) ([]bot.Adapter, error) {
	var adapters []bot.Adapter

	if cfg.Channels.Discord.Enabled {
		if secrets.DiscordToken == "" {
			return nil, fmt.Errorf("discord enabled but VIDVAULT_DISCORD_TOKEN is not set")
		}
		a, err := discordadapter.New(discordadapter.AdapterOpts{
			BotToken:  secrets.DiscordToken,
			ChannelID: cfg.Channels.Discord.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if cfg.Channels.Slack.Enabled {
		if secrets.SlackBotToken == "" || secrets.SlackAppToken == "" {
			return nil, fmt.Errorf("slack enabled but VIDVAULT_SLACK_BOT_TOKEN/VIDVAULT_SLACK_APP_TOKEN are not set")
		}
		a, err := slackadapter.New(slackadapter.AdapterOpts{
			AppToken:  secrets.SlackAppToken,
			BotToken:  secrets.SlackBotToken,
			ChannelID: cfg.Channels.Slack.ChannelID,
		})
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, a)
	}

	if len(adapters) == 0 {
		return nil, fmt.Errorf("no chat platform enabled in config (enable channels.discord or channels.slack)")
	}
	return adapters, nil
}
