package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/avelar/vidvault/internal/config"
	"github.com/avelar/vidvault/internal/db"
	"github.com/avelar/vidvault/internal/store"
)

// openStore is shared by the read-only CLI commands.
func openStore(configPath string) (*store.Store, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	gormDB, err := db.Connect(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return store.New(gormDB, time.Duration(cfg.Store.OpTimeoutSec)*time.Second), nil
}

func newStatsCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show library and usage statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "vidvault.yaml", "path to Vidvault config file")
	return cmd
}

func runStats(cmd *cobra.Command, configPath string) error {
	out := cmd.OutOrStdout()
	ctx := context.Background()

	st, err := openStore(configPath)
	if err != nil {
		return err
	}

	videos, err := st.CountVideos(ctx)
	if err != nil {
		return err
	}
	users, err := st.CountUsers(ctx)
	if err != nil {
		return err
	}
	totals, err := st.EventTotals(ctx)
	if err != nil {
		return err
	}
	popular, err := st.PopularVideos(ctx, 5)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Videos: %d\n", videos)
	fmt.Fprintf(out, "Users:  %d\n", users)

	if len(totals) > 0 {
		fmt.Fprintln(out, "\nEvents:")
		for _, t := range totals {
			fmt.Fprintf(out, "  %-10s %d\n", t.Kind, t.Count)
		}
	}
	if len(popular) > 0 {
		fmt.Fprintln(out, "\nMost viewed:")
		for _, p := range popular {
			fmt.Fprintf(out, "  #%-4d %-40s %d views\n", p.VideoID, p.Title, p.Views)
		}
	}
	return nil
}
