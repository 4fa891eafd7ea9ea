package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/avelar/vidvault/internal/store"
)

func newCategoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "category",
		Aliases: []string{"cat"},
		Short:   "Manage library categories",
	}

	cmd.AddCommand(newCategoryListCmd())
	cmd.AddCommand(newCategoryAddCmd())
	cmd.AddCommand(newCategoryRemoveCmd())
	return cmd
}

func newCategoryListCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List categories with video counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(configPath)
			if err != nil {
				return err
			}

			counts, err := st.CategoryCounts(context.Background())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(counts) == 0 {
				fmt.Fprintln(out, "No categories.")
				return nil
			}
			fmt.Fprintf(out, "%-20s %s\n", "NAME", "VIDEOS")
			for _, c := range counts {
				fmt.Fprintf(out, "%-20s %d\n", c.Name, c.Count)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "vidvault.yaml", "path to Vidvault config file")
	return cmd
}

func newCategoryAddCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Create a category",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(configPath)
			if err != nil {
				return err
			}

			name := strings.Join(args, " ")
			cat, err := st.CreateCategory(context.Background(), name)
			if err != nil {
				if errors.Is(err, store.ErrConflict) {
					return fmt.Errorf("category %q already exists", name)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %q created\n", cat.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "vidvault.yaml", "path to Vidvault config file")
	return cmd
}

func newCategoryRemoveCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "remove <name>",
		Short: "Delete a category (its videos become uncategorized)",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := openStore(configPath)
			if err != nil {
				return err
			}
			ctx := context.Background()

			name := strings.Join(args, " ")
			cat, err := st.GetCategoryByName(ctx, name)
			if err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return fmt.Errorf("no category named %q", name)
				}
				return err
			}
			if err := st.DeleteCategory(ctx, cat.ID); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Category %q deleted\n", cat.Name)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "vidvault.yaml", "path to Vidvault config file")
	return cmd
}
