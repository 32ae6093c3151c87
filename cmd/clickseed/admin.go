package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"clickseed/internal/bootstrap"
	"clickseed/internal/cache"
	"clickseed/internal/notifications"

	"github.com/spf13/cobra"
)

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Print the number of rows in the target table",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := bootstrap.InitRuntime(cmd.Context(), cfg, bootstrap.Options{})
		if err != nil {
			return err
		}
		defer rt.Close()

		n, err := rt.Repo.Count(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %d rows\n", rt.Repo.Table(), n)
		return nil
	},
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the target table if it does not exist",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		rt, err := bootstrap.InitRuntime(cmd.Context(), cfg, bootstrap.Options{Migrate: true})
		if err != nil {
			return err
		}
		defer rt.Close()

		fmt.Fprintf(cmd.OutOrStdout(), "Table %s ready\n", rt.Repo.Table())
		return nil
	},
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Print clicks published by a running seeder (requires REDIS_URL)",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required to watch the click feed")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rdb.Close()

		out := cmd.OutOrStdout()
		pub := notifications.NewClickPublisher(rdb, cfg.SeedPublishChannel)
		err = pub.Subscribe(ctx, func(m notifications.ClickMessage) {
			fmt.Fprintf(out, "row %d user %s cost %.2f conversion %t at %s\n",
				m.Row, m.UserID, m.AdCost, m.IsConversion, m.ClickTS.Format("2006-01-02 15:04:05Z07:00"))
		})
		if err != nil {
			return err
		}

		<-ctx.Done()
		return nil
	},
}
