package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clickseed/internal/bootstrap"
	"clickseed/internal/config"
	"clickseed/internal/database"
	"clickseed/internal/observability"
	"clickseed/internal/seed"
	"clickseed/internal/server"

	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Insert synthetic clicks, one committed row per interval",
	RunE:  runSeed,
}

// runSeed reports connection and insert failures as an "Error:" line and
// still exits 0; committed rows are left in place.
func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "clickseed",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		return err
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(ctx); err != nil {
			observability.Logger.Warn("tracing shutdown failed", slog.String("error", err.Error()))
		}
	}()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	out := cmd.OutOrStdout()
	if err := seedClicks(ctx, cfg, out); err != nil {
		fmt.Fprintln(out, "Error:", err)
	}
	return nil
}

func seedClicks(ctx context.Context, cfg *config.Config, out io.Writer) error {
	rt, err := bootstrap.InitRuntime(ctx, cfg, bootstrap.Options{
		Migrate: cfg.SeedAutoMigrate,
		Publish: true,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := rt.Close(); err != nil {
			observability.Logger.Warn("closing connections failed", slog.String("error", err.Error()))
		}
	}()

	genOpts, err := bootstrap.GeneratorOptions(cfg)
	if err != nil {
		return err
	}

	var opts []seed.Option
	if rt.Publisher != nil {
		opts = append(opts, seed.WithPublisher(rt.Publisher))
	}

	s := seed.NewSeeder(rt.Repo, seed.NewGenerator(genOpts),
		seed.Options{Rows: cfg.SeedRows, Interval: cfg.SeedInterval}, out, opts...)

	if cfg.StatusAddr != "" {
		srv := server.NewServer(func(ctx context.Context) error {
			return database.Ping(ctx, rt.DB)
		}, s.Progress())
		srv.Start(cfg.StatusAddr)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				observability.Logger.Warn("status server shutdown failed", slog.String("error", err.Error()))
			}
		}()
	}

	_, err = s.Run(ctx)
	return err
}
