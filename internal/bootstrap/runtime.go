// Package bootstrap wires configuration into live connections for the CLI.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"clickseed/internal/cache"
	"clickseed/internal/config"
	"clickseed/internal/database"
	"clickseed/internal/notifications"
	"clickseed/internal/observability"
	"clickseed/internal/repository"
	"clickseed/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// Migrate creates the target table when it does not exist.
	Migrate bool
	// Publish connects to Redis when REDIS_URL is set.
	Publish bool
}

// Runtime holds the connections a command works with.
type Runtime struct {
	DB        *gorm.DB
	Repo      repository.ClickRepository
	Redis     *redis.Client
	Publisher *notifications.ClickPublisher
}

// InitRuntime connects to the database and, optionally, Redis.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*Runtime, error) {
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}

	rt := &Runtime{
		DB:   db,
		Repo: repository.NewClickRepository(db, cfg.SeedTable),
	}

	if opts.Migrate {
		if err := rt.Repo.EnsureTable(ctx); err != nil {
			_ = rt.Close()
			return nil, err
		}
	}

	if opts.Publish && cfg.RedisURL != "" {
		rdb, err := cache.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			// The live feed is optional; seeding goes ahead without it.
			observability.Logger.WarnContext(ctx, "Redis unavailable, click feed disabled", slog.String("error", err.Error()))
		} else {
			rt.Redis = rdb
			rt.Publisher = notifications.NewClickPublisher(rdb, cfg.SeedPublishChannel)
		}
	}

	return rt, nil
}

// GeneratorOptions maps configuration onto click generation settings.
func GeneratorOptions(cfg *config.Config) (seed.GeneratorOptions, error) {
	base, err := cfg.BaseTime()
	if err != nil {
		return seed.GeneratorOptions{}, err
	}
	return seed.GeneratorOptions{
		BaseTime:       base,
		Step:           cfg.SeedStep,
		CostMin:        cfg.SeedCostMin,
		CostMax:        cfg.SeedCostMax,
		ConversionRate: cfg.SeedConversionRate,
		UserIDWidth:    cfg.SeedUserIDWidth,
		RandomSeed:     cfg.SeedRandomSeed,
	}, nil
}

// Close releases every connection the runtime holds.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Redis != nil {
		if err := rt.Redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if err := database.Close(rt.DB); err != nil {
		errs = append(errs, fmt.Errorf("close database: %w", err))
	}
	return errors.Join(errs...)
}
