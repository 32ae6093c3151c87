// Package repository provides data access layer implementations for the application.
package repository

import (
	"context"
	"fmt"

	"clickseed/internal/models"
	"clickseed/internal/observability"

	"gorm.io/gorm"
)

// ClickRepository defines interface for click operations
type ClickRepository interface {
	// Insert writes one click in its own transaction and commits it.
	Insert(ctx context.Context, click *models.ClickEvent) error
	Count(ctx context.Context) (int64, error)
	EnsureTable(ctx context.Context) error
	Table() string
}

type clickRepository struct {
	db      *gorm.DB
	table   string
	metrics *observability.DatabaseMetrics
	traces  *observability.TraceLayer
}

// NewClickRepository creates a new ClickRepository writing to table, which
// may be schema qualified (e.g. public.clicks).
func NewClickRepository(db *gorm.DB, table string) ClickRepository {
	return &clickRepository{
		db:      db,
		table:   table,
		metrics: observability.NewDatabaseMetrics(table),
		traces:  observability.NewTraceLayer(nil),
	}
}

func (r *clickRepository) Table() string {
	return r.table
}

func (r *clickRepository) Insert(ctx context.Context, click *models.ClickEvent) (err error) {
	ctx, span := r.traces.TraceRepositoryMethod(ctx, "insert", r.table)
	defer func() { observability.EndSpan(span, err) }()
	defer r.metrics.TrackQuery("insert")()

	err = r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Table(r.table).Create(click).Error
	})
	r.metrics.RecordInsert(err)
	if err != nil {
		return fmt.Errorf("insert click for user %s: %w", click.UserID, err)
	}
	return nil
}

func (r *clickRepository) Count(ctx context.Context) (int64, error) {
	defer r.metrics.TrackQuery("count")()

	var n int64
	if err := r.db.WithContext(ctx).Table(r.table).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count rows in %s: %w", r.table, err)
	}
	return n, nil
}

func (r *clickRepository) EnsureTable(ctx context.Context) error {
	if err := r.db.WithContext(ctx).Table(r.table).AutoMigrate(&models.ClickEvent{}); err != nil {
		return fmt.Errorf("ensure table %s: %w", r.table, err)
	}
	return nil
}
