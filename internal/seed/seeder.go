package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"clickseed/internal/models"
	"clickseed/internal/observability"
	"clickseed/internal/repository"

	"github.com/google/uuid"
)

// ErrNoRows is returned when a run is asked to insert fewer than one row.
var ErrNoRows = errors.New("row count must be positive")

// Publisher receives every committed click. Failures never stop a run.
type Publisher interface {
	Publish(ctx context.Context, runID string, row int, click models.ClickEvent) error
}

// Options configures a seeding run.
type Options struct {
	Rows     int
	Interval time.Duration
}

// DefaultOptions inserts 1000 rows, one per second.
func DefaultOptions() Options {
	return Options{Rows: 1000, Interval: time.Second}
}

// Result summarizes a finished run.
type Result struct {
	RunID      string
	Inserted   int
	FirstClick time.Time
	LastClick  time.Time
	Elapsed    time.Duration
}

// Seeder writes generated clicks one row per transaction, pausing a fixed
// interval after each commit.
type Seeder struct {
	repo      repository.ClickRepository
	gen       *Generator
	opts      Options
	out       io.Writer
	publisher Publisher
	progress  *Progress
	logger    *slog.Logger
	sleep     func(ctx context.Context, d time.Duration) error
	now       func() time.Time
}

// Option customizes a Seeder.
type Option func(*Seeder)

// WithPublisher forwards committed clicks to p.
func WithPublisher(p Publisher) Option {
	return func(s *Seeder) { s.publisher = p }
}

// WithProgress records the run into p.
func WithProgress(p *Progress) Option {
	return func(s *Seeder) { s.progress = p }
}

// WithLogger overrides the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Seeder) { s.logger = l }
}

// WithSleeper overrides the pause between rows.
func WithSleeper(fn func(ctx context.Context, d time.Duration) error) Option {
	return func(s *Seeder) { s.sleep = fn }
}

// NewSeeder creates a Seeder that prints one "Inserted row N" line per
// commit to out.
func NewSeeder(repo repository.ClickRepository, gen *Generator, opts Options, out io.Writer, options ...Option) *Seeder {
	if out == nil {
		out = io.Discard
	}
	s := &Seeder{
		repo:     repo,
		gen:      gen,
		opts:     opts,
		out:      out,
		progress: NewProgress(),
		logger:   observability.Logger,
		sleep:    sleepContext,
		now:      time.Now,
	}
	for _, o := range options {
		o(s)
	}
	return s
}

// Progress returns the tracker the run reports into.
func (s *Seeder) Progress() *Progress {
	return s.progress
}

// Run inserts rows 1..Rows in order. The first failure ends the run; rows
// committed before it stay in place.
func (s *Seeder) Run(ctx context.Context) (res Result, err error) {
	if s.opts.Rows <= 0 {
		return res, ErrNoRows
	}

	res.RunID = uuid.NewString()
	ctx = observability.WithRunID(ctx, res.RunID)
	started := s.now()
	s.progress.start(res.RunID, s.repo.Table(), s.opts.Rows, started)
	observability.SetProgress(0, s.opts.Rows)

	s.logger.InfoContext(ctx, "seeding started",
		slog.String("table", s.repo.Table()),
		slog.Int("rows", s.opts.Rows),
		slog.Duration("interval", s.opts.Interval),
	)

	defer func() {
		res.Elapsed = s.now().Sub(started)
		s.progress.finish(s.now(), err)
		if err != nil {
			s.logger.ErrorContext(ctx, "seeding failed",
				slog.Int("inserted", res.Inserted),
				slog.String("error", err.Error()),
			)
			return
		}
		s.logger.InfoContext(ctx, "seeding completed",
			slog.Int("inserted", res.Inserted),
			slog.Duration("elapsed", res.Elapsed),
		)
	}()

	for i := 1; i <= s.opts.Rows; i++ {
		if err := ctx.Err(); err != nil {
			return res, fmt.Errorf("seeding interrupted before row %d: %w", i, err)
		}

		rowCtx := observability.WithRow(ctx, i)
		click := s.gen.Build(i)

		if err := s.repo.Insert(rowCtx, &click); err != nil {
			return res, fmt.Errorf("row %d: %w", i, err)
		}

		if res.Inserted == 0 {
			res.FirstClick = click.ClickTS
		}
		res.Inserted++
		res.LastClick = click.ClickTS
		s.progress.record(click.UserID, click.ClickTS)
		observability.SetProgress(res.Inserted, s.opts.Rows)

		fmt.Fprintf(s.out, "Inserted row %d\n", i)
		s.logger.DebugContext(rowCtx, "row committed",
			slog.String("user_id", click.UserID),
			slog.Time("click_ts", click.ClickTS),
			slog.Float64("ad_cost", click.AdCost),
			slog.Bool("is_conversion", click.IsConversion),
		)

		if s.publisher != nil {
			if perr := s.publisher.Publish(rowCtx, res.RunID, i, click); perr != nil {
				observability.PublishErrors.Inc()
				s.logger.WarnContext(rowCtx, "publish failed", slog.String("error", perr.Error()))
			}
		}

		if err := s.sleep(ctx, s.opts.Interval); err != nil {
			return res, fmt.Errorf("seeding interrupted after row %d: %w", i, err)
		}
	}

	return res, nil
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
