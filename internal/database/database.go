// Package database handles the seeder's database connection.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"clickseed/internal/config"
	"clickseed/internal/observability"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const connectTimeout = 5 * time.Second

// slowStatement is the duration above which a statement is logged as slow.
const slowStatement = 200 * time.Millisecond

// SQLLogger routes GORM output into slog. Individual statements are logged at
// debug level, so LOG_LEVEL=debug shows every INSERT the seeder commits.
type SQLLogger struct {
	logger *slog.Logger
	level  logger.LogLevel
	slow   time.Duration
}

// NewSQLLogger derives the GORM level from what l lets through: a debug
// logger gets every statement, anything quieter gets failures and slow
// statements only.
func NewSQLLogger(l *slog.Logger, slow time.Duration) *SQLLogger {
	level := logger.Warn
	if l.Enabled(context.Background(), slog.LevelDebug) {
		level = logger.Info
	}
	return &SQLLogger{logger: l, level: level, slow: slow}
}

// LogMode returns a copy of the logger at level.
func (l *SQLLogger) LogMode(level logger.LogLevel) logger.Interface {
	c := *l
	c.level = level
	return &c
}

// Info logs a GORM notice at debug level.
func (l *SQLLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Info, slog.LevelDebug, msg, data)
}

// Warn logs a GORM warning.
func (l *SQLLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Warn, slog.LevelWarn, msg, data)
}

// Error logs a GORM error that is not tied to a single statement.
func (l *SQLLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	l.logf(ctx, logger.Error, slog.LevelError, msg, data)
}

func (l *SQLLogger) logf(ctx context.Context, threshold logger.LogLevel, level slog.Level, msg string, data []interface{}) {
	if l.level >= threshold {
		l.logger.Log(ctx, level, fmt.Sprintf(msg, data...))
	}
}

// Trace logs one executed statement. Failures win over slowness, and
// gorm.ErrRecordNotFound is not a failure.
func (l *SQLLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	if l.level <= logger.Silent {
		return
	}

	elapsed := time.Since(begin)
	failed := err != nil && !errors.Is(err, gorm.ErrRecordNotFound)
	slow := l.slow > 0 && elapsed > l.slow

	var level slog.Level
	var msg string
	switch {
	case failed && l.level >= logger.Error:
		level, msg = slog.LevelError, "sql statement failed"
	case slow && l.level >= logger.Warn:
		level, msg = slog.LevelWarn, "slow sql statement"
	case !failed && l.level >= logger.Info:
		level, msg = slog.LevelDebug, "sql statement"
	default:
		return
	}

	stmt, rows := fc()
	attrs := []slog.Attr{
		slog.String("sql", stmt),
		slog.Int64("rows_affected", rows),
		slog.Duration("elapsed", elapsed),
	}
	if failed {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	l.logger.LogAttrs(ctx, level, msg, attrs...)
}

// Connect parses the configured DSN with pgx, opens a single-connection
// pool through pgx's database/sql adapter and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	connConfig, err := pgx.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("invalid database connection string: %w", err)
	}

	sqlDB := stdlib.OpenDB(*connConfig)
	configurePool(sqlDB)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to connect to database %s@%s:%d/%s: %w",
			connConfig.User, connConfig.Host, connConfig.Port, connConfig.Database, err)
	}

	db, err := Open(postgres.New(postgres.Config{Conn: sqlDB}))
	if err != nil {
		_ = sqlDB.Close()
		return nil, err
	}

	observability.Logger.InfoContext(ctx, "Database connected successfully",
		slog.String("host", connConfig.Host),
		slog.Int("port", int(connConfig.Port)),
		slog.String("database", connConfig.Database),
	)
	return db, nil
}

// Open wraps a dialector in a gorm DB that logs through slog.
func Open(dialector gorm.Dialector) (*gorm.DB, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:               NewSQLLogger(observability.Logger, slowStatement),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// configurePool pins the pool to one connection so a run holds exactly one
// session for its whole lifetime.
func configurePool(sqlDB *sql.DB) {
	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxLifetime(0)
}

// Close releases the connection behind db.
func Close(db *gorm.DB) error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping verifies the connection behind db is usable.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
