package database

import (
	"context"
	"errors"
	"os"
	"strings"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/pterm/pterm"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type Config struct {
	Path         string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxLife  time.Duration
}

// SlowQueryLogger routes GORM's query trace through pterm, matching the
// reference tool's observability style: slow queries surface at debug
// level, errors at error level, everything else traces silently.
type SlowQueryLogger struct {
	logger        *pterm.Logger
	slowThreshold time.Duration
	logLevel      logger.LogLevel
}

func NewSlowQueryLogger(ptermLogger *pterm.Logger, slowThreshold time.Duration) *SlowQueryLogger {
	return &SlowQueryLogger{
		logger:        ptermLogger,
		slowThreshold: slowThreshold,
		logLevel:      logger.Warn,
	}
}

func (l *SlowQueryLogger) LogMode(level logger.LogLevel) logger.Interface {
	l.logLevel = level
	return l
}

func (l *SlowQueryLogger) Info(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Info {
		l.logger.Info(msg, l.logger.Args("data", data))
	}
}

func (l *SlowQueryLogger) Warn(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Warn {
		l.logger.Warn(msg, l.logger.Args("data", data))
	}
}

func (l *SlowQueryLogger) Error(ctx context.Context, msg string, data ...interface{}) {
	if l.logLevel >= logger.Error {
		l.logger.Error(msg, l.logger.Args("data", data))
	}
}

func (l *SlowQueryLogger) Trace(ctx context.Context, begin time.Time, fc func() (string, int64), err error) {
	elapsed := time.Since(begin)
	sql, rows := fc()

	if elapsed >= l.slowThreshold {
		l.logger.Debug("SLOW QUERY DETECTED",
			l.logger.Args("duration_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql))
	} else if l.logLevel >= logger.Info {
		l.logger.Trace("Database query",
			l.logger.Args("duration_ms", elapsed.Milliseconds(), "rows", rows, "sql", sql))
	}

	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		errStr := err.Error()
		if strings.Contains(errStr, "UNIQUE constraint failed") {
			return
		}
		l.logger.Error("Database query error",
			l.logger.Args("error", err, "duration_ms", elapsed.Milliseconds(), "sql", sql))
	}
}

// NewConnection opens the relational store with WAL mode, a busy timeout
// tuned to avoid SQLITE_BUSY under the ingestion pipeline's concurrent
// writers, and a bounded connection pool.
func NewConnection(cfg *Config, logger *pterm.Logger) (*gorm.DB, error) {
	dsn := cfg.Path + "?_journal_mode=WAL&_synchronous=NORMAL&_cache_size=64000&_page_size=4096&_busy_timeout=5000&_txlock=immediate"

	_, statErr := os.Stat(cfg.Path)
	if errors.Is(statErr, os.ErrPermission) {
		logger.WithCaller().Fatal("Permission denied to access database file.", logger.Args("error", statErr))
	}

	slowQueryLogger := NewSlowQueryLogger(logger, 100*time.Millisecond)

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		PrepareStmt: true,
		Logger:      slowQueryLogger,
	})
	if err != nil {
		logger.WithCaller().Fatal("Failed to connect to the database.", logger.Args("error", err))
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.WithCaller().Fatal("Failed to get database instance.", logger.Args("error", err))
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLife)

	logger.Debug("Connection pool configured",
		logger.Args("max_open_conns", cfg.MaxOpenConns, "max_idle_conns", cfg.MaxIdleConns))

	if err := RunMigrations(db); err != nil {
		logger.WithCaller().Fatal("Failed to run database migrations.", logger.Args("error", err))
	}

	if err := OptimizeDatabase(db, logger); err != nil {
		logger.Warn("Database optimization had warnings", logger.Args("error", err))
	}

	logger.Info("Database connection established successfully.")
	return db, nil
}
