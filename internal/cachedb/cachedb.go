package cachedb

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/cachedb/internal/config"
	"github.com/rickgao/cachedb/internal/database"
	"github.com/rickgao/cachedb/internal/writer"
)

// CacheDatabase is the persistent cache layer: a Postgres-backed store for
// generic objects, currencies, and instruments, with buffered asynchronous
// writes and direct reads.
type CacheDatabase struct {
	pool      *pgxpool.Pool
	writer    *writer.CacheWriter
	logger    *slog.Logger
	opTimeout time.Duration
}

// Connect establishes the connection pool and starts the cache writer.
func Connect(ctx context.Context, opts Options, options ...Option) (*CacheDatabase, error) {
	if err := opts.validate(); err != nil {
		return nil, fmt.Errorf("connect options: %w", err)
	}

	s := settings{}
	for _, opt := range options {
		opt(&s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	cfg := config.Config{
		Database: config.DBConfig{
			Host:     opts.Host,
			Port:     opts.Port,
			Database: opts.Database,
			User:     opts.Username,
			Password: opts.Password,
			SSLMode:  s.sslMode,
			MaxConns: s.maxConns,
			MinConns: s.minConns,
		},
		Writer: s.writerCfg,
	}
	cfg.ApplyDefaults()
	if s.opTimeout > 0 {
		cfg.Database.OpTimeout = s.opTimeout
	}

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		return nil, err
	}

	w := writer.NewCacheWriter(writer.Config{
		BatchSize:     cfg.Writer.BatchSize,
		FlushInterval: cfg.Writer.FlushInterval,
		BufferSize:    cfg.Writer.BufferSize,
		MaxRetries:    cfg.Writer.MaxRetries,
	}, pool, s.logger)

	// The writer's lifetime is governed by Close, not by the connect
	// context, which may carry a short connect deadline.
	if err := w.Start(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("start cache writer: %w", err)
	}

	s.logger.Info("cache database connected",
		"host", opts.Host,
		"port", opts.Port,
		"database", opts.Database,
	)

	return &CacheDatabase{
		pool:      pool,
		writer:    w,
		logger:    s.logger,
		opTimeout: cfg.Database.OpTimeout,
	}, nil
}

// BootstrapSchema creates all cache tables idempotently. Administrative.
func (c *CacheDatabase) BootstrapSchema(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	return database.BootstrapSchema(ctx, c.pool)
}

// TeardownSchema drops all cache tables. Administrative; never invoked by the
// read/write paths.
func (c *CacheDatabase) TeardownSchema(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	return database.TeardownSchema(ctx, c.pool)
}

// Drain blocks until all buffered writes are flushed. Test and administrative
// use only; production callers rely on the background flush policy.
func (c *CacheDatabase) Drain(ctx context.Context) error {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()
	return c.writer.Drain(ctx)
}

// Failures exposes terminally failed buffered writes.
func (c *CacheDatabase) Failures() <-chan writer.FlushFailure {
	return c.writer.Failures()
}

// WriterStats returns flush metrics.
func (c *CacheDatabase) WriterStats() writer.Metrics {
	return c.writer.Stats()
}

// Close stops the writer (flushing what remains) and closes the pool.
func (c *CacheDatabase) Close() {
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := c.writer.Stop(stopCtx); err != nil {
		c.logger.Warn("cache writer stop failed", "error", err)
	}
	c.pool.Close()
	c.logger.Info("cache database closed")
}

// opCtx applies the configured per-operation deadline.
func (c *CacheDatabase) opCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.opTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, c.opTimeout)
}
