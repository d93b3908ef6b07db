package cachedb

import (
	"errors"
	"log/slog"
	"time"

	"github.com/rickgao/cachedb/internal/config"
)

// Options are the connection settings recognized by Connect. All fields are
// required.
type Options struct {
	Host     string
	Port     int
	Username string
	Password string
	Database string
}

func (o Options) validate() error {
	if o.Host == "" {
		return errors.New("host is required")
	}
	if o.Port < 1 || o.Port > 65535 {
		return errors.New("port must be between 1 and 65535")
	}
	if o.Username == "" {
		return errors.New("username is required")
	}
	if o.Password == "" {
		return errors.New("password is required")
	}
	if o.Database == "" {
		return errors.New("database is required")
	}
	return nil
}

type settings struct {
	logger    *slog.Logger
	sslMode   string
	writerCfg config.WriterConfig
	opTimeout time.Duration
	maxConns  int
	minConns  int
}

// Option customizes a CacheDatabase beyond the required connection options.
type Option func(*settings)

// WithLogger sets the logger for the facade and the cache writer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithSSLMode overrides the sslmode connection parameter (default "prefer").
func WithSSLMode(mode string) Option {
	return func(s *settings) { s.sslMode = mode }
}

// WithWriterConfig tunes the flush policy (batch size, flush interval, buffer
// size, retry cap) and therefore the write-visibility delay.
func WithWriterConfig(cfg config.WriterConfig) Option {
	return func(s *settings) { s.writerCfg = cfg }
}

// WithOpTimeout sets the per-operation deadline applied to reads and drains.
func WithOpTimeout(d time.Duration) Option {
	return func(s *settings) { s.opTimeout = d }
}

// WithPoolLimits sets the connection pool bounds.
func WithPoolLimits(minConns, maxConns int) Option {
	return func(s *settings) {
		s.minConns = minConns
		s.maxConns = maxConns
	}
}
