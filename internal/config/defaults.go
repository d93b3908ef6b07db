package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultDBPort         = 5432
	DefaultDBSSLMode      = "prefer"
	DefaultMaxConns       = 10
	DefaultMinConns       = 2
	DefaultConnectTimeout = 5 * time.Second
	DefaultOpTimeout      = 30 * time.Second
	DefaultBatchSize      = 100
	DefaultFlushInterval  = 100 * time.Millisecond
	DefaultBufferSize     = 4096
	DefaultMaxRetries     = 3
)

// ApplyDefaults fills unset fields with default values. Called by the loader
// and by callers that build a Config programmatically.
func (c *Config) ApplyDefaults() {
	applyDBDefaults(&c.Database)

	if c.Writer.BatchSize == 0 {
		c.Writer.BatchSize = DefaultBatchSize
	}
	if c.Writer.FlushInterval == 0 {
		c.Writer.FlushInterval = DefaultFlushInterval
	}
	if c.Writer.BufferSize == 0 {
		c.Writer.BufferSize = DefaultBufferSize
	}
	if c.Writer.MaxRetries == 0 {
		c.Writer.MaxRetries = DefaultMaxRetries
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
	if db.ConnectTimeout == 0 {
		db.ConnectTimeout = DefaultConnectTimeout
	}
	if db.OpTimeout == 0 {
		db.OpTimeout = DefaultOpTimeout
	}
}
