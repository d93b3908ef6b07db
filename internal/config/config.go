package config

import "time"

// Config is the root configuration for the cache database.
type Config struct {
	Database DBConfig     `yaml:"database"`
	Writer   WriterConfig `yaml:"writer"`
}

// DBConfig holds the PostgreSQL connection settings.
type DBConfig struct {
	Host           string        `yaml:"host"`
	Port           int           `yaml:"port"`
	Database       string        `yaml:"database"`
	User           string        `yaml:"user"`
	Password       string        `yaml:"password"`
	SSLMode        string        `yaml:"ssl_mode"`
	MaxConns       int           `yaml:"max_conns"`
	MinConns       int           `yaml:"min_conns"`
	ConnectTimeout time.Duration `yaml:"connect_timeout"`

	// OpTimeout is the default deadline applied to each store operation
	// (point lookup, collection load, flush execution).
	OpTimeout time.Duration `yaml:"op_timeout"`
}

// WriterConfig holds the write buffer and flush policy settings. Writes become
// visible to reads only after a flush, so BatchSize and FlushInterval bound
// the visibility delay.
type WriterConfig struct {
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	BufferSize    int           `yaml:"buffer_size"`
	MaxRetries    int           `yaml:"max_retries"`
}
