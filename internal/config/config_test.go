package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}
	return path
}

func TestLoad(t *testing.T) {
	yaml := `
database:
  host: localhost
  port: 5432
  database: trading_cache
  user: cache
  password: pass
writer:
  batch_size: 50
  flush_interval: 250ms
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Host != "localhost" {
		t.Errorf("Database.Host = %q, want %q", cfg.Database.Host, "localhost")
	}
	if cfg.Database.Database != "trading_cache" {
		t.Errorf("Database.Database = %q, want %q", cfg.Database.Database, "trading_cache")
	}
	if cfg.Writer.BatchSize != 50 {
		t.Errorf("Writer.BatchSize = %d, want 50", cfg.Writer.BatchSize)
	}
	if cfg.Writer.FlushInterval != 250*time.Millisecond {
		t.Errorf("Writer.FlushInterval = %v, want 250ms", cfg.Writer.FlushInterval)
	}
}

func TestLoadWithEnvSubstitution(t *testing.T) {
	t.Setenv("TEST_CACHE_DB_PASSWORD", "secret123")

	yaml := `
database:
  host: localhost
  database: trading_cache
  user: cache
  password: ${TEST_CACHE_DB_PASSWORD}
`
	path := writeTempFile(t, yaml)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Database.Password != "secret123" {
		t.Errorf("Database.Password = %q, want %q", cfg.Database.Password, "secret123")
	}
}

func TestLoadWithDefaults(t *testing.T) {
	yaml := `
database:
  host: localhost
  database: trading_cache
  user: cache
  password: pass
`
	path := writeTempFile(t, yaml)

	cfg, err := LoadWithDefaults(path)
	if err != nil {
		t.Fatalf("LoadWithDefaults failed: %v", err)
	}

	if cfg.Database.Port != DefaultDBPort {
		t.Errorf("Database.Port = %d, want %d", cfg.Database.Port, DefaultDBPort)
	}
	if cfg.Database.SSLMode != DefaultDBSSLMode {
		t.Errorf("Database.SSLMode = %q, want %q", cfg.Database.SSLMode, DefaultDBSSLMode)
	}
	if cfg.Database.OpTimeout != DefaultOpTimeout {
		t.Errorf("Database.OpTimeout = %v, want %v", cfg.Database.OpTimeout, DefaultOpTimeout)
	}
	if cfg.Writer.BatchSize != DefaultBatchSize {
		t.Errorf("Writer.BatchSize = %d, want %d", cfg.Writer.BatchSize, DefaultBatchSize)
	}
	if cfg.Writer.FlushInterval != DefaultFlushInterval {
		t.Errorf("Writer.FlushInterval = %v, want %v", cfg.Writer.FlushInterval, DefaultFlushInterval)
	}
	if cfg.Writer.MaxRetries != DefaultMaxRetries {
		t.Errorf("Writer.MaxRetries = %d, want %d", cfg.Writer.MaxRetries, DefaultMaxRetries)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := &Config{}
		cfg.Database.Host = "localhost"
		cfg.Database.Database = "trading_cache"
		cfg.Database.User = "cache"
		cfg.Database.Password = "pass"
		cfg.ApplyDefaults()
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid", func(*Config) {}, false},
		{"missing host", func(c *Config) { c.Database.Host = "" }, true},
		{"missing database", func(c *Config) { c.Database.Database = "" }, true},
		{"missing user", func(c *Config) { c.Database.User = "" }, true},
		{"missing password", func(c *Config) { c.Database.Password = "" }, true},
		{"bad port", func(c *Config) { c.Database.Port = 70000 }, true},
		{"min conns above max", func(c *Config) { c.Database.MinConns = 20 }, true},
		{"zero batch size", func(c *Config) { c.Writer.BatchSize = 0 }, true},
		{"negative flush interval", func(c *Config) { c.Writer.FlushInterval = -time.Second }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
