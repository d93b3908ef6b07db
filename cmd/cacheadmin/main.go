// Command cacheadmin runs administrative schema operations against the cache
// database: bootstrap (create tables) and teardown (drop tables). It is
// operational tooling, not part of the engine-facing API.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/rickgao/cachedb/internal/config"
	"github.com/rickgao/cachedb/internal/database"
	"github.com/rickgao/cachedb/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/cachedb.local.yaml", "path to config file")
	drop := flag.Bool("drop", false, "drop all cache tables before creating them")
	dropOnly := flag.Bool("drop-only", false, "drop all cache tables and exit")
	flag.Parse()

	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting cacheadmin",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	logger.Info("connecting to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port,
		"database", cfg.Database.Database,
	)

	pool, err := database.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if *drop || *dropOnly {
		logger.Warn("dropping all cache tables")
		if err := database.TeardownSchema(ctx, pool); err != nil {
			logger.Error("teardown failed", "error", err)
			os.Exit(1)
		}
		logger.Info("cache tables dropped")
		if *dropOnly {
			return
		}
	}

	if err := database.BootstrapSchema(ctx, pool); err != nil {
		logger.Error("bootstrap failed", "error", err)
		os.Exit(1)
	}
	logger.Info("cache schema ready")
}
