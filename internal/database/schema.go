package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schemaStatements create the cache tables. Each statement is idempotent so
// bootstrap can run against an existing schema without error.
//
// The seq column on instruments records insertion order; upserts preserve the
// original seq so re-adding an instrument does not move it in listings.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS general (
		id    TEXT PRIMARY KEY,
		value BYTEA NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS currencies (
		code          TEXT PRIMARY KEY,
		precision     SMALLINT NOT NULL,
		iso4217       INTEGER NOT NULL,
		name          TEXT NOT NULL,
		currency_type TEXT NOT NULL CHECK (currency_type IN ('FIAT', 'CRYPTO'))
	)`,
	`CREATE TABLE IF NOT EXISTS instruments (
		id                  TEXT PRIMARY KEY,
		kind                TEXT NOT NULL CHECK (kind IN (
			'CRYPTO_FUTURE', 'CRYPTO_PERPETUAL', 'CURRENCY_PAIR',
			'EQUITY', 'FUTURES_CONTRACT', 'OPTIONS_CONTRACT')),
		raw_symbol          TEXT NOT NULL,
		base_currency       TEXT REFERENCES currencies(code),
		quote_currency      TEXT REFERENCES currencies(code),
		settlement_currency TEXT REFERENCES currencies(code),
		isin                TEXT,
		asset_class         TEXT,
		underlying          TEXT,
		option_kind         TEXT,
		strike_price        TEXT,
		is_inverse          BOOLEAN,
		activation_ns       BIGINT,
		expiration_ns       BIGINT,
		multiplier          TEXT,
		price_precision     SMALLINT NOT NULL,
		size_precision      SMALLINT NOT NULL,
		price_increment     TEXT NOT NULL,
		size_increment      TEXT NOT NULL,
		maker_fee           TEXT NOT NULL,
		taker_fee           TEXT NOT NULL,
		ts_event            BIGINT NOT NULL,
		ts_init             BIGINT NOT NULL,
		seq                 BIGSERIAL
	)`,
	`CREATE INDEX IF NOT EXISTS instruments_seq_idx ON instruments (seq)`,
}

// teardownStatements drop the cache tables. Administrative use only (test
// setup, controlled resets); never invoked by read/write paths.
var teardownStatements = []string{
	`DROP TABLE IF EXISTS instruments CASCADE`,
	`DROP TABLE IF EXISTS currencies CASCADE`,
	`DROP TABLE IF EXISTS general CASCADE`,
}

// BootstrapSchema creates all cache tables idempotently.
func BootstrapSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("bootstrap schema: %w", Classify("bootstrap", err))
		}
	}
	return nil
}

// TeardownSchema drops all cache tables.
func TeardownSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range teardownStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("teardown schema: %w", Classify("teardown", err))
		}
	}
	return nil
}
