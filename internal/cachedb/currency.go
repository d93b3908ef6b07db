package cachedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/cachedb/internal/codec"
	"github.com/rickgao/cachedb/internal/database"
	"github.com/rickgao/cachedb/internal/model"
	"github.com/rickgao/cachedb/internal/writer"
)

const currencyColumns = `code, precision, iso4217, name, currency_type`

// AddCurrency enqueues an upsert of a currency definition.
func (c *CacheDatabase) AddCurrency(ctx context.Context, currency model.Currency) error {
	if !currency.Valid() {
		return fmt.Errorf("add currency: invalid definition %+v", currency)
	}
	return c.writer.Enqueue(writer.CurrencyOp(currency))
}

// LoadCurrency returns the currency with the given code, or nil when absent.
func (c *CacheDatabase) LoadCurrency(ctx context.Context, code string) (*model.Currency, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	var row codec.CurrencyRow
	err := c.pool.QueryRow(ctx,
		`SELECT `+currencyColumns+` FROM currencies WHERE code = $1`, code,
	).Scan(&row.Code, &row.Precision, &row.ISO4217, &row.Name, &row.Type)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load currency %q: %w", code, database.Classify("load", err))
	}

	currency, err := codec.DecodeCurrency(row)
	if err != nil {
		return nil, err
	}
	return &currency, nil
}

// LoadCurrencies returns all currencies sorted by code. Rows that fail to
// decode are logged and skipped so one skewed row cannot wedge a warm start.
func (c *CacheDatabase) LoadCurrencies(ctx context.Context) ([]model.Currency, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx,
		`SELECT `+currencyColumns+` FROM currencies ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("load currencies: %w", database.Classify("load", err))
	}
	defer rows.Close()

	var currencies []model.Currency
	for rows.Next() {
		var row codec.CurrencyRow
		if err := rows.Scan(&row.Code, &row.Precision, &row.ISO4217, &row.Name, &row.Type); err != nil {
			return nil, fmt.Errorf("load currencies: %w", err)
		}
		currency, err := codec.DecodeCurrency(row)
		if err != nil {
			var decodeErr *codec.DecodeError
			if errors.As(err, &decodeErr) {
				c.logger.Warn("skipping undecodable currency row", "code", row.Code, "error", err)
				continue
			}
			return nil, err
		}
		currencies = append(currencies, currency)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load currencies: %w", database.Classify("load", err))
	}
	return currencies, nil
}
