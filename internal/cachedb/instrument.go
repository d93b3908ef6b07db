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

const instrumentColumns = `id, kind, raw_symbol, base_currency, quote_currency,
	settlement_currency, isin, asset_class, underlying, option_kind,
	strike_price, is_inverse, activation_ns, expiration_ns, multiplier,
	price_precision, size_precision, price_increment, size_increment,
	maker_fee, taker_fee, ts_event, ts_init`

// AddInstrument enqueues an upsert of an instrument. Required currency codes
// must be syntactically present; their existence is enforced by the store's
// foreign keys at flush time, so an orphan reference surfaces as a
// ConstraintViolation on the failure channel rather than an error here.
func (c *CacheDatabase) AddInstrument(ctx context.Context, inst model.Instrument) error {
	if inst == nil {
		return errors.New("add instrument: nil instrument")
	}
	id := inst.ID()
	if id.Symbol == "" || id.Venue == "" {
		return fmt.Errorf("add instrument: incomplete id %+v", id)
	}
	for _, code := range inst.CurrencyCodes() {
		if code == "" {
			return fmt.Errorf("add instrument %s: missing currency code", id)
		}
	}
	return c.writer.Enqueue(writer.InstrumentOp(inst))
}

// LoadInstrument returns the instrument with the given id, or nil when absent.
func (c *CacheDatabase) LoadInstrument(ctx context.Context, id model.InstrumentID) (model.Instrument, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	row, err := scanInstrument(c.pool.QueryRow(ctx,
		`SELECT `+instrumentColumns+` FROM instruments WHERE id = $1`, id.String()))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load instrument %s: %w", id, database.Classify("load", err))
	}

	return codec.DecodeInstrument(row)
}

// LoadInstruments returns all instruments in insertion order. Rows that fail
// to decode are logged and skipped.
func (c *CacheDatabase) LoadInstruments(ctx context.Context) ([]model.Instrument, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx,
		`SELECT `+instrumentColumns+` FROM instruments ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("load instruments: %w", database.Classify("load", err))
	}
	defer rows.Close()

	var instruments []model.Instrument
	for rows.Next() {
		row, err := scanInstrument(rows)
		if err != nil {
			return nil, fmt.Errorf("load instruments: %w", err)
		}
		inst, err := codec.DecodeInstrument(row)
		if err != nil {
			var decodeErr *codec.DecodeError
			if errors.As(err, &decodeErr) {
				c.logger.Warn("skipping undecodable instrument row", "id", row.ID, "kind", row.Kind, "error", err)
				continue
			}
			return nil, err
		}
		instruments = append(instruments, inst)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load instruments: %w", database.Classify("load", err))
	}
	return instruments, nil
}

func scanInstrument(row pgx.Row) (codec.InstrumentRow, error) {
	var r codec.InstrumentRow
	err := row.Scan(
		&r.ID, &r.Kind, &r.RawSymbol, &r.BaseCurrency, &r.QuoteCurrency,
		&r.SettlementCurrency, &r.ISIN, &r.AssetClass, &r.Underlying, &r.OptionKind,
		&r.StrikePrice, &r.IsInverse, &r.ActivationNs, &r.ExpirationNs, &r.Multiplier,
		&r.PricePrecision, &r.SizePrecision, &r.PriceIncrement, &r.SizeIncrement,
		&r.MakerFee, &r.TakerFee, &r.TsEvent, &r.TsInit,
	)
	return r, err
}
