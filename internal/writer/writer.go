package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rickgao/cachedb/internal/buffer"
	"github.com/rickgao/cachedb/internal/codec"
	"github.com/rickgao/cachedb/internal/database"
)

// ErrClosed is returned by Enqueue after the writer has been stopped.
var ErrClosed = errors.New("cache writer closed")

const (
	upsertGeneralSQL = `
		INSERT INTO general (id, value)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET value = EXCLUDED.value
	`
	upsertCurrencySQL = `
		INSERT INTO currencies (code, precision, iso4217, name, currency_type)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (code) DO UPDATE SET
			precision = EXCLUDED.precision,
			iso4217 = EXCLUDED.iso4217,
			name = EXCLUDED.name,
			currency_type = EXCLUDED.currency_type
	`
	// seq is deliberately left out of the update list so re-adding an
	// instrument keeps its original position in insertion-order listings.
	upsertInstrumentSQL = `
		INSERT INTO instruments (
			id, kind, raw_symbol, base_currency, quote_currency,
			settlement_currency, isin, asset_class, underlying, option_kind,
			strike_price, is_inverse, activation_ns, expiration_ns, multiplier,
			price_precision, size_precision, price_increment, size_increment,
			maker_fee, taker_fee, ts_event, ts_init)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23)
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			raw_symbol = EXCLUDED.raw_symbol,
			base_currency = EXCLUDED.base_currency,
			quote_currency = EXCLUDED.quote_currency,
			settlement_currency = EXCLUDED.settlement_currency,
			isin = EXCLUDED.isin,
			asset_class = EXCLUDED.asset_class,
			underlying = EXCLUDED.underlying,
			option_kind = EXCLUDED.option_kind,
			strike_price = EXCLUDED.strike_price,
			is_inverse = EXCLUDED.is_inverse,
			activation_ns = EXCLUDED.activation_ns,
			expiration_ns = EXCLUDED.expiration_ns,
			multiplier = EXCLUDED.multiplier,
			price_precision = EXCLUDED.price_precision,
			size_precision = EXCLUDED.size_precision,
			price_increment = EXCLUDED.price_increment,
			size_increment = EXCLUDED.size_increment,
			maker_fee = EXCLUDED.maker_fee,
			taker_fee = EXCLUDED.taker_fee,
			ts_event = EXCLUDED.ts_event,
			ts_init = EXCLUDED.ts_init
	`
)

// CacheWriter buffers upsert operations and applies them to the store in
// batches. One consumer goroutine preserves submission order.
type CacheWriter struct {
	cfg    Config
	logger *slog.Logger

	queue *buffer.Queue[Op]

	db *pgxpool.Pool

	batch    []Op
	batchMu  sync.Mutex
	metrics  Metrics
	inflight atomic.Int64

	// flushMu serializes whole flushes. Upserts make order semantic: without
	// it, two batches in flight on different pool connections could commit a
	// later write for the same identity ahead of an earlier one.
	flushMu sync.Mutex

	flushTicker *time.Ticker
	failures    chan FlushFailure

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// flushCtx survives Stop's cancellation so the final flush can still
	// reach the database.
	flushCtx context.Context
}

// NewCacheWriter creates a writer flushing to the given pool.
func NewCacheWriter(cfg Config, db *pgxpool.Pool, logger *slog.Logger) *CacheWriter {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.BatchSize < 1 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = DefaultConfig().FlushInterval
	}
	if cfg.BufferSize < 1 {
		cfg.BufferSize = DefaultConfig().BufferSize
	}
	return &CacheWriter{
		cfg:      cfg,
		logger:   logger,
		queue:    buffer.NewQueue[Op](cfg.BufferSize),
		db:       db,
		batch:    make([]Op, 0, cfg.BatchSize),
		failures: make(chan FlushFailure, 256),
		flushCtx: context.Background(),
	}
}

// Start begins consuming operations and flushing to the database.
func (w *CacheWriter) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushCtx = context.WithoutCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("cache writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Stop gracefully shuts down the writer, flushing everything still queued.
func (w *CacheWriter) Stop(ctx context.Context) error {
	w.logger.Info("stopping cache writer")

	w.queue.Close()
	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("cache writer stopped")
	case <-ctx.Done():
		w.logger.Warn("cache writer stop timed out")
	}

	// Final flush: move any remaining queued ops into the batch and apply.
	if rest := w.queue.Drain(0); len(rest) > 0 {
		w.batchMu.Lock()
		w.batch = append(w.batch, rest...)
		w.batchMu.Unlock()
	}
	w.flush()

	return nil
}

// Enqueue submits an operation. It never blocks on network I/O and returns
// ErrClosed once the writer has been stopped.
func (w *CacheWriter) Enqueue(op Op) error {
	if !w.queue.Push(op) {
		return ErrClosed
	}
	return nil
}

// Failures exposes terminally failed operations. The channel is bounded; if
// no one is consuming it, failures are still logged and counted.
func (w *CacheWriter) Failures() <-chan FlushFailure {
	return w.failures
}

// Drain blocks until every operation enqueued before the call has been
// applied (or terminally dropped). For test and administrative use only; the
// public contract exposes no flush-and-wait primitive.
func (w *CacheWriter) Drain(ctx context.Context) error {
	for {
		w.flush()
		if w.queue.Len() == 0 && w.inflight.Load() == 0 && w.batchLen() == 0 {
			return nil
		}
		select {
		case <-ctx.Done():
			return database.Classify("drain", ctx.Err())
		case <-time.After(5 * time.Millisecond):
		}
	}
}

// Stats returns current metrics.
func (w *CacheWriter) Stats() Metrics {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return w.metrics
}

func (w *CacheWriter) batchLen() int {
	w.batchMu.Lock()
	defer w.batchMu.Unlock()
	return len(w.batch)
}

// consumeLoop reads ops from the queue and accumulates batches.
func (w *CacheWriter) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		default:
			// inflight covers the op from the moment it leaves the queue
			// until it lands in the batch, so Drain never sees it
			// unaccounted.
			w.inflight.Add(1)
			op, ok := w.queue.TryPop()
			if !ok {
				w.inflight.Add(-1)
				select {
				case <-w.ctx.Done():
					return
				case <-time.After(10 * time.Millisecond):
					continue
				}
			}

			w.handleOp(op)
			w.inflight.Add(-1)
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *CacheWriter) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

func (w *CacheWriter) handleOp(op Op) {
	w.batchMu.Lock()
	w.batch = append(w.batch, op)
	shouldFlush := len(w.batch) >= w.cfg.BatchSize
	w.batchMu.Unlock()

	if shouldFlush {
		w.flush()
	}
}

// flush applies the current batch to the database. Flushes are serialized by
// flushMu across the batch swap and the database round trip.
func (w *CacheWriter) flush() {
	w.flushMu.Lock()
	defer w.flushMu.Unlock()

	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}
	batch := w.batch
	w.batch = make([]Op, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	sent, err := w.flushBatch(batch)
	if err != nil {
		// The pipelined batch runs in an implicit transaction and rolled
		// back, so re-running the sent ops sequentially is safe and isolates
		// the failing ones.
		w.logger.Debug("batch flush failed, isolating", "error", err, "count", len(sent))
		w.flushSequential(sent)
		return
	}

	w.batchMu.Lock()
	w.metrics.Inserts += int64(len(sent))
	w.metrics.Flushes++
	w.batchMu.Unlock()

	w.logger.Debug("flushed ops",
		"count", len(sent),
		"duration", time.Since(start),
	)
}

// flushBatch sends all ops as one pgx batch. Unencodable ops are terminal:
// they are reported once here and excluded, so the returned slice holds only
// the ops actually sent and the sequential fallback never re-reports them.
func (w *CacheWriter) flushBatch(ops []Op) ([]Op, error) {
	batch := &pgx.Batch{}
	sent := ops[:0]
	for i := range ops {
		sql, args, err := statementFor(ops[i])
		if err != nil {
			w.reportFailure(ops[i], err)
			continue
		}
		batch.Queue(sql, args...)
		sent = append(sent, ops[i])
	}
	if batch.Len() == 0 {
		return sent, nil
	}

	results := w.db.SendBatch(w.flushCtx, batch)
	defer results.Close()

	for i := 0; i < batch.Len(); i++ {
		if _, err := results.Exec(); err != nil {
			return sent, err
		}
	}
	return sent, nil
}

// flushSequential applies ops one at a time, reporting terminal failures and
// requeuing transient ones in order.
func (w *CacheWriter) flushSequential(ops []Op) {
	w.batchMu.Lock()
	w.metrics.Flushes++
	w.batchMu.Unlock()

	for i := range ops {
		op := ops[i]
		sql, args, err := statementFor(op)
		if err != nil {
			w.reportFailure(op, err)
			continue
		}

		_, execErr := w.db.Exec(w.flushCtx, sql, args...)
		if execErr == nil {
			w.batchMu.Lock()
			w.metrics.Inserts++
			w.batchMu.Unlock()
			continue
		}

		classified := database.Classify("flush", execErr)
		if !database.Retryable(classified) {
			w.reportFailure(op, classified)
			continue
		}

		// Transient failure: the connection is likely gone, so requeue this
		// op and everything behind it for the next flush attempt. Pushing in
		// reverse restores the original order.
		w.requeue(ops[i:], classified)
		return
	}
}

func (w *CacheWriter) requeue(ops []Op, cause error) {
	requeued := 0
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		op.attempts++
		if op.attempts > w.cfg.MaxRetries {
			w.reportFailure(op, fmt.Errorf("retries exhausted: %w", cause))
			continue
		}
		if !w.queue.PushFront(op) {
			w.reportFailure(op, ErrClosed)
			continue
		}
		requeued++
	}

	w.batchMu.Lock()
	w.metrics.Retries += int64(requeued)
	w.batchMu.Unlock()

	w.logger.Warn("flush failed, ops requeued",
		"error", cause,
		"requeued", requeued,
	)
}

func (w *CacheWriter) reportFailure(op Op, err error) {
	w.batchMu.Lock()
	w.metrics.Errors++
	w.batchMu.Unlock()

	w.logger.Error("op failed terminally",
		"op_id", op.ID,
		"identity", op.Identity(),
		"attempts", op.attempts,
		"error", err,
	)

	select {
	case w.failures <- FlushFailure{OpID: op.ID, Identity: op.Identity(), Err: err}:
	default:
		// Channel full; the log line above is the record.
	}
}

// statementFor builds the upsert statement and arguments for an op.
func statementFor(op Op) (string, []any, error) {
	switch op.Kind {
	case OpGeneral:
		return upsertGeneralSQL, []any{op.Key, op.Value}, nil

	case OpCurrency:
		r := codec.EncodeCurrency(op.Currency)
		return upsertCurrencySQL, []any{r.Code, r.Precision, r.ISO4217, r.Name, r.Type}, nil

	case OpInstrument:
		r, err := codec.EncodeInstrument(op.Instrument)
		if err != nil {
			return "", nil, err
		}
		args := []any{
			r.ID, r.Kind, r.RawSymbol, r.BaseCurrency, r.QuoteCurrency,
			r.SettlementCurrency, r.ISIN, r.AssetClass, r.Underlying, r.OptionKind,
			r.StrikePrice, r.IsInverse, r.ActivationNs, r.ExpirationNs, r.Multiplier,
			r.PricePrecision, r.SizePrecision, r.PriceIncrement, r.SizeIncrement,
			r.MakerFee, r.TakerFee, r.TsEvent, r.TsInit,
		}
		return upsertInstrumentSQL, args, nil

	default:
		return "", nil, fmt.Errorf("unknown op kind %d", op.Kind)
	}
}
