package cachedb

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/rickgao/cachedb/internal/model"
)

// Snapshot is the full flushed state of the cache, loaded for an engine warm
// start.
type Snapshot struct {
	General     map[string][]byte
	Currencies  []model.Currency
	Instruments []model.Instrument
}

// Snapshot loads all three stores concurrently and returns a consistent-enough
// view for warm start: each collection reflects flushed state at its own load
// time.
func (c *CacheDatabase) Snapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		general, err := c.Load(gctx)
		if err != nil {
			return err
		}
		snap.General = general
		return nil
	})
	g.Go(func() error {
		currencies, err := c.LoadCurrencies(gctx)
		if err != nil {
			return err
		}
		snap.Currencies = currencies
		return nil
	})
	g.Go(func() error {
		instruments, err := c.LoadInstruments(gctx)
		if err != nil {
			return err
		}
		snap.Instruments = instruments
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &snap, nil
}
