package cachedb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/rickgao/cachedb/internal/database"
	"github.com/rickgao/cachedb/internal/writer"
)

// Add enqueues an upsert of a generic key/value object. Last write wins.
func (c *CacheDatabase) Add(ctx context.Context, id string, value []byte) error {
	if id == "" {
		return errors.New("add: id is required")
	}
	return c.writer.Enqueue(writer.GeneralOp(id, value))
}

// Load returns all generic objects currently flushed, keyed by id.
func (c *CacheDatabase) Load(ctx context.Context) (map[string][]byte, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	rows, err := c.pool.Query(ctx, `SELECT id, value FROM general`)
	if err != nil {
		return nil, fmt.Errorf("load general: %w", database.Classify("load", err))
	}
	defer rows.Close()

	objects := make(map[string][]byte)
	for rows.Next() {
		var id string
		var value []byte
		if err := rows.Scan(&id, &value); err != nil {
			return nil, fmt.Errorf("load general: %w", err)
		}
		objects[id] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load general: %w", database.Classify("load", err))
	}
	return objects, nil
}

// LoadOne returns a single generic object, or nil when absent.
func (c *CacheDatabase) LoadOne(ctx context.Context, id string) ([]byte, error) {
	ctx, cancel := c.opCtx(ctx)
	defer cancel()

	var value []byte
	err := c.pool.QueryRow(ctx, `SELECT value FROM general WHERE id = $1`, id).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load general %q: %w", id, database.Classify("load", err))
	}
	return value, nil
}
