package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrTimeout indicates an operation exceeded its deadline. The caller may
// retry; buffered writes are not dropped when a read or drain times out.
var ErrTimeout = errors.New("operation timed out")

// ConnectionError indicates the backing store could not be reached or refused
// the session: unreachable host, authentication failure, or unknown database.
// Not retried internally.
type ConnectionError struct {
	Op  string // e.g., "connect", "ping", "flush"
	Err error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection error during %s: %v", e.Op, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// ConstraintViolation indicates the store rejected a write: an orphan foreign
// key (instrument referencing an unknown currency) or a duplicate primary key
// outside the upsert path. It signals a caller ordering bug and is never
// retried.
type ConstraintViolation struct {
	Table      string
	Constraint string
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation on %s (%s): %v", e.Table, e.Constraint, e.Err)
}

func (e *ConstraintViolation) Unwrap() error { return e.Err }

// SQLSTATE classes used by Classify.
const (
	pgForeignKeyViolation = "23503"
	pgUniqueViolation     = "23505"
	pgCheckViolation      = "23514"
	pgInvalidPassword     = "28P01"
	pgInvalidAuthSpec     = "28000"
	pgInvalidCatalogName  = "3D000" // unknown database
)

// Classify maps a pgx/network/context error into the cache error taxonomy.
// Errors outside the taxonomy pass through unchanged.
func Classify(op string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch {
		case pgErr.Code == pgForeignKeyViolation,
			pgErr.Code == pgUniqueViolation,
			pgErr.Code == pgCheckViolation:
			return &ConstraintViolation{
				Table:      pgErr.TableName,
				Constraint: pgErr.ConstraintName,
				Err:        err,
			}
		case pgErr.Code == pgInvalidPassword,
			pgErr.Code == pgInvalidAuthSpec,
			pgErr.Code == pgInvalidCatalogName,
			strings.HasPrefix(pgErr.Code, "08"): // connection exception class
			return &ConnectionError{Op: op, Err: err}
		}
	}

	if pgconn.Timeout(err) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}

	return err
}

// Retryable reports whether a flush failure may succeed on a later attempt.
// Constraint violations are terminal; everything else (connection loss,
// timeouts) is worth retrying.
func Retryable(err error) bool {
	var cv *ConstraintViolation
	return err != nil && !errors.As(err, &cv)
}
