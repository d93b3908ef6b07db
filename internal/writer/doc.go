// Package writer implements the asynchronous write buffer and flusher for the
// cache database.
//
// Callers enqueue upsert operations without blocking on network I/O. A single
// consumer goroutine drains the queue in submission order and applies
// operations in batches, flushing when the batch reaches its size threshold or
// on a ticker. Until an operation is flushed it is not visible to reads; the
// batch size and flush interval bound that visibility delay.
//
// Flush failures are never silently discarded: constraint violations (an
// instrument referencing an unknown currency) are terminal for that operation
// and reported on the failure channel; transient failures are requeued at the
// front of the queue, preserving order, up to a retry cap.
package writer
