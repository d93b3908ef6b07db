// Package buffer provides the write queue between callers and the flusher.
//
// Queue is a thread-safe growable ring buffer. Enqueue never blocks on I/O;
// the flusher drains it in FIFO order, and may push failed operations back to
// the front so per-identity submission order survives retries.
package buffer
