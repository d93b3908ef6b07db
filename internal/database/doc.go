// Package database provides connection pool management, schema bootstrap and
// teardown, and the error taxonomy for the cache database.
//
// The backing store is PostgreSQL via pgx. Three tables hold the cache state:
//   - general: opaque key/value blobs
//   - currencies: currency definitions
//   - instruments: all instrument variants, discriminated by a kind column
package database
