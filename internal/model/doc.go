// Package model defines the domain entities persisted by the cache database.
//
// Conventions:
//   - Prices and quantities: fixed-point (raw int64 scaled by 10^precision)
//   - Timestamps: int64 nanoseconds since Unix epoch
//   - Currency references on instruments: currency code strings, foreign keys
//     into the currencies table
package model
