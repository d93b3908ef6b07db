// Package cachedb is the public entry point of the persistent cache layer.
//
// CacheDatabase composes the connection pool, the schema manager, the entity
// codecs, and the asynchronous cache writer behind a small upsert-oriented
// API: generic key/value objects, currencies, and the polymorphic instrument
// set.
//
// Writes are buffered: Add* calls return once the operation is enqueued, and
// the entity becomes visible to reads after the writer's next flush (bounded
// by the configured batch size and flush interval). Reads always bypass the
// buffer and observe flushed state only.
package cachedb
