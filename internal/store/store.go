// Package store is the hub's durable persistence layer (§4.1): a
// SQLite-backed key/row store providing upserts and filtered reads for
// each entity in §3, plus a full hydrate-on-startup query set.
//
// Composite values (capabilities, metadata, mentions, settings) are
// stored as opaque JSON text columns and reparsed on read. Message
// content is additionally passed through msgcodec so large payloads are
// stored zstd-compressed.
package store

import (
	"database/sql"
)

// Store is the hub's persistence layer over a single SQLite database.
type Store struct {
	db *sql.DB
}

// New wraps an already-open, already-migrated database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// DB returns the underlying handle, e.g. for health checks.
func (s *Store) DB() *sql.DB {
	return s.db
}
