// Package store persists negotiations, messages, and listings in SQLite.
//
// Every mutation that appends a message and changes negotiation state runs
// in one transaction: a message insert is never observable without its
// matching status/last_offer update. Terminal states are enforced with
// guarded UPDATEs (status NOT IN terminal set) checked via RowsAffected,
// so a mutation against an accepted/rejected negotiation fails instead of
// silently matching zero rows.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database handle.
type Store struct {
	db *sql.DB

	// ULID entropy must be serialized for monotonic ordering.
	idMu      sync.Mutex
	idEntropy *ulid.MonotonicEntropy
}

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for tests.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	if path == ":memory:" {
		dsn = path
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping failed: %w", err)
	}
	// SQLite permits one writer at a time; a single connection keeps
	// transactions serialized and avoids SQLITE_BUSY churn.
	db.SetMaxOpenConns(1)

	s := &Store{
		db:        db,
		idEntropy: ulid.Monotonic(rand.Reader, 0),
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// NewID returns a time-ordered opaque identifier with the given prefix
// (e.g. "neg", "msg"). IDs generated by one Store are strictly increasing.
func (s *Store) NewID(prefix string) string {
	s.idMu.Lock()
	defer s.idMu.Unlock()
	id := ulid.MustNew(ulid.Timestamp(time.Now()), s.idEntropy)
	return prefix + "-" + id.String()
}

func (s *Store) migrate() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS negotiations (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL,
			buyer_id TEXT NOT NULL,
			seller_id TEXT NOT NULL,
			product_title TEXT NOT NULL DEFAULT '',
			product_image TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending'
				CHECK (status IN ('pending', 'countered', 'accepted', 'rejected')),
			last_offer_amount INTEGER NOT NULL DEFAULT 0,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL,
			archived BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS messages (
			id TEXT PRIMARY KEY,
			negotiation_id TEXT NOT NULL REFERENCES negotiations(id),
			sender_id TEXT NOT NULL,
			sender_type TEXT NOT NULL CHECK (sender_type IN ('buyer', 'seller')),
			content TEXT NOT NULL DEFAULT '',
			type TEXT NOT NULL DEFAULT 'message'
				CHECK (type IN ('message', 'offer', 'counter_offer')),
			offer_amount INTEGER,
			timestamp TIMESTAMP NOT NULL,
			read_by_seller BOOLEAN NOT NULL DEFAULT FALSE,
			read_by_buyer BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE INDEX IF NOT EXISTS idx_messages_negotiation
			ON messages(negotiation_id, timestamp)`,
		`CREATE TABLE IF NOT EXISTS listings (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price INTEGER NOT NULL,
			seller_id TEXT NOT NULL,
			image BLOB,
			created_at TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}

// now returns the wall-clock timestamp used for all writes.
// UTC with microsecond resolution keeps comparisons stable across scans.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

// inTx runs fn inside a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
