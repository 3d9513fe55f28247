// Package storage implements the Persistence Layer (C2): transactional
// row stores for sessions, messages, periods, relations, and session-clock
// snapshots over a single-writer SQLite working database.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lucidframe/conversa/internal/backoff"
	"github.com/lucidframe/conversa/internal/clock"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned by Get-style lookups that find no row.
var ErrNotFound = errors.New("storage: not found")

// schema mirrors the Data Model in spec.md §3. visibility rows model
// Message<->Character per the "bag of (message_id, character_id)" entity.
const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	real_updated_at TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS session_clocks (
	session_id TEXT PRIMARY KEY REFERENCES sessions(id),
	base_virtual TIMESTAMP NOT NULL,
	base_real TIMESTAMP NOT NULL,
	actions_json TEXT NOT NULL DEFAULT '[]',
	updated_at TIMESTAMP,
	real_updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	role TEXT NOT NULL,
	content TEXT NOT NULL DEFAULT '',
	speaker TEXT NOT NULL DEFAULT '',
	tool_calls_json TEXT NOT NULL DEFAULT '[]',
	tool_name TEXT NOT NULL DEFAULT '',
	tool_call_id TEXT NOT NULL DEFAULT '',
	category TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_messages_session_created ON messages(session_id, created_at);
CREATE INDEX IF NOT EXISTS idx_messages_session_speaker_cat ON messages(session_id, speaker, category);

CREATE TABLE IF NOT EXISTS message_visibility (
	message_id TEXT NOT NULL,
	character_id TEXT NOT NULL,
	PRIMARY KEY (message_id, character_id)
);

CREATE TABLE IF NOT EXISTS periods (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	period_id TEXT NOT NULL,
	period_type TEXT NOT NULL,
	start_at TIMESTAMP NOT NULL,
	end_at TIMESTAMP NOT NULL,
	title TEXT NOT NULL DEFAULT '',
	content TEXT NOT NULL DEFAULT '',
	character_id TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL,
	UNIQUE (session_id, period_type, period_id)
);
CREATE INDEX IF NOT EXISTS idx_periods_session_type_range ON periods(session_id, period_type, start_at, end_at);

CREATE TABLE IF NOT EXISTS kv_store (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	key TEXT NOT NULL,
	key_type TEXT NOT NULL,
	character_id TEXT NOT NULL DEFAULT '',
	metadata_json TEXT NOT NULL DEFAULT '{}',
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	UNIQUE (session_id, key, character_id)
);
`

// Store is the C2 persistence layer: one handle per working database file.
type Store struct {
	db *sql.DB

	locker *sessionLocker
	vclock *clock.Clock
}

// Open opens (creating if absent) a SQLite working database at path and
// applies the schema. path may be ":memory:" for tests.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	// Working DB file: single-writer discipline (spec.md §5).
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("storage: apply schema: %w", err)
	}

	return &Store{db: db, locker: newSessionLocker()}, nil
}

// DB exposes the raw handle for components (e.g. the search mirror's bulk
// reindex, the archive manager's file copy) that need it directly.
func (s *Store) DB() *sql.DB { return s.db }

// AttachClock wires the C1 virtual clock in. Every timestamp this store
// produces (spec.md: "All timestamps everywhere in the system are
// produced through C1") goes through it; until attached, virtualNow falls
// back to wall-clock time, which is only acceptable in tests that don't
// exercise the clock.
func (s *Store) AttachClock(c *clock.Clock) { s.vclock = c }

// virtualNow returns the session's current virtual time via C1.
func (s *Store) virtualNow(sessionID string) time.Time {
	if s.vclock == nil {
		return time.Now()
	}
	t, err := s.vclock.Now(sessionID)
	if err != nil {
		return time.Now()
	}
	return t
}

// Close releases the database handle.
func (s *Store) Close() error { return s.db.Close() }

// isTransientErr reports whether err is a lock-contention error worth
// retrying, as opposed to a logical error (spec.md §7 Contention class).
func isTransientErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "locked") || strings.Contains(msg, "busy") || strings.Contains(msg, "SQLITE_BUSY")
}

// withRetry runs fn, retrying on transient lock errors with capped
// exponential backoff (spec.md §4.2: "Retry with capped exponential
// backoff on transient lock errors, never on logical errors").
func withRetry(ctx context.Context, fn func() error) error {
	policy := backoff.DefaultPolicy()
	var lastErr error
	for attempt := 1; attempt <= 5; attempt++ {
		lastErr = fn()
		if lastErr == nil || !isTransientErr(lastErr) {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff.ComputeBackoff(policy, attempt)):
		}
	}
	return lastErr
}

// withTx runs fn inside a transaction, retrying the whole transaction on
// contention and always rolling back unless fn's own commit succeeded.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	return withRetry(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return err
		}
		defer func() { _ = tx.Rollback() }()

		if err := fn(tx); err != nil {
			return err
		}
		return tx.Commit()
	})
}

// touchSession updates a session's real_updated_at and virtual updated_at
// within tx, creating the session row if absent. Every C2 mutation must
// call this (spec.md §4.2: "Every mutation updates the owning session's
// virtual updated_at").
func touchSession(tx *sql.Tx, sessionID string, virtualNow, realNow time.Time) error {
	res, err := tx.Exec(`UPDATE sessions SET updated_at = ?, real_updated_at = ? WHERE id = ?`,
		virtualNow, realNow, sessionID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	_, err = tx.Exec(`INSERT INTO sessions (id, name, created_at, updated_at, real_updated_at) VALUES (?, '', ?, ?, ?)`,
		sessionID, virtualNow, virtualNow, realNow)
	return err
}
