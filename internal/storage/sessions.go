package storage

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/lucidframe/conversa/pkg/models"
)

// GetOrCreate returns the session with id, auto-creating it with name ""
// on first reference (spec.md §3: "Auto-created on first write").
func (s *Store) GetOrCreate(ctx context.Context, id string) (*models.Session, error) {
	if sess, err := s.GetSession(ctx, id); err == nil {
		return sess, nil
	} else if err != ErrNotFound {
		return nil, err
	}

	now := s.virtualNow(id)
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.Exec(`
			INSERT INTO sessions (id, name, created_at, updated_at, real_updated_at)
			VALUES (?, '', ?, ?, ?)
			ON CONFLICT (id) DO NOTHING
		`, id, now, now, now)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.GetSession(ctx, id)
}

// GetSession looks up a session by id.
func (s *Store) GetSession(ctx context.Context, id string) (*models.Session, error) {
	var sess models.Session
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, created_at, updated_at, real_updated_at FROM sessions WHERE id = ?
	`, id).Scan(&sess.ID, &sess.Name, &sess.CreatedAt, &sess.UpdatedAt, &sess.RealUpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// NewID returns a fresh business id for a row (message, period, relation…).
func NewID() string { return uuid.NewString() }
