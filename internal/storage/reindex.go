package storage

import (
	"context"

	"github.com/lucidframe/conversa/pkg/models"
)

// AllMessages returns every message row across every session, ordered for
// deterministic chunking. Used by the Archive Manager (C10) to rebuild the
// search mirror after a load, not by any per-session query path.
func (s *Store) AllMessages(ctx context.Context) ([]*models.Message, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+messageColumns+` FROM messages ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Message
	for rows.Next() {
		m, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// AllPeriods returns every period row across every session.
func (s *Store) AllPeriods(ctx context.Context) ([]*models.Period, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+periodColumns+` FROM periods ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeriods(rows)
}

// AllRelations returns every relation row across every session.
func (s *Store) AllRelations(ctx context.Context) ([]*models.Relation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, key, character_id, metadata_json, created_at, updated_at
		FROM kv_store WHERE key_type = ? ORDER BY created_at ASC, id ASC
	`, models.RelationKeyType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Relation
	for rows.Next() {
		r, err := scanRelation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
