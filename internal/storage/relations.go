package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

// AddRelation inserts a relation into the typed KV space (spec.md §3:
// key = "relation:"+relation_id, key_type = "relation").
func (s *Store) AddRelation(ctx context.Context, r *models.Relation) error {
	if r.ID == "" {
		r.ID = NewID()
	}
	now := s.virtualNow(r.SessionID)
	if r.CreatedAt.IsZero() {
		r.CreatedAt = now
	}
	r.UpdatedAt = now
	if r.Metadata.CreatedAt.IsZero() {
		r.Metadata.CreatedAt = now
	}

	metaJSON, err := json.Marshal(r.Metadata)
	if err != nil {
		return err
	}

	return s.withSessionLock(r.SessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO kv_store (id, session_id, key, key_type, character_id, metadata_json, created_at, updated_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, r.ID, r.SessionID, r.KVKey(), models.RelationKeyType, r.CharacterID, string(metaJSON), r.CreatedAt, r.UpdatedAt)
			if err != nil {
				return err
			}
			return touchSession(tx, r.SessionID, now, time.Now())
		})
	})
}

// UpdateRelation overwrites the metadata of the relation identified by
// (sessionID, relationID, characterID).
func (s *Store) UpdateRelation(ctx context.Context, sessionID, relationID, characterID string, meta models.RelationMetadata) error {
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	now := s.virtualNow(sessionID)

	return s.withSessionLock(sessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.Exec(`
				UPDATE kv_store SET metadata_json = ?, updated_at = ?
				WHERE session_id = ? AND key = ? AND key_type = ? AND character_id = ?
			`, string(metaJSON), now, sessionID, "relation:"+relationID, models.RelationKeyType, characterID)
			if err != nil {
				return err
			}
			n, err := res.RowsAffected()
			if err != nil {
				return err
			}
			if n == 0 {
				return ErrNotFound
			}
			return touchSession(tx, sessionID, now, time.Now())
		})
	})
}

// DeleteRelation removes the relation identified by (sessionID, relationID, characterID).
func (s *Store) DeleteRelation(ctx context.Context, sessionID, relationID, characterID string) error {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM kv_store WHERE session_id = ? AND key = ? AND key_type = ? AND character_id = ?
	`, sessionID, "relation:"+relationID, models.RelationKeyType, characterID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// ListRelations returns every relation row for a session, optionally
// scoped to a character.
func (s *Store) ListRelations(ctx context.Context, sessionID, characterID string) ([]*models.Relation, error) {
	query := `SELECT id, session_id, key, character_id, metadata_json, created_at, updated_at FROM kv_store WHERE session_id = ? AND key_type = ?`
	args := []any{sessionID, models.RelationKeyType}
	if characterID != "" {
		query += " AND character_id = ?"
		args = append(args, characterID)
	}
	query += " ORDER BY created_at ASC"

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// SearchRelationsByKeyword matches relation name/knowledge/progress text,
// the SQL fallback used when C3 is unavailable.
func (s *Store) SearchRelationsByKeyword(ctx context.Context, sessionID, query string) ([]*models.Relation, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, key, character_id, metadata_json, created_at, updated_at
		FROM kv_store WHERE session_id = ? AND key_type = ? AND metadata_json LIKE ?
		ORDER BY created_at ASC
	`, sessionID, models.RelationKeyType, "%"+query+"%")
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

func scanRelation(rows interface{ Scan(...any) error }) (*models.Relation, error) {
	var r models.Relation
	var key, metaJSON string
	if err := rows.Scan(&r.ID, &r.SessionID, &key, &r.CharacterID, &metaJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.RelationID = key[len("relation:"):]
	if err := json.Unmarshal([]byte(metaJSON), &r.Metadata); err != nil {
		return nil, err
	}
	return &r, nil
}
