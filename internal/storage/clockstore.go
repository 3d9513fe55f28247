package storage

import (
	"database/sql"
	"encoding/json"

	"github.com/lucidframe/conversa/pkg/models"
)

// GetClock satisfies internal/clock.Store. Returns (nil, nil) when no
// snapshot exists yet, per that interface's lazy-creation contract.
func (s *Store) GetClock(sessionID string) (*models.SessionClock, error) {
	var sc models.SessionClock
	var actionsJSON string
	err := s.db.QueryRow(`
		SELECT session_id, base_virtual, base_real, actions_json, updated_at, real_updated_at
		FROM session_clocks WHERE session_id = ?
	`, sessionID).Scan(&sc.SessionID, &sc.BaseVirtual, &sc.BaseReal, &actionsJSON, &sc.UpdatedAt, &sc.RealUpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(actionsJSON), &sc.Actions); err != nil {
		return nil, err
	}
	return &sc, nil
}

// PutClock satisfies internal/clock.Store, upserting the snapshot.
func (s *Store) PutClock(c *models.SessionClock) error {
	actionsJSON, err := json.Marshal(c.Actions)
	if err != nil {
		return err
	}
	_, err = s.db.Exec(`
		INSERT INTO session_clocks (session_id, base_virtual, base_real, actions_json, updated_at, real_updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id) DO UPDATE SET
			base_virtual = excluded.base_virtual,
			base_real = excluded.base_real,
			actions_json = excluded.actions_json,
			updated_at = excluded.updated_at,
			real_updated_at = excluded.real_updated_at
	`, c.SessionID, c.BaseVirtual, c.BaseReal, string(actionsJSON), c.UpdatedAt, c.RealUpdatedAt)
	return err
}
