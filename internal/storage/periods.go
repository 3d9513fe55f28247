package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

const periodColumns = "id, session_id, period_id, period_type, start_at, end_at, title, content, character_id, created_at"

func scanPeriod(rows interface{ Scan(...any) error }) (*models.Period, error) {
	var p models.Period
	if err := rows.Scan(&p.ID, &p.SessionID, &p.PeriodID, &p.PeriodType, &p.StartAt, &p.EndAt, &p.Title, &p.Content, &p.CharacterID, &p.CreatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

// AddPeriod inserts a new Period row, enforcing start_at <= end_at and
// period_id uniqueness per (session, type).
func (s *Store) AddPeriod(ctx context.Context, p *models.Period) error {
	if p.StartAt.After(p.EndAt) {
		return fmt.Errorf("storage: period start_at %v after end_at %v", p.StartAt, p.EndAt)
	}
	if p.ID == "" {
		p.ID = NewID()
	}
	if p.CreatedAt.IsZero() {
		p.CreatedAt = s.virtualNow(p.SessionID)
	}

	return s.withSessionLock(p.SessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.Exec(`
				INSERT INTO periods (id, session_id, period_id, period_type, start_at, end_at, title, content, character_id, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, p.ID, p.SessionID, p.PeriodID, string(p.PeriodType), p.StartAt, p.EndAt, p.Title, p.Content, p.CharacterID, p.CreatedAt)
			if err != nil {
				return err
			}
			return touchSession(tx, p.SessionID, s.virtualNow(p.SessionID), time.Now())
		})
	})
}

// UpdatePeriod updates the period identified by (sessionID, periodType,
// periodID) with fresh content/timing, returning ErrNotFound if absent.
func (s *Store) UpdatePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string, p *models.Period) error {
	return s.withSessionLock(sessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.Exec(`
				UPDATE periods SET start_at = ?, end_at = ?, title = ?, content = ?, character_id = ?
				WHERE session_id = ? AND period_type = ? AND period_id = ?
			`, p.StartAt, p.EndAt, p.Title, p.Content, p.CharacterID, sessionID, string(periodType), periodID)
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
			return touchSession(tx, sessionID, s.virtualNow(sessionID), time.Now())
		})
	})
}

// DeletePeriod removes the period identified by (sessionID, periodType, periodID).
func (s *Store) DeletePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string) error {
	return s.withSessionLock(sessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			res, err := tx.Exec(`DELETE FROM periods WHERE session_id = ? AND period_type = ? AND period_id = ?`,
				sessionID, string(periodType), periodID)
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
		})
	})
}

// ListPeriods returns every period of periodType in the session.
func (s *Store) ListPeriods(ctx context.Context, sessionID string, periodType models.PeriodType) ([]*models.Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+periodColumns+` FROM periods WHERE session_id = ? AND period_type = ? ORDER BY start_at ASC
	`, sessionID, string(periodType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeriods(rows)
}

// FindPeriodsAtTime returns periods of periodType covering t ("covers T" ≡
// start_at <= T <= end_at, spec.md §3).
func (s *Store) FindPeriodsAtTime(ctx context.Context, sessionID string, periodType models.PeriodType, t time.Time) ([]*models.Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+periodColumns+` FROM periods
		WHERE session_id = ? AND period_type = ? AND start_at <= ? AND end_at >= ?
		ORDER BY start_at ASC
	`, sessionID, string(periodType), t, t)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeriods(rows)
}

// FindPeriodsInRange returns periods of periodType overlapping [a,b]
// ("overlaps [A,B]" ≡ start_at <= B ∧ end_at >= A, spec.md §3).
func (s *Store) FindPeriodsInRange(ctx context.Context, sessionID string, periodType models.PeriodType, a, b time.Time) ([]*models.Period, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+periodColumns+` FROM periods
		WHERE session_id = ? AND period_type = ? AND start_at <= ? AND end_at >= ?
		ORDER BY start_at ASC
	`, sessionID, string(periodType), b, a)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPeriods(rows)
}

// FindPeriodsByDate returns periods of periodType overlapping the given
// virtual calendar day.
func (s *Store) FindPeriodsByDate(ctx context.Context, sessionID string, periodType models.PeriodType, date time.Time) ([]*models.Period, error) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	return s.FindPeriodsInRange(ctx, sessionID, periodType, start, end)
}

func scanPeriods(rows *sql.Rows) ([]*models.Period, error) {
	var out []*models.Period
	for rows.Next() {
		p, err := scanPeriod(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
