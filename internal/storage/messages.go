package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

// AppendMessage inserts msg and its visibility rows in one transaction,
// then updates the owning session's virtual updated_at, per spec.md §4.2
// ("Message→character rows are inserted inside the same transaction as
// the parent message to preserve atomic visibility").
func (s *Store) AppendMessage(ctx context.Context, msg *models.Message) error {
	if msg.ID == "" {
		msg.ID = NewID()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.virtualNow(msg.SessionID)
	}

	return s.withSessionLock(msg.SessionID, func() error {
		return s.withTx(ctx, func(tx *sql.Tx) error {
			toolCallsJSON, err := json.Marshal(msg.ToolCalls)
			if err != nil {
				return err
			}
			_, err = tx.Exec(`
				INSERT INTO messages (id, session_id, role, content, speaker, tool_calls_json, tool_name, tool_call_id, category, created_at)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
			`, msg.ID, msg.SessionID, string(msg.Role), msg.Content, msg.Speaker, string(toolCallsJSON), msg.ToolName, msg.ToolCallID, string(msg.Category), msg.CreatedAt)
			if err != nil {
				return err
			}

			for _, charID := range msg.VisibleForCharacters {
				if _, err := tx.Exec(`INSERT INTO message_visibility (message_id, character_id) VALUES (?, ?)`, msg.ID, charID); err != nil {
					return err
				}
			}

			return touchSession(tx, msg.SessionID, s.virtualNow(msg.SessionID), time.Now())
		})
	})
}

func scanMessage(rows interface{ Scan(...any) error }) (*models.Message, error) {
	var m models.Message
	var toolCallsJSON string
	if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &m.Speaker, &toolCallsJSON, &m.ToolName, &m.ToolCallID, &m.Category, &m.CreatedAt); err != nil {
		return nil, err
	}
	if toolCallsJSON != "" && toolCallsJSON != "[]" {
		if err := json.Unmarshal([]byte(toolCallsJSON), &m.ToolCalls); err != nil {
			return nil, err
		}
	}
	return &m, nil
}

const messageColumns = "id, session_id, role, content, speaker, tool_calls_json, tool_name, tool_call_id, category, created_at"

// visibilityPredicate returns a SQL fragment and its bind arg for the
// character-visibility predicate described in spec.md §4.2: "either zero
// visibility rows OR a row matching the requested character". An empty
// characterID disables the filter entirely.
func visibilityPredicate(characterID string) (string, []any) {
	if characterID == "" {
		return "", nil
	}
	return ` AND (NOT EXISTS (SELECT 1 FROM message_visibility mv WHERE mv.message_id = m.id)
		OR EXISTS (SELECT 1 FROM message_visibility mv WHERE mv.message_id = m.id AND mv.character_id = ?))`, []any{characterID}
}

func categoryPredicate(categories []models.Category) (string, []any) {
	if len(categories) == 0 {
		return "", nil
	}
	placeholders := make([]string, len(categories))
	args := make([]any, len(categories))
	for i, c := range categories {
		placeholders[i] = "?"
		args[i] = string(c)
	}
	return fmt.Sprintf(" AND m.category IN (%s)", strings.Join(placeholders, ",")), args
}

// QueryOptions narrows a message window query.
type QueryOptions struct {
	Categories  []models.Category
	CharacterID string
}

// probe fetches up to k+1 rows matching the base predicate, ordered by dir
// ("ASC" or "DESC").
func (s *Store) probe(ctx context.Context, sessionID, cmp string, t time.Time, k int, dir string, opts QueryOptions) ([]*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages m WHERE m.session_id = ? AND m.created_at %s ?`, messageColumns, cmp)
	args := []any{sessionID, t}

	if frag, a := categoryPredicate(opts.Categories); frag != "" {
		query += frag
		args = append(args, a...)
	}
	if frag, a := visibilityPredicate(opts.CharacterID); frag != "" {
		query += frag
		args = append(args, a...)
	}
	query += fmt.Sprintf(" ORDER BY m.created_at %s, m.id %s LIMIT ?", dir, dir)
	args = append(args, k+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// GetMessagesAroundTime implements the C2 "messages around T" contract
// (spec.md §4.2): K+1 probes on both sides of T within half-range H,
// merged and trimmed to the K closest by |created_at - T|, id tiebreak,
// then re-sorted ascending by created_at for chronological delivery.
func (s *Store) GetMessagesAroundTime(ctx context.Context, sessionID string, t time.Time, h time.Duration, k int, opts QueryOptions) ([]*models.Message, models.QueryMetadata, error) {
	before, err := s.probe(ctx, sessionID, "<", t, k, "DESC", opts)
	if err != nil {
		return nil, models.QueryMetadata{}, err
	}
	// before probe used created_at < t; restrict to the half-range window.
	before = filterAfterOrEqual(before, t.Add(-h))

	after, err := s.probeRange(ctx, sessionID, t, t.Add(h), k, opts)
	if err != nil {
		return nil, models.QueryMetadata{}, err
	}

	hasMoreBefore := len(before) > k
	hasMoreAfter := len(after) > k

	merged := append(append([]*models.Message{}, before...), after...)
	sort.SliceStable(merged, func(i, j int) bool {
		di := math.Abs(merged[i].CreatedAt.Sub(t).Seconds())
		dj := math.Abs(merged[j].CreatedAt.Sub(t).Seconds())
		if di != dj {
			return di < dj
		}
		return merged[i].ID < merged[j].ID
	})
	if len(merged) > k {
		merged = merged[:k]
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].CreatedAt.Before(merged[j].CreatedAt) })

	return merged, models.QueryMetadata{HasMoreBefore: hasMoreBefore, HasMoreAfter: hasMoreAfter, TimePoint: t}, nil
}

func filterAfterOrEqual(msgs []*models.Message, lower time.Time) []*models.Message {
	out := msgs[:0:0]
	for _, m := range msgs {
		if !m.CreatedAt.Before(lower) {
			out = append(out, m)
		}
	}
	return out
}

func (s *Store) probeRange(ctx context.Context, sessionID string, lo, hi time.Time, k int, opts QueryOptions) ([]*models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM messages m WHERE m.session_id = ? AND m.created_at >= ? AND m.created_at <= ?`, messageColumns)
	args := []any{sessionID, lo, hi}

	if frag, a := categoryPredicate(opts.Categories); frag != "" {
		query += frag
		args = append(args, a...)
	}
	if frag, a := visibilityPredicate(opts.CharacterID); frag != "" {
		query += frag
		args = append(args, a...)
	}
	query += " ORDER BY m.created_at ASC, m.id ASC LIMIT ?"
	args = append(args, k+1)

	rows, err := s.db.QueryContext(ctx, query, args...)
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

// GetMessagesInRange returns messages in [a,b], analogous to around-time:
// a K+1 probe drives HasMoreAfter (spec.md §4.2).
func (s *Store) GetMessagesInRange(ctx context.Context, sessionID string, a, b time.Time, k int, opts QueryOptions) ([]*models.Message, models.QueryMetadata, error) {
	probed, err := s.probeRange(ctx, sessionID, a, b, k, opts)
	if err != nil {
		return nil, models.QueryMetadata{}, err
	}
	hasMoreAfter := len(probed) > k
	if hasMoreAfter {
		probed = probed[:k]
	}
	return probed, models.QueryMetadata{HasMoreAfter: hasMoreAfter, TimePoint: a}, nil
}

// GetMessagesByDate returns every message created on the given virtual
// date (UTC calendar day), analogous to GetMessagesInRange.
func (s *Store) GetMessagesByDate(ctx context.Context, sessionID string, date time.Time, k int, opts QueryOptions) ([]*models.Message, models.QueryMetadata, error) {
	y, m, d := date.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, date.Location())
	end := start.Add(24 * time.Hour)
	return s.GetMessagesInRange(ctx, sessionID, start, end, k, opts)
}

// CountDialogueMessages implements spec.md §4.2's dialogue-turn counter:
// COUNT(*) filtered by speaker = name AND category IN {TELEGRAM, SPEAK_IN_PERSON}.
func (s *Store) CountDialogueMessages(ctx context.Context, sessionID, speaker string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM messages
		WHERE session_id = ? AND speaker = ? AND category IN (?, ?)
	`, sessionID, speaker, string(models.CategoryTelegram), string(models.CategorySpeakInPerson)).Scan(&n)
	return n, err
}

// SearchMessagesLIKE is the SQL fallback keyword search used when the C3
// search mirror is unavailable (spec.md §4.3).
func (s *Store) SearchMessagesLIKE(ctx context.Context, sessionID, query string, opts QueryOptions, limit, offset int) ([]*models.Message, error) {
	q := fmt.Sprintf(`SELECT %s FROM messages m WHERE m.session_id = ? AND m.content LIKE ?`, messageColumns)
	args := []any{sessionID, "%" + query + "%"}

	if frag, a := categoryPredicate(opts.Categories); frag != "" {
		q += frag
		args = append(args, a...)
	}
	if frag, a := visibilityPredicate(opts.CharacterID); frag != "" {
		q += frag
		args = append(args, a...)
	}
	q += " ORDER BY m.created_at DESC LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := s.db.QueryContext(ctx, q, args...)
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
