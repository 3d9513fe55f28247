package archive

import (
	"context"
	"fmt"

	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/pkg/models"
)

// reindex performs the full bulk reindex spec.md §4.3/§4.10 require after a
// load or reset: each index is emptied, then repopulated in fixed-size
// chunks (search.Client.BulkReindex) from every row now in the working
// database. A nil mirror makes this a no-op, matching C3's best-effort
// design (mirror absence never blocks a C10 operation).
func (m *Manager) reindex(ctx context.Context) error {
	if m.mirror == nil {
		return nil
	}

	messages, err := m.store.AllMessages(ctx)
	if err != nil {
		return fmt.Errorf("list messages: %w", err)
	}
	periods, err := m.store.AllPeriods(ctx)
	if err != nil {
		return fmt.Errorf("list periods: %w", err)
	}
	relations, err := m.store.AllRelations(ctx)
	if err != nil {
		return fmt.Errorf("list relations: %w", err)
	}

	if err := m.reindexOne(ctx, search.IndexMessages, messageDocs(messages)); err != nil {
		return err
	}
	if err := m.reindexOne(ctx, search.IndexPeriods, periodDocs(periods)); err != nil {
		return err
	}
	if err := m.reindexOne(ctx, search.IndexKV, relationDocs(relations)); err != nil {
		return err
	}
	return nil
}

func (m *Manager) reindexOne(ctx context.Context, index string, docs []map[string]any) error {
	if err := m.mirror.DeleteAllDocuments(ctx, index); err != nil {
		return fmt.Errorf("empty index %s: %w", index, err)
	}
	if len(docs) == 0 {
		return nil
	}
	return m.mirror.BulkReindex(ctx, index, docs)
}

func messageDocs(msgs []*models.Message) []map[string]any {
	out := make([]map[string]any, len(msgs))
	for i, m := range msgs {
		out[i] = map[string]any{
			"id":            m.ID,
			"session_id":    m.SessionID,
			"role":          string(m.Role),
			"content":       m.Content,
			"tool_name":     m.ToolName,
			"speaker":       m.Speaker,
			"category":      string(m.Category),
			"created_at":    m.CreatedAt.Unix(),
			"character_ids": m.VisibleForCharacters,
		}
	}
	return out
}

func periodDocs(periods []*models.Period) []map[string]any {
	out := make([]map[string]any, len(periods))
	for i, p := range periods {
		out[i] = map[string]any{
			"id":           p.ID,
			"session_id":   p.SessionID,
			"period_id":    p.PeriodID,
			"period_type":  string(p.PeriodType),
			"title":        p.Title,
			"content":      p.Content,
			"character_id": p.CharacterID,
			"start_at":     p.StartAt.Unix(),
			"end_at":       p.EndAt.Unix(),
			"created_at":   p.CreatedAt.Unix(),
		}
	}
	return out
}

func relationDocs(relations []*models.Relation) []map[string]any {
	out := make([]map[string]any, len(relations))
	for i, r := range relations {
		out[i] = map[string]any{
			"id":           r.ID,
			"session_id":   r.SessionID,
			"key":          r.KVKey(),
			"key_type":     models.RelationKeyType,
			"character_id": r.CharacterID,
			"metadata":     r.Metadata.Name + " " + r.Metadata.Knowledge + " " + r.Metadata.Progress,
			"created_at":   r.CreatedAt.Unix(),
			"updated_at":   r.UpdatedAt.Unix(),
		}
	}
	return out
}
