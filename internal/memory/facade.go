// Package memory implements the Memory Facade (C4): the read/write API
// agents and flows use over the Persistence Layer (C2) and Search Mirror
// (C3). Grounded on the teacher's internal/memory hierarchical manager for
// the shape of a facade package sitting above a store, but the operations
// themselves come from spec.md §4.4, not the teacher's hierarchy model.
package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/internal/storage"
	"github.com/lucidframe/conversa/pkg/models"
)

// Store is the subset of *storage.Store the facade depends on.
type Store interface {
	AppendMessage(ctx context.Context, msg *models.Message) error
	GetMessagesAroundTime(ctx context.Context, sessionID string, t time.Time, h time.Duration, k int, opts storage.QueryOptions) ([]*models.Message, models.QueryMetadata, error)
	GetMessagesInRange(ctx context.Context, sessionID string, a, b time.Time, k int, opts storage.QueryOptions) ([]*models.Message, models.QueryMetadata, error)
	GetMessagesByDate(ctx context.Context, sessionID string, date time.Time, k int, opts storage.QueryOptions) ([]*models.Message, models.QueryMetadata, error)
	SearchMessagesLIKE(ctx context.Context, sessionID, query string, opts storage.QueryOptions, limit, offset int) ([]*models.Message, error)
	CountDialogueMessages(ctx context.Context, sessionID, speaker string) (int, error)

	AddPeriod(ctx context.Context, p *models.Period) error
	UpdatePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string, p *models.Period) error
	DeletePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string) error
	ListPeriods(ctx context.Context, sessionID string, periodType models.PeriodType) ([]*models.Period, error)
	FindPeriodsAtTime(ctx context.Context, sessionID string, periodType models.PeriodType, t time.Time) ([]*models.Period, error)
	FindPeriodsInRange(ctx context.Context, sessionID string, periodType models.PeriodType, a, b time.Time) ([]*models.Period, error)
	FindPeriodsByDate(ctx context.Context, sessionID string, periodType models.PeriodType, date time.Time) ([]*models.Period, error)

	AddRelation(ctx context.Context, r *models.Relation) error
	UpdateRelation(ctx context.Context, sessionID, relationID, characterID string, meta models.RelationMetadata) error
	DeleteRelation(ctx context.Context, sessionID, relationID, characterID string) error
	ListRelations(ctx context.Context, sessionID, characterID string) ([]*models.Relation, error)
	SearchRelationsByKeyword(ctx context.Context, sessionID, query string) ([]*models.Relation, error)
}

// Mirror is the subset of *search.Client the facade depends on; nil
// disables mirror sync and keyword search falls straight to SQL LIKE.
type Mirror interface {
	Upsert(ctx context.Context, index string, doc map[string]any)
	Delete(ctx context.Context, index, id string)
	Search(ctx context.Context, index string, req search.SearchRequest) (*search.SearchResult, error)
}

// defaultMessageCap bounds how many messages a session retains before the
// oldest THOUGHT-category rows are eligible for pruning by background
// maintenance; add_message itself never blocks on pruning.
const defaultMessageCap = 20000

// Facade is C4: the memory read/write surface agents and tools call.
type Facade struct {
	store  Store
	mirror Mirror
	cap    int
}

// New returns a Facade over store, optionally syncing writes to mirror.
func New(store Store, mirror Mirror) *Facade {
	return &Facade{store: store, mirror: mirror, cap: defaultMessageCap}
}

// AddMessage appends m, syncing the search mirror best-effort.
func (f *Facade) AddMessage(ctx context.Context, m *models.Message) error {
	if err := f.store.AppendMessage(ctx, m); err != nil {
		return fmt.Errorf("memory: add message: %w", err)
	}
	if f.mirror != nil {
		f.mirror.Upsert(ctx, search.IndexMessages, messageDoc(m))
	}
	return nil
}

func messageDoc(m *models.Message) map[string]any {
	return map[string]any{
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

// GetMessagesAroundTime proxies to C2's proximity query.
func (f *Facade) GetMessagesAroundTime(ctx context.Context, sessionID string, t time.Time, h time.Duration, k int, categories []models.Category, characterID string) ([]*models.Message, models.QueryMetadata, error) {
	return f.store.GetMessagesAroundTime(ctx, sessionID, t, h, k, storage.QueryOptions{Categories: categories, CharacterID: characterID})
}

// GetMessagesInRange proxies to C2's range query.
func (f *Facade) GetMessagesInRange(ctx context.Context, sessionID string, a, b time.Time, k int, categories []models.Category, characterID string) ([]*models.Message, models.QueryMetadata, error) {
	return f.store.GetMessagesInRange(ctx, sessionID, a, b, k, storage.QueryOptions{Categories: categories, CharacterID: characterID})
}

// GetMessagesByDate proxies to C2's by-date query.
func (f *Facade) GetMessagesByDate(ctx context.Context, sessionID string, date time.Time, k int, categories []models.Category, characterID string) ([]*models.Message, models.QueryMetadata, error) {
	return f.store.GetMessagesByDate(ctx, sessionID, date, k, storage.QueryOptions{Categories: categories, CharacterID: characterID})
}

// SearchMessagesByKeyword implements spec.md §4.4: "if categories is a
// set, query once per category with per-set dedup by id, then sort by
// created_at and apply (offset,limit) post-merge." Tries the mirror
// first; falls back to SQL LIKE per category on mirror failure.
func (f *Facade) SearchMessagesByKeyword(ctx context.Context, sessionID, query string, categories []models.Category, limit, offset int, characterID string) ([]*models.Message, error) {
	if len(categories) == 0 {
		categories = []models.Category{""}
	}

	seen := make(map[string]*models.Message)
	for _, cat := range categories {
		opts := storage.QueryOptions{CharacterID: characterID}
		if cat != "" {
			opts.Categories = []models.Category{cat}
		}

		var msgs []*models.Message
		var err error
		if f.mirror != nil {
			msgs, err = f.searchMirror(ctx, sessionID, query, opts, limit+offset)
		}
		if f.mirror == nil || err != nil {
			msgs, err = f.store.SearchMessagesLIKE(ctx, sessionID, query, opts, limit+offset, 0)
		}
		if err != nil {
			return nil, fmt.Errorf("memory: search messages: %w", err)
		}
		for _, m := range msgs {
			seen[m.ID] = m
		}
	}

	merged := make([]*models.Message, 0, len(seen))
	for _, m := range seen {
		merged = append(merged, m)
	}
	sort.Slice(merged, func(i, j int) bool { return merged[i].CreatedAt.Before(merged[j].CreatedAt) })

	merged = paginate(merged, offset, limit)
	return merged, nil
}

func (f *Facade) searchMirror(ctx context.Context, sessionID, query string, opts storage.QueryOptions, limit int) ([]*models.Message, error) {
	filter := []string{"session_id = " + quote(sessionID)}
	if len(opts.Categories) > 0 {
		filter = append(filter, "category = "+quote(string(opts.Categories[0])))
	}
	res, err := f.mirror.Search(ctx, search.IndexMessages, search.SearchRequest{Query: query, Filter: filter, Limit: limit})
	if err != nil {
		return nil, err
	}
	out := make([]*models.Message, 0, len(res.Hits))
	for _, hit := range res.Hits {
		out = append(out, hitToMessage(hit))
	}
	return out, nil
}

func hitToMessage(hit map[string]any) *models.Message {
	m := &models.Message{}
	if v, ok := hit["id"].(string); ok {
		m.ID = v
	}
	if v, ok := hit["session_id"].(string); ok {
		m.SessionID = v
	}
	if v, ok := hit["role"].(string); ok {
		m.Role = models.Role(v)
	}
	if v, ok := hit["content"].(string); ok {
		m.Content = v
	}
	if v, ok := hit["category"].(string); ok {
		m.Category = models.Category(v)
	}
	if v, ok := hit["created_at"].(float64); ok {
		m.CreatedAt = time.Unix(int64(v), 0)
	}
	return m
}

func quote(s string) string { return `"` + s + `"` }

func paginate(msgs []*models.Message, offset, limit int) []*models.Message {
	if offset >= len(msgs) {
		return nil
	}
	end := offset + limit
	if end > len(msgs) || limit <= 0 {
		end = len(msgs)
	}
	return msgs[offset:end]
}

// CountDialogueMessages proxies to C2's dialogue-turn counter.
func (f *Facade) CountDialogueMessages(ctx context.Context, sessionID, speaker string) (int, error) {
	return f.store.CountDialogueMessages(ctx, sessionID, speaker)
}
