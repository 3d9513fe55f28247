package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/pkg/models"
)

// AddPeriod creates a schedule/scenario/event row, syncing the mirror.
func (f *Facade) AddPeriod(ctx context.Context, p *models.Period) error {
	if err := f.store.AddPeriod(ctx, p); err != nil {
		return fmt.Errorf("memory: add period: %w", err)
	}
	if f.mirror != nil {
		f.mirror.Upsert(ctx, search.IndexPeriods, periodDoc(p))
	}
	return nil
}

func periodDoc(p *models.Period) map[string]any {
	return map[string]any{
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

// UpdatePeriod updates a period by business id, syncing the mirror.
func (f *Facade) UpdatePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string, p *models.Period) error {
	if err := f.store.UpdatePeriod(ctx, sessionID, periodType, periodID, p); err != nil {
		return fmt.Errorf("memory: update period: %w", err)
	}
	if f.mirror != nil {
		f.mirror.Upsert(ctx, search.IndexPeriods, periodDoc(p))
	}
	return nil
}

// DeletePeriod deletes a period by business id.
func (f *Facade) DeletePeriod(ctx context.Context, sessionID string, periodType models.PeriodType, periodID string) error {
	return f.store.DeletePeriod(ctx, sessionID, periodType, periodID)
}

// ListPeriods lists every period of periodType.
func (f *Facade) ListPeriods(ctx context.Context, sessionID string, periodType models.PeriodType) ([]*models.Period, error) {
	return f.store.ListPeriods(ctx, sessionID, periodType)
}

// FindPeriodsAtTime finds periods covering t.
func (f *Facade) FindPeriodsAtTime(ctx context.Context, sessionID string, periodType models.PeriodType, t time.Time) ([]*models.Period, error) {
	return f.store.FindPeriodsAtTime(ctx, sessionID, periodType, t)
}

// FindPeriodsInRange finds periods overlapping [a,b].
func (f *Facade) FindPeriodsInRange(ctx context.Context, sessionID string, periodType models.PeriodType, a, b time.Time) ([]*models.Period, error) {
	return f.store.FindPeriodsInRange(ctx, sessionID, periodType, a, b)
}

// FindPeriodsByDate finds periods overlapping the given virtual day.
func (f *Facade) FindPeriodsByDate(ctx context.Context, sessionID string, periodType models.PeriodType, date time.Time) ([]*models.Period, error) {
	return f.store.FindPeriodsByDate(ctx, sessionID, periodType, date)
}

// AddRelation creates a relation row, syncing the mirror.
func (f *Facade) AddRelation(ctx context.Context, r *models.Relation) error {
	if err := f.store.AddRelation(ctx, r); err != nil {
		return fmt.Errorf("memory: add relation: %w", err)
	}
	if f.mirror != nil {
		f.mirror.Upsert(ctx, search.IndexKV, relationDoc(r))
	}
	return nil
}

func relationDoc(r *models.Relation) map[string]any {
	return map[string]any{
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

// UpdateRelation overwrites a relation's metadata.
func (f *Facade) UpdateRelation(ctx context.Context, sessionID, relationID, characterID string, meta models.RelationMetadata) error {
	return f.store.UpdateRelation(ctx, sessionID, relationID, characterID, meta)
}

// DeleteRelation removes a relation.
func (f *Facade) DeleteRelation(ctx context.Context, sessionID, relationID, characterID string) error {
	if err := f.store.DeleteRelation(ctx, sessionID, relationID, characterID); err != nil {
		return err
	}
	if f.mirror != nil {
		f.mirror.Delete(ctx, search.IndexKV, relationID)
	}
	return nil
}

// ListRelations lists relations, optionally scoped to a character.
func (f *Facade) ListRelations(ctx context.Context, sessionID, characterID string) ([]*models.Relation, error) {
	return f.store.ListRelations(ctx, sessionID, characterID)
}

// SearchRelationsByKeyword keyword-searches relation metadata.
func (f *Facade) SearchRelationsByKeyword(ctx context.Context, sessionID, query string) ([]*models.Relation, error) {
	return f.store.SearchRelationsByKeyword(ctx, sessionID, query)
}
