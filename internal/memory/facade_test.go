package memory

import (
	"context"
	"testing"
	"time"

	"github.com/lucidframe/conversa/internal/search"
	"github.com/lucidframe/conversa/internal/storage"
	"github.com/lucidframe/conversa/pkg/models"
)

func newFacadeTestStore(t *testing.T) *storage.Store {
	t.Helper()
	s, err := storage.Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	if _, err := s.GetOrCreate(context.Background(), "sess-1"); err != nil {
		t.Fatal(err)
	}
	return s
}

type fakeMirror struct {
	upserts int
	deletes int
}

func (f *fakeMirror) Upsert(ctx context.Context, index string, doc map[string]any) { f.upserts++ }
func (f *fakeMirror) Delete(ctx context.Context, index, id string)                 { f.deletes++ }
func (f *fakeMirror) Search(ctx context.Context, index string, req search.SearchRequest) (*search.SearchResult, error) {
	return &search.SearchResult{}, nil
}

func TestFacadeAddMessageSyncsMirror(t *testing.T) {
	s := newFacadeTestStore(t)
	mirror := &fakeMirror{}
	f := New(s, mirror)

	if err := f.AddMessage(context.Background(), &models.Message{SessionID: "sess-1", Role: models.RoleUser, Content: "hi", Category: models.CategoryNormal, CreatedAt: time.Now()}); err != nil {
		t.Fatal(err)
	}
	if mirror.upserts != 1 {
		t.Fatalf("expected mirror upsert on add message, got %d", mirror.upserts)
	}
}

func TestFacadeSearchMessagesByKeywordDedupsAcrossCategories(t *testing.T) {
	s := newFacadeTestStore(t)
	f := New(s, nil)
	ctx := context.Background()

	now := time.Now()
	if err := f.AddMessage(ctx, &models.Message{SessionID: "sess-1", Role: models.RoleAssistant, Content: "weather is nice", Category: models.CategoryTelegram, CreatedAt: now}); err != nil {
		t.Fatal(err)
	}
	if err := f.AddMessage(ctx, &models.Message{SessionID: "sess-1", Role: models.RoleAssistant, Content: "weather forecast", Category: models.CategorySpeakInPerson, CreatedAt: now.Add(time.Second)}); err != nil {
		t.Fatal(err)
	}

	found, err := f.SearchMessagesByKeyword(ctx, "sess-1", "weather", []models.Category{models.CategoryTelegram, models.CategorySpeakInPerson}, 10, 0, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 2 {
		t.Fatalf("expected 2 results across categories, got %d", len(found))
	}
}

func TestFacadeRelationLifecycle(t *testing.T) {
	s := newFacadeTestStore(t)
	mirror := &fakeMirror{}
	f := New(s, mirror)
	ctx := context.Background()

	r := &models.Relation{SessionID: "sess-1", RelationID: "bond-1", Metadata: models.RelationMetadata{Name: "bond", Knowledge: "enjoys hiking"}}
	if err := f.AddRelation(ctx, r); err != nil {
		t.Fatal(err)
	}

	found, err := f.SearchRelationsByKeyword(ctx, "sess-1", "hiking")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("expected relation found by keyword, got %d", len(found))
	}

	if err := f.DeleteRelation(ctx, "sess-1", "bond-1", ""); err != nil {
		t.Fatal(err)
	}
	if mirror.deletes != 1 {
		t.Fatalf("expected mirror delete on relation delete, got %d", mirror.deletes)
	}
}
