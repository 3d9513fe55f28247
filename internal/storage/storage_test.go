package storage

import (
	"context"
	"testing"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestGetOrCreateSessionIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	a, err := s.GetOrCreate(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.GetOrCreate(ctx, "sess-1")
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID || !a.CreatedAt.Equal(b.CreatedAt) {
		t.Fatalf("expected idempotent get-or-create, got %+v vs %+v", a, b)
	}
}

func TestAppendMessageAndVisibility(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	msg := &models.Message{
		SessionID:            "sess-1",
		Role:                 models.RoleUser,
		Content:              "hello",
		Category:             models.CategoryNormal,
		CreatedAt:            now,
		VisibleForCharacters: []string{"char-a"},
	}
	if err := s.AppendMessage(ctx, msg); err != nil {
		t.Fatal(err)
	}

	visible, _, err := s.GetMessagesInRange(ctx, "sess-1", now.Add(-time.Hour), now.Add(time.Hour), 10, QueryOptions{CharacterID: "char-a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(visible) != 1 {
		t.Fatalf("expected message visible to char-a, got %d", len(visible))
	}

	hidden, _, err := s.GetMessagesInRange(ctx, "sess-1", now.Add(-time.Hour), now.Add(time.Hour), 10, QueryOptions{CharacterID: "char-b"})
	if err != nil {
		t.Fatal(err)
	}
	if len(hidden) != 0 {
		t.Fatalf("expected message hidden from char-b, got %d", len(hidden))
	}
}

func TestGetMessagesAroundTimeMergesAndTrims(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	base := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := -5; i <= 5; i++ {
		msg := &models.Message{
			SessionID: "sess-1",
			Role:      models.RoleUser,
			Content:   "msg",
			Category:  models.CategoryNormal,
			CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}
		if err := s.AppendMessage(ctx, msg); err != nil {
			t.Fatal(err)
		}
	}

	msgs, meta, err := s.GetMessagesAroundTime(ctx, "sess-1", base, time.Hour, 3, QueryOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected K=3 messages, got %d", len(msgs))
	}
	for i := 1; i < len(msgs); i++ {
		if msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt) {
			t.Fatalf("expected chronological order, got %v before %v", msgs[i].CreatedAt, msgs[i-1].CreatedAt)
		}
	}
	if !meta.HasMoreBefore || !meta.HasMoreAfter {
		t.Fatalf("expected more data on both sides, got %+v", meta)
	}
}

func TestCountDialogueMessages(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	msgs := []*models.Message{
		{SessionID: "sess-1", Role: models.RoleAssistant, Speaker: "nova", Category: models.CategoryTelegram, CreatedAt: now},
		{SessionID: "sess-1", Role: models.RoleAssistant, Speaker: "nova", Category: models.CategorySpeakInPerson, CreatedAt: now},
		{SessionID: "sess-1", Role: models.RoleAssistant, Speaker: "nova", Category: models.CategoryThought, CreatedAt: now},
	}
	for _, m := range msgs {
		if err := s.AppendMessage(ctx, m); err != nil {
			t.Fatal(err)
		}
	}

	n, err := s.CountDialogueMessages(ctx, "sess-1", "nova")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 dialogue turns (excludes THOUGHT), got %d", n)
	}
}

func TestPeriodCoversAndOverlaps(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	start := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	end := start.Add(2 * time.Hour)
	p := &models.Period{SessionID: "sess-1", PeriodID: "meeting-1", PeriodType: models.PeriodSchedule, StartAt: start, EndAt: end, Title: "standup"}
	if err := s.AddPeriod(ctx, p); err != nil {
		t.Fatal(err)
	}

	at, err := s.FindPeriodsAtTime(ctx, "sess-1", models.PeriodSchedule, start.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(at) != 1 {
		t.Fatalf("expected period covering midpoint, got %d", len(at))
	}

	none, err := s.FindPeriodsAtTime(ctx, "sess-1", models.PeriodSchedule, end.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if len(none) != 0 {
		t.Fatalf("expected no period outside range, got %d", len(none))
	}
}

func TestRelationCRUD(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	if _, err := s.GetOrCreate(ctx, "sess-1"); err != nil {
		t.Fatal(err)
	}

	r := &models.Relation{SessionID: "sess-1", RelationID: "user-bond", Metadata: models.RelationMetadata{Name: "bond", Knowledge: "likes coffee"}}
	if err := s.AddRelation(ctx, r); err != nil {
		t.Fatal(err)
	}

	found, err := s.SearchRelationsByKeyword(ctx, "sess-1", "coffee")
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 {
		t.Fatalf("expected to find relation by keyword, got %d", len(found))
	}

	if err := s.UpdateRelation(ctx, "sess-1", "user-bond", "", models.RelationMetadata{Name: "bond", Knowledge: "likes tea"}); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRelation(ctx, "sess-1", "user-bond", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteRelation(ctx, "sess-1", "user-bond", ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound on double delete, got %v", err)
	}
}
