package clock

import (
	"testing"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

type memStore struct {
	clocks map[string]*models.SessionClock
}

func newMemStore() *memStore {
	return &memStore{clocks: make(map[string]*models.SessionClock)}
}

func (m *memStore) GetClock(sessionID string) (*models.SessionClock, error) {
	return m.clocks[sessionID], nil
}

func (m *memStore) PutClock(c *models.SessionClock) error {
	cp := *c
	m.clocks[c.SessionID] = &cp
	return nil
}

func withFixedNow(t *testing.T, at time.Time) func() {
	t.Helper()
	old := nowFn
	nowFn = func() time.Time { return at }
	return func() { nowFn = old }
}

func TestIdentityClockTracksRealTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	c := New(newMemStore())
	v0, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	restore()

	restore = withFixedNow(t, base.Add(5*time.Second))
	defer restore()
	v1, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}

	if got := v1.Sub(v0); got != 5*time.Second {
		t.Fatalf("expected virtual time to track real elapsed 5s, got %v", got)
	}
}

func TestSeekSetsExactVirtualTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	defer restore()

	c := New(newMemStore())
	target := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	if err := c.Seek("s1", target); err != nil {
		t.Fatal(err)
	}

	v, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(target) {
		t.Fatalf("expected now() == seek target immediately, got %v want %v", v, target)
	}
}

func TestNudgeOffsetsVirtualTime(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	defer restore()

	c := New(newMemStore())
	if err := c.Nudge("s1", 3600); err != nil {
		t.Fatal(err)
	}

	v, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Sub(base); got != time.Hour {
		t.Fatalf("expected +1h offset, got %v", got)
	}
}

func TestSetSpeedScalesSubsequentElapsed(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	c := New(newMemStore())
	if err := c.SetSpeed("s1", 2); err != nil {
		t.Fatal(err)
	}
	restore()

	restore = withFixedNow(t, base.Add(10*time.Second))
	defer restore()
	v, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	if got := v.Sub(base); got != 20*time.Second {
		t.Fatalf("expected 2x speed over 10s real to yield 20s virtual, got %v", got)
	}
}

func TestFreezeZeroesAccumulator(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	c := New(newMemStore())
	if err := c.AppendAction("s1", models.TimeAction{Type: models.TimeActionFreeze}); err != nil {
		t.Fatal(err)
	}
	restore()

	restore = withFixedNow(t, base.Add(time.Hour))
	defer restore()
	v, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	if !v.Equal(base) {
		t.Fatalf("expected frozen clock to stay at base, got %v", v)
	}
}

func TestClearActionsPreservesCurrentVirtualNow(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	restore := withFixedNow(t, base)
	c := New(newMemStore())
	if err := c.Nudge("s1", 100); err != nil {
		t.Fatal(err)
	}
	before, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}

	if err := c.ClearActions("s1"); err != nil {
		t.Fatal(err)
	}
	after, err := c.Now("s1")
	if err != nil {
		t.Fatal(err)
	}
	restore()

	if !before.Equal(after) {
		t.Fatalf("clearing actions should preserve virtual now, got %v want %v", after, before)
	}
}
