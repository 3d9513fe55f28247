// Package clock implements the per-session virtual timeline (C1):
// a base point in both virtual and real time plus an ordered chain of
// actions applied to the real-elapsed delta since that base.
package clock

import (
	"sync"
	"time"

	"github.com/lucidframe/conversa/pkg/models"
)

// nowFn is swappable in tests; production code always uses time.Now.
var nowFn = time.Now

// Store persists a session's clock snapshot. Implemented by internal/storage.
type Store interface {
	GetClock(sessionID string) (*models.SessionClock, error)
	PutClock(clock *models.SessionClock) error
}

// Clock guards every session's clock behind one coarse lock, per spec.md
// §5 ("Clocks: per-session entries in a map guarded by a single coarse
// lock; all arithmetic is done under that lock").
type Clock struct {
	mu      sync.Mutex
	store   Store
	cached  map[string]*models.SessionClock
}

// New returns a Clock backed by store. Clocks are created lazily on first
// reference, never eagerly for every session.
func New(store Store) *Clock {
	return &Clock{
		store:  store,
		cached: make(map[string]*models.SessionClock),
	}
}

// reduce applies the evaluation rule from spec.md §4.1 left-to-right over
// actions, starting from acc = real_now - base_real (seconds) and
// v = base_virtual. scale multiplies the remaining accumulator, offset
// adds a constant to virtual time, freeze zeroes the accumulator.
func reduce(c *models.SessionClock, realNow time.Time) time.Time {
	acc := realNow.Sub(c.BaseReal).Seconds()
	v := c.BaseVirtual

	for _, a := range c.Actions {
		switch a.Type {
		case models.TimeActionScale:
			acc *= a.Value
		case models.TimeActionOffset:
			v = v.Add(time.Duration(a.Value * float64(time.Second)))
		case models.TimeActionFreeze:
			acc = 0
		}
	}

	return v.Add(time.Duration(acc * float64(time.Second)))
}

// get loads (lazily creating) the cached clock for sessionID. Must be
// called with mu held.
func (c *Clock) get(sessionID string) (*models.SessionClock, error) {
	if sc, ok := c.cached[sessionID]; ok {
		return sc, nil
	}

	sc, err := c.store.GetClock(sessionID)
	if err != nil {
		return nil, err
	}
	if sc == nil {
		now := nowFn()
		sc = &models.SessionClock{
			SessionID:     sessionID,
			BaseVirtual:   now,
			BaseReal:      now,
			Actions:       nil,
			UpdatedAt:     now,
			RealUpdatedAt: now,
		}
	}
	c.cached[sessionID] = sc
	return sc, nil
}

// persist writes back the clock under lock, per spec.md §4.1's "each
// mutation writes back {base_virtual, base_real, actions_json,
// updated_at(virtual)} under one lock" contract. UpdatedAt is the virtual
// now at the moment of the write, computed before persisting.
func (c *Clock) persist(sc *models.SessionClock) error {
	real := nowFn()
	sc.UpdatedAt = reduce(sc, real)
	sc.RealUpdatedAt = real
	return c.store.PutClock(sc)
}

// Now returns the session's current virtual time.
func (c *Clock) Now(sessionID string) (time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return time.Time{}, err
	}
	return reduce(sc, nowFn()), nil
}

// NowStr returns the session's current virtual time formatted with layout.
func (c *Clock) NowStr(sessionID, layout string) (string, error) {
	t, err := c.Now(sessionID)
	if err != nil {
		return "", err
	}
	return t.Format(layout), nil
}

// Seek sets the session's virtual time to target, rebasing to real_now and
// clearing the action chain.
func (c *Clock) Seek(sessionID string, target time.Time) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return err
	}

	sc.BaseVirtual = target
	sc.BaseReal = nowFn()
	sc.Actions = nil
	return c.persist(sc)
}

// Nudge appends an offset action of deltaSeconds.
func (c *Clock) Nudge(sessionID string, deltaSeconds float64) error {
	return c.AppendAction(sessionID, models.TimeAction{Type: models.TimeActionOffset, Value: deltaSeconds})
}

// SetSpeed rebases the clock (collapsing the current chain into a new base
// while preserving virtual_now) and then appends a scale action of speed,
// per spec.md §4.1 ("set_speed(session, s): rebase, then append scale
// action").
func (c *Clock) SetSpeed(sessionID string, speed float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return err
	}

	c.rebaseLocked(sc)
	sc.Actions = append(sc.Actions, models.TimeAction{Type: models.TimeActionScale, Value: speed})
	return c.persist(sc)
}

// rebaseLocked collapses the current action chain into a new base point
// that preserves virtual_now, per the Data Model's "Rebase" invariant.
// Must be called with mu held.
func (c *Clock) rebaseLocked(sc *models.SessionClock) {
	real := nowFn()
	sc.BaseVirtual = reduce(sc, real)
	sc.BaseReal = real
	sc.Actions = nil
}

// AppendAction appends a single action to the chain and persists it.
func (c *Clock) AppendAction(sessionID string, action models.TimeAction) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return err
	}

	sc.Actions = append(sc.Actions, action)
	return c.persist(sc)
}

// ClearActions rebases onto the current virtual_now and drops the chain,
// preserving now() across the clear.
func (c *Clock) ClearActions(sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return err
	}

	c.rebaseLocked(sc)
	return c.persist(sc)
}

// Load installs an explicit clock snapshot from storage, replacing any
// cached entry for that session.
func (c *Clock) Load(sessionID string, baseVirtual, baseReal time.Time, actions []models.TimeAction) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cached[sessionID] = &models.SessionClock{
		SessionID:   sessionID,
		BaseVirtual: baseVirtual,
		BaseReal:    baseReal,
		Actions:     actions,
	}
}

// Snapshot returns a copy of the session's current clock state, e.g. for
// the TimeClockResponse wire shape in §6.
func (c *Clock) Snapshot(sessionID string) (models.SessionClock, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	sc, err := c.get(sessionID)
	if err != nil {
		return models.SessionClock{}, err
	}
	cp := *sc
	cp.Actions = append([]models.TimeAction(nil), sc.Actions...)
	return cp, nil
}
