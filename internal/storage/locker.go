package storage

import "sync"

// sessionLocker serializes writes per session id, per spec.md §5
// ("Persistence: for a single session, writes are serialized by the
// store's per-operation cursor; no cross-session ordering is promised").
// Grounded on the teacher's in-process SessionLocker (internal/sessions),
// simplified here since the working DB is single-process/single-writer.
type sessionLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newSessionLocker() *sessionLocker {
	return &sessionLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *sessionLocker) lockFor(sessionID string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[sessionID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[sessionID] = m
	}
	return m
}

// withSessionLock runs fn while holding the per-session lock.
func (s *Store) withSessionLock(sessionID string, fn func() error) error {
	m := s.locker.lockFor(sessionID)
	m.Lock()
	defer m.Unlock()
	return fn()
}
