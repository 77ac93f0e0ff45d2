package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

// MemoryStore keeps sessions in process memory. It suits tests and single
// instance deployments; sessions do not survive a restart.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*memoryEntry
	now      func() time.Time
}

type memoryEntry struct {
	fields    map[string]string
	expiresAt time.Time
}

// NewMemoryStore returns an empty store that reads time from now, or from
// time.Now when now is nil.
func NewMemoryStore(now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
		now:      now,
	}
}

// lookup returns a live entry, evicting it if it has expired. Callers hold mu.
func (s *MemoryStore) lookup(id string) (*memoryEntry, bool) {
	e, ok := s.sessions[id]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		delete(s.sessions, id)
		return nil, false
	}
	return e, true
}

func (s *MemoryStore) Create(_ context.Context, sess *Session, ttl time.Duration) error {
	if sess == nil || sess.ID == "" {
		return errors.New("session: missing id")
	}

	e := &memoryEntry{fields: sess.fields()}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	s.sessions[sess.ID] = e
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string, ttl time.Duration) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	return fromFields(id, e.fields)
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	s.mu.Unlock()
	return nil
}

// Update holds the store lock for the whole callback, so fn must not call
// back into the store.
func (s *MemoryStore) Update(_ context.Context, id, field string, fn UpdateFunc) error {
	if err := checkField(field); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.lookup(id)
	if !ok {
		return ErrNotFound
	}

	current, exists := e.fields[field]
	action, next, err := fn(current, exists)
	if err != nil {
		return err
	}

	switch action {
	case Set:
		e.fields[field] = next
	case Remove:
		delete(e.fields, field)
	}
	return nil
}

// Len reports the number of stored sessions, expired ones included until
// they are next touched.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}
