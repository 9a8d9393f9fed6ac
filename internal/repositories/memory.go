package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/madc0w/playlister/internal/models"
	"github.com/madc0w/playlister/internal/shared"
)

// MemorySessionStore keeps sessions in process memory. Values are copied
// in and out so callers never share a *Session with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session)}
}

func (m *MemorySessionStore) Create(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	if session.ID == "" {
		session.ID = shared.GenerateID()
	}
	now := time.Now()
	if session.CreatedAt.IsZero() {
		session.CreatedAt = now
	}
	session.UpdatedAt = now

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

func (m *MemorySessionStore) Update(ctx context.Context, session *models.Session) error {
	if err := session.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidSession, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[session.ID]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, session.ID)
	}
	session.UpdatedAt = time.Now()
	m.sessions[session.ID] = session.Clone()
	return nil
}

func (m *MemorySessionStore) Touch(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	s.UpdatedAt = time.Now()
	return nil
}

func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// List returns sessions ordered by creation time.
func (m *MemorySessionStore) List(ctx context.Context) ([]*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]*models.Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, s.Clone())
	}
	sortSessions(sessions)
	return sessions, nil
}

func sortSessions(sessions []*models.Session) {
	sort.Slice(sessions, func(i, j int) bool {
		return sessions[i].CreatedAt.Before(sessions[j].CreatedAt)
	})
}

func (m *MemorySessionStore) DeleteExpired(ctx context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := 0
	for id, s := range m.sessions {
		if s.UpdatedAt.Before(before) {
			delete(m.sessions, id)
			n++
		}
	}
	return n, nil
}

var _ models.SessionStore = (*MemorySessionStore)(nil)
