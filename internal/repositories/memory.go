package repositories

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/desertthunder/blendify/internal/models"
	"github.com/desertthunder/blendify/internal/shared"
)

// MemorySessionStore implements [models.SessionStore] with a map guarded by a mutex.
//
// Sessions are copied in and out so callers never share slices with the store.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
	now      func() time.Time
}

// NewMemorySessionStore creates an empty [MemorySessionStore].
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{sessions: make(map[string]*models.Session), now: time.Now}
}

// Create stores s unless a live session already uses its id. An expired session with the same id is replaced.
func (m *MemorySessionStore) Create(ctx context.Context, s *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[s.ID]; ok && !existing.Expired(m.now()) {
		return fmt.Errorf("%w: %s", shared.ErrSessionExists, s.ID)
	}
	m.sessions[s.ID] = s.Clone()
	return nil
}

// Get returns a copy of the session with id.
func (m *MemorySessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok || s.Expired(m.now()) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	return s.Clone(), nil
}

// Update runs fn against a copy of the session under the write lock and stores the result if fn succeeds.
func (m *MemorySessionStore) Update(ctx context.Context, id string, fn func(*models.Session) error) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	s, ok := m.sessions[id]
	if !ok || s.Expired(now) {
		return nil, fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}

	updated := s.Clone()
	if err := fn(updated); err != nil {
		return nil, err
	}
	updated.ID = id
	updated.UpdatedAt = now

	m.sessions[id] = updated
	return updated.Clone(), nil
}

// Delete removes the session with id.
func (m *MemorySessionStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Evict removes every session that expired at or before now.
func (m *MemorySessionStore) Evict(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.Expired(now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// Len returns the number of stored sessions, expired ones included.
func (m *MemorySessionStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// MemoryCredentialStore implements [models.CredentialStore] with a map guarded by a mutex.
type MemoryCredentialStore struct {
	mu          sync.RWMutex
	credentials map[string]*models.Credential
	now         func() time.Time
}

// NewMemoryCredentialStore creates an empty [MemoryCredentialStore].
func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{credentials: make(map[string]*models.Credential), now: time.Now}
}

// Create stores c, replacing any credential with the same id.
func (m *MemoryCredentialStore) Create(ctx context.Context, c *models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *c
	if c.Token != nil {
		token := *c.Token
		stored.Token = &token
	}
	m.credentials[c.ID] = &stored
	return nil
}

// Get returns a copy of the credential with id.
func (m *MemoryCredentialStore) Get(ctx context.Context, id string) (*models.Credential, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	c, ok := m.credentials[id]
	if !ok || c.Expired(m.now()) {
		return nil, fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, id)
	}

	out := *c
	if c.Token != nil {
		token := *c.Token
		out.Token = &token
	}
	return &out, nil
}

// Delete removes the credential with id.
func (m *MemoryCredentialStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.credentials[id]; !ok {
		return fmt.Errorf("%w: %s", shared.ErrCredentialNotFound, id)
	}
	delete(m.credentials, id)
	return nil
}

// Evict removes every credential that expired at or before now.
func (m *MemoryCredentialStore) Evict(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, c := range m.credentials {
		if c.Expired(now) {
			delete(m.credentials, id)
			removed++
		}
	}
	return removed, nil
}
