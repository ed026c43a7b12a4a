package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/opuluxe-ai/fashion-assistant/internal/model"
)

type sessionKey struct {
	owner string
	id    string
}

// Memory is an in-process store, used in development and tests.
type Memory struct {
	mu       sync.RWMutex
	sessions map[sessionKey]*model.Session
	profiles map[string][]model.Profile
	now      func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		sessions: make(map[sessionKey]*model.Session),
		profiles: make(map[string][]model.Profile),
		now:      time.Now,
	}
}

// Create stores a new session.
func (m *Memory) Create(_ context.Context, session *model.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{session.Owner, session.ID}
	if _, exists := m.sessions[key]; exists {
		return ErrConflict
	}
	m.sessions[key] = cloneSession(session)
	return nil
}

// Append adds turns to the end of an existing session.
func (m *Memory) Append(_ context.Context, owner, sessionID string, turns ...model.Turn) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[sessionKey{owner, sessionID}]
	if !ok {
		return ErrNotFound
	}
	s.Turns = append(s.Turns, turns...)
	s.UpdatedAt = m.now()
	return nil
}

// Get returns a copy of the session.
func (m *Memory) Get(_ context.Context, owner, sessionID string) (*model.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[sessionKey{owner, sessionID}]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneSession(s), nil
}

// List returns the owner's sessions, newest activity first.
func (m *Memory) List(_ context.Context, owner string) ([]model.SessionSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.SessionSummary
	for key, s := range m.sessions {
		if key.owner == owner {
			out = append(out, s.Summary())
		}
	}
	SortSummaries(out)
	return out, nil
}

// Delete removes the session.
func (m *Memory) Delete(_ context.Context, owner, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := sessionKey{owner, sessionID}
	if _, ok := m.sessions[key]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, key)
	return nil
}

// SaveProfile upserts the profile.
func (m *Memory) SaveProfile(_ context.Context, profile *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.profiles[profile.Owner]
	for i := range list {
		if list[i].ID.Matches(profile.ID) {
			list[i] = *profile
			return nil
		}
	}
	m.profiles[profile.Owner] = append(list, *profile)
	return nil
}

// GetProfile returns the owner's profile with a matching ID.
func (m *Memory) GetProfile(_ context.Context, owner string, id model.ProfileID) (*model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, p := range m.profiles[owner] {
		if p.ID.Matches(id) {
			p := p
			return &p, nil
		}
	}
	return nil, ErrNotFound
}

// ListProfiles returns the owner's profiles in insertion order.
func (m *Memory) ListProfiles(_ context.Context, owner string) ([]model.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return append([]model.Profile(nil), m.profiles[owner]...), nil
}

// DeleteProfile removes the owner's profile with a matching ID.
func (m *Memory) DeleteProfile(_ context.Context, owner string, id model.ProfileID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	list := m.profiles[owner]
	for i := range list {
		if list[i].ID.Matches(id) {
			m.profiles[owner] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return ErrNotFound
}

// SortSummaries orders summaries by most recent activity, then newest created.
func SortSummaries(s []model.SessionSummary) {
	sort.SliceStable(s, func(i, j int) bool {
		if !s[i].UpdatedAt.Equal(s[j].UpdatedAt) {
			return s[i].UpdatedAt.After(s[j].UpdatedAt)
		}
		return s[i].CreatedAt.After(s[j].CreatedAt)
	})
}

func cloneSession(s *model.Session) *model.Session {
	c := *s
	c.Turns = append([]model.Turn(nil), s.Turns...)
	return &c
}
