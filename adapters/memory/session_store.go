package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"questkit/domain/core"
	"questkit/models"
)

// SessionStore is an in-memory implementation of the session and trial
// repositories, used when no DATABASE_URL is configured and in tests.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[core.SessionID]*models.ExperimentSession
	trials   map[core.SessionID][]*models.TrialRecord
}

// NewSessionStore creates an empty in-memory store
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[core.SessionID]*models.ExperimentSession),
		trials:   make(map[core.SessionID][]*models.TrialRecord),
	}
}

// CreateSession stores a copy of the session
func (s *SessionStore) CreateSession(_ context.Context, session *models.ExperimentSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *session
	s.sessions[session.ID] = &cp
	return nil
}

// GetSession returns a copy of the stored session
func (s *SessionStore) GetSession(_ context.Context, id core.SessionID) (*models.ExperimentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	cp := *session
	return &cp, nil
}

// UpdateSessionState transitions the stored session's lifecycle state
func (s *SessionStore) UpdateSessionState(_ context.Context, id core.SessionID, state models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return core.ErrSessionNotFound
	}
	session.State = state
	session.UpdatedAt = time.Now().UTC()
	return nil
}

// ListSessions returns stored sessions, newest first
func (s *SessionStore) ListSessions(_ context.Context, limit int) ([]*models.ExperimentSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.ExperimentSession, 0, len(s.sessions))
	for _, session := range s.sessions {
		cp := *session
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// AppendTrial stores one trial row in arrival order
func (s *SessionStore) AppendTrial(_ context.Context, trial *models.TrialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *trial
	s.trials[trial.SessionID] = append(s.trials[trial.SessionID], &cp)
	return nil
}

// ListTrials returns the session's trials in observation order
func (s *SessionStore) ListTrials(_ context.Context, sessionID core.SessionID) ([]*models.TrialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	stored := s.trials[sessionID]
	out := make([]*models.TrialRecord, 0, len(stored))
	for _, tr := range stored {
		cp := *tr
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, nil
}
