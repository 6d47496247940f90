package memory

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// SessionStore keeps chat sessions in a map guarded by one mutex.
// The message sequence is a separate atomic counter.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.ChatSession
	seq      atomic.Int64
}

func NewSessionStore() *SessionStore {
	return &SessionStore{sessions: make(map[string]*models.ChatSession)}
}

func (s *SessionStore) Create(_ context.Context, sess *models.ChatSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[sess.ID]; exists {
		return repository.ErrConflict
	}
	s.sessions[sess.ID] = sess.Clone()
	return nil
}

func (s *SessionStore) Get(_ context.Context, id string) (*models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	return sess.Clone(), nil
}

func (s *SessionStore) Update(_ context.Context, id string, fn func(*models.ChatSession) error) (*models.ChatSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.sessions[id]
	if !ok {
		return nil, nil
	}
	working := stored.Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.sessions[id] = working
	return working.Clone(), nil
}

func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

func (s *SessionStore) List(_ context.Context) ([]models.ChatSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.ChatSession, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess.Clone())
	}
	return out, nil
}

func (s *SessionStore) DeleteIdleSince(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, sess := range s.sessions {
		if sess.LastActivity.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

func (s *SessionStore) NextMessageID(_ context.Context) (int64, error) {
	return s.seq.Add(1), nil
}
