package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/playhub/internal/models"
)

// InteractionStore is the userID -> guideID -> interactions map.
type InteractionStore struct {
	mu     sync.RWMutex
	byUser map[string]map[string]models.GuideInteractions
}

func NewInteractionStore() *InteractionStore {
	return &InteractionStore{byUser: make(map[string]map[string]models.GuideInteractions)}
}

func (s *InteractionStore) Get(_ context.Context, userID, guideID string) (*models.GuideInteractions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	gi, ok := s.byUser[userID][guideID]
	if !ok {
		return nil, nil
	}
	return &gi, nil
}

func (s *InteractionStore) Update(_ context.Context, userID, guideID string, fn func(*models.GuideInteractions) error) (*models.GuideInteractions, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perUser, ok := s.byUser[userID]
	if !ok {
		perUser = make(map[string]models.GuideInteractions)
		s.byUser[userID] = perUser
	}
	gi, ok := perUser[guideID]
	if !ok {
		gi = models.GuideInteractions{UserID: userID, GuideID: guideID}
	}
	if err := fn(&gi); err != nil {
		return nil, err
	}
	gi.UserID, gi.GuideID = userID, guideID
	perUser[guideID] = gi
	out := gi
	return &out, nil
}

func (s *InteractionStore) ListByUser(_ context.Context, userID string) ([]models.GuideInteractions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.GuideInteractions, 0, len(s.byUser[userID]))
	for _, gi := range s.byUser[userID] {
		out = append(out, gi)
	}
	return out, nil
}
