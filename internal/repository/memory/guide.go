package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/playhub/internal/models"
)

// GuideStore holds the shared guide catalog in catalog order.
type GuideStore struct {
	mu     sync.RWMutex
	guides []models.Guide
	index  map[string]int
}

func NewGuideStore(catalog []models.Guide) *GuideStore {
	s := &GuideStore{index: make(map[string]int, len(catalog))}
	for _, g := range catalog {
		s.index[g.ID] = len(s.guides)
		s.guides = append(s.guides, cloneGuide(g))
	}
	return s
}

func (s *GuideStore) List(_ context.Context) ([]models.Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Guide, 0, len(s.guides))
	for _, g := range s.guides {
		out = append(out, cloneGuide(g))
	}
	return out, nil
}

func (s *GuideStore) GetByID(_ context.Context, id string) (*models.Guide, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	g := cloneGuide(s.guides[i])
	return &g, nil
}

// Update works on a clone while holding the store lock and only writes it
// back when fn succeeds, so a failed fn leaves the stored guide untouched.
// Counters like Downloads and Likes are bumped inside fn; the lock makes
// each bump see the previous one.
func (s *GuideStore) Update(_ context.Context, id string, fn func(*models.Guide) error) (*models.Guide, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return nil, nil
	}
	g := cloneGuide(s.guides[i])
	if err := fn(&g); err != nil {
		return nil, err
	}
	g.ID = id
	s.guides[i] = g
	out := cloneGuide(g)
	return &out, nil
}

func cloneGuide(g models.Guide) models.Guide {
	g.Tags = append([]string(nil), g.Tags...)
	return g
}
