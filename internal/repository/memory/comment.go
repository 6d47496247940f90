package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// CommentStore keeps comments in a flat slice in insertion order.
type CommentStore struct {
	mu       sync.RWMutex
	comments []models.Comment
}

func NewCommentStore() *CommentStore {
	return &CommentStore{}
}

func (s *CommentStore) Create(_ context.Context, c *models.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(c.ID) >= 0 {
		return repository.ErrConflict
	}
	stored := *c
	stored.Replies = nil
	s.comments = append(s.comments, stored)
	return nil
}

func (s *CommentStore) GetByID(_ context.Context, id string) (*models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	c := s.comments[i]
	return &c, nil
}

func (s *CommentStore) List(_ context.Context, section string) ([]models.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Comment, 0, len(s.comments))
	for _, c := range s.comments {
		if section != "" && c.Section != section {
			continue
		}
		out = append(out, c)
	}
	return out, nil
}

func (s *CommentStore) Update(_ context.Context, id string, fn func(*models.Comment) error) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	c := s.comments[i]
	if err := fn(&c); err != nil {
		return nil, err
	}
	s.comments[i] = c
	out := c
	return &out, nil
}

func (s *CommentStore) DeleteWithReplies(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(id) < 0 {
		return 0, nil
	}
	kept := s.comments[:0]
	removed := 0
	for _, c := range s.comments {
		if c.ID == id || c.ParentID == id {
			removed++
			continue
		}
		kept = append(kept, c)
	}
	s.comments = kept
	return removed, nil
}

func (s *CommentStore) indexLocked(id string) int {
	for i := range s.comments {
		if s.comments[i].ID == id {
			return i
		}
	}
	return -1
}
