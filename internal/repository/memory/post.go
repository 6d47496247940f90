package memory

import (
	"context"
	"sync"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// PostStore keeps posts most-recent-first. New posts are prepended.
type PostStore struct {
	mu    sync.RWMutex
	posts []*models.Post
}

// NewPostStore returns a store pre-loaded with seed, kept in the given order.
func NewPostStore(seed ...models.Post) *PostStore {
	s := &PostStore{}
	for i := range seed {
		s.posts = append(s.posts, seed[i].Clone())
	}
	return s
}

func (s *PostStore) Create(_ context.Context, p *models.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.indexLocked(p.ID) >= 0 {
		return repository.ErrConflict
	}
	s.posts = append([]*models.Post{p.Clone()}, s.posts...)
	return nil
}

func (s *PostStore) GetByID(_ context.Context, id string) (*models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	return s.posts[i].Clone(), nil
}

func (s *PostStore) List(_ context.Context) ([]models.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Post, 0, len(s.posts))
	for _, p := range s.posts {
		out = append(out, *p.Clone())
	}
	return out, nil
}

// Update hands fn a clone of the post with its replies. The whole thread is
// one aggregate, so a reply and a like on the same post serialize here.
func (s *PostStore) Update(_ context.Context, id string, fn func(*models.Post) error) (*models.Post, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return nil, nil
	}
	working := s.posts[i].Clone()
	if err := fn(working); err != nil {
		return nil, err
	}
	s.posts[i] = working
	return working.Clone(), nil
}

func (s *PostStore) indexLocked(id string) int {
	for i, p := range s.posts {
		if p.ID == id {
			return i
		}
	}
	return -1
}
