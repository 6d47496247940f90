package memory

import (
	"context"
	"strings"
	"sync"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// UserStore is a goroutine-safe in-memory UserRepository.
type UserStore struct {
	mu      sync.RWMutex
	users   map[string]models.User
	byEmail map[string]string
}

func NewUserStore() *UserStore {
	return &UserStore{
		users:   make(map[string]models.User),
		byEmail: make(map[string]string),
	}
}

func (s *UserStore) Create(_ context.Context, u *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, exists := s.byEmail[key]; exists {
		return repository.ErrConflict
	}
	s.users[u.ID] = *u
	s.byEmail[key] = u.ID
	return nil
}

func (s *UserStore) GetByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (s *UserStore) GetByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byEmail[strings.ToLower(email)]
	if !ok {
		return nil, nil
	}
	u := s.users[id]
	return &u, nil
}

func (s *UserStore) Update(_ context.Context, id string, fn func(u *models.User) error) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	oldEmail := strings.ToLower(u.Email)
	if err := fn(&u); err != nil {
		return nil, err
	}
	u.ID = id
	if newEmail := strings.ToLower(u.Email); newEmail != oldEmail {
		if _, taken := s.byEmail[newEmail]; taken {
			return nil, repository.ErrConflict
		}
		delete(s.byEmail, oldEmail)
		s.byEmail[newEmail] = id
	}
	s.users[id] = u
	out := u
	return &out, nil
}
