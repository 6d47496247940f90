package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lalith-99/playhub/internal/models"
)

// Conventions shared by every repository:
//
//   - context.Context comes first on every method, even for the in-memory
//     stores, so Postgres and Redis backings fit the same contract.
//   - Lookups return nil, nil when the record does not exist.
//   - Update runs fn against the stored aggregate while holding that
//     aggregate's lock (mutex, row lock or WATCH). If fn returns an error
//     nothing is written and the error is returned as-is. Update returns
//     nil, nil when the record does not exist.
//   - Everything returned is a copy. Mutating it does not touch the store.

// ErrConflict is returned by Create when a unique key is already taken.
var ErrConflict = errors.New("repository: conflict")

// UserRepository handles accounts.
type UserRepository interface {
	// Create stores u. ErrConflict if the email is already registered.
	Create(ctx context.Context, u *models.User) error

	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByEmail matches case-insensitively.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	Update(ctx context.Context, id string, fn func(u *models.User) error) (*models.User, error)
}

// SessionRepository holds chat sessions.
type SessionRepository interface {
	Create(ctx context.Context, s *models.ChatSession) error
	Get(ctx context.Context, id string) (*models.ChatSession, error)
	Update(ctx context.Context, id string, fn func(s *models.ChatSession) error) (*models.ChatSession, error)
	Delete(ctx context.Context, id string) error

	// List returns every live session, in no particular order.
	List(ctx context.Context) ([]models.ChatSession, error)

	// DeleteIdleSince removes sessions whose LastActivity is before cutoff
	// and reports how many were removed.
	DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error)

	// NextMessageID hands out the process-wide message sequence.
	NextMessageID(ctx context.Context) (int64, error)
}

// CommentRepository holds section comments.
type CommentRepository interface {
	Create(ctx context.Context, c *models.Comment) error
	GetByID(ctx context.Context, id string) (*models.Comment, error)

	// List returns comments of a section in insertion order.
	// An empty section means every section.
	List(ctx context.Context, section string) ([]models.Comment, error)

	Update(ctx context.Context, id string, fn func(c *models.Comment) error) (*models.Comment, error)

	// DeleteWithReplies removes the comment and every comment whose
	// ParentID is id. Returns the number of rows removed (0 if id is unknown).
	DeleteWithReplies(ctx context.Context, id string) (int, error)
}

// PostRepository holds forum posts, soft-deleted ones included.
// Filtering deleted posts out is the service's job.
type PostRepository interface {
	// Create stores p ahead of every existing post.
	Create(ctx context.Context, p *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)

	// List returns posts in storage order, most recent first.
	List(ctx context.Context) ([]models.Post, error)

	Update(ctx context.Context, id string, fn func(p *models.Post) error) (*models.Post, error)
}

// GuideRepository holds the shared guide catalog.
type GuideRepository interface {
	List(ctx context.Context) ([]models.Guide, error)
	GetByID(ctx context.Context, id string) (*models.Guide, error)
	Update(ctx context.Context, id string, fn func(g *models.Guide) error) (*models.Guide, error)
}

// InteractionRepository holds per-user guide interactions, kept apart
// from the catalog entries they refer to.
type InteractionRepository interface {
	// Get returns nil, nil when the user never interacted with the guide.
	Get(ctx context.Context, userID, guideID string) (*models.GuideInteractions, error)

	// Update creates a zero record before calling fn when none exists.
	Update(ctx context.Context, userID, guideID string, fn func(gi *models.GuideInteractions) error) (*models.GuideInteractions, error)

	ListByUser(ctx context.Context, userID string) ([]models.GuideInteractions, error)
}
