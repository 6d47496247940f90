package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

func TestUserStore_CreateAndLookup(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()

	require.NoError(t, s.Create(ctx, &models.User{ID: "u1", Email: "Ana@Example.com", Username: "ana"}))
	assert.ErrorIs(t, s.Create(ctx, &models.User{ID: "u2", Email: "ana@example.com"}), repository.ErrConflict)

	byEmail, err := s.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, byEmail)
	assert.Equal(t, "u1", byEmail.ID)

	missing, err := s.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestUserStore_UpdateAbortsOnError(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore()
	require.NoError(t, s.Create(ctx, &models.User{ID: "u1", Email: "a@a.gg", TokenUsage: 5}))

	boom := errors.New("boom")
	_, err := s.Update(ctx, "u1", func(u *models.User) error {
		u.TokenUsage = 99
		return boom
	})
	assert.ErrorIs(t, err, boom)

	u, _ := s.GetByID(ctx, "u1")
	assert.Equal(t, 5, u.TokenUsage)
}

func TestSessionStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	require.NoError(t, s.Create(ctx, &models.ChatSession{ID: "s1", Messages: []models.ChatMessage{{ID: 1}}}))

	got, _ := s.Get(ctx, "s1")
	got.Messages = append(got.Messages, models.ChatMessage{ID: 2})

	again, _ := s.Get(ctx, "s1")
	assert.Len(t, again.Messages, 1)
}

func TestSessionStore_DeleteIdleSince(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()
	now := time.Now()
	require.NoError(t, s.Create(ctx, &models.ChatSession{ID: "old", LastActivity: now.Add(-2 * time.Hour)}))
	require.NoError(t, s.Create(ctx, &models.ChatSession{ID: "fresh", LastActivity: now}))

	n, err := s.DeleteIdleSince(ctx, now.Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	old, _ := s.Get(ctx, "old")
	assert.Nil(t, old)
}

func TestSessionStore_MessageSequenceIsMonotonic(t *testing.T) {
	ctx := context.Background()
	s := NewSessionStore()

	var wg sync.WaitGroup
	seen := make(chan int64, 100)
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			id, _ := s.NextMessageID(ctx)
			seen <- id
		}()
	}
	wg.Wait()
	close(seen)

	unique := make(map[int64]bool)
	for id := range seen {
		unique[id] = true
	}
	assert.Len(t, unique, 100)
}

func TestCommentStore_DeleteWithReplies(t *testing.T) {
	ctx := context.Background()
	s := NewCommentStore()
	require.NoError(t, s.Create(ctx, &models.Comment{ID: "c1", Section: "home"}))
	require.NoError(t, s.Create(ctx, &models.Comment{ID: "c2", Section: "home", ParentID: "c1"}))
	require.NoError(t, s.Create(ctx, &models.Comment{ID: "c3", Section: "home"}))

	n, err := s.DeleteWithReplies(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, _ := s.List(ctx, "")
	require.Len(t, left, 1)
	assert.Equal(t, "c3", left[0].ID)

	n, err = s.DeleteWithReplies(ctx, "missing")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPostStore_CreatePrepends(t *testing.T) {
	ctx := context.Background()
	s := NewPostStore(models.Post{ID: "seed"})
	require.NoError(t, s.Create(ctx, &models.Post{ID: "new"}))

	posts, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, posts, 2)
	assert.Equal(t, "new", posts[0].ID)
}

func TestInteractionStore_UpdateCreatesRecord(t *testing.T) {
	ctx := context.Background()
	s := NewInteractionStore()

	none, err := s.Get(ctx, "u1", "g1")
	require.NoError(t, err)
	assert.Nil(t, none)

	gi, err := s.Update(ctx, "u1", "g1", func(gi *models.GuideInteractions) error {
		gi.UserLiked = true
		return nil
	})
	require.NoError(t, err)
	assert.True(t, gi.UserLiked)
	assert.Equal(t, "u1", gi.UserID)

	list, _ := s.ListByUser(ctx, "u1")
	assert.Len(t, list, 1)
	other, _ := s.ListByUser(ctx, "u2")
	assert.Empty(t, other)
}
