package comment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const (
	topAuthorsLimit    = 5
	defaultSearchLimit = 10
)

// CreateInput is what a client sends to post a comment.
type CreateInput struct {
	Author  string `json:"author"`
	Avatar  string `json:"avatar"`
	Content string `json:"content"`
	Section string `json:"section"`
	UserID  string `json:"user_id"`
}

// Filter narrows GetComments. Limit 0 means no limit.
type Filter struct {
	Section string
	Author  string
	Offset  int
	Limit   int
}

type AuthorCount struct {
	Author string `json:"author"`
	Count  int    `json:"count"`
}

type Stats struct {
	Total      int           `json:"total"`
	Today      int           `json:"today"`
	ThisWeek   int           `json:"this_week"`
	TopAuthors []AuthorCount `json:"top_authors"`
}

type Service struct {
	comments repository.CommentRepository
	now      func() time.Time
	logger   *zap.Logger
}

func NewService(comments repository.CommentRepository, logger *zap.Logger) *Service {
	return &Service{comments: comments, now: time.Now, logger: logger}
}

// CreateComment stores a new top-level comment owned by userID.
func (s *Service) CreateComment(ctx context.Context, in CreateInput, userID string) (*models.Comment, error) {
	return s.create(ctx, in, "", userID)
}

func (s *Service) create(ctx context.Context, in CreateInput, parentID, userID string) (*models.Comment, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	if in.UserID != userID {
		return nil, apperr.Forbidden("no tienes permisos para comentar en nombre de otro usuario")
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Invalid("el comentario no puede estar vacío")
	}

	now := s.now()
	c := &models.Comment{
		ID:        uuid.NewString(),
		Author:    in.Author,
		Avatar:    in.Avatar,
		Content:   content,
		Section:   in.Section,
		ParentID:  parentID,
		UserID:    userID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	s.logger.Debug("comment created",
		zap.String("comment_id", c.ID),
		zap.String("section", c.Section),
		zap.String("user_id", userID),
	)
	return c, nil
}

// GetComments returns comments newest first, filtered then paginated.
func (s *Service) GetComments(ctx context.Context, f Filter) ([]models.Comment, error) {
	all, err := s.comments.List(ctx, f.Section)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	author := strings.ToLower(f.Author)
	out := make([]models.Comment, 0, len(all))
	for i := len(all) - 1; i >= 0; i-- {
		c := all[i]
		if author != "" && !strings.Contains(strings.ToLower(c.Author), author) {
			continue
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	return paginate(out, f.Offset, f.Limit), nil
}

// GetComment returns the comment with its direct replies attached.
func (s *Service) GetComment(ctx context.Context, id string) (*models.Comment, error) {
	c, err := s.comments.GetByID(ctx, id)
	if err != nil || c == nil {
		return nil, err
	}
	replies, err := s.GetReplies(ctx, id)
	if err != nil {
		return nil, err
	}
	c.Replies = replies
	return c, nil
}

// GetReplies returns the direct replies of parentID, oldest first.
func (s *Service) GetReplies(ctx context.Context, parentID string) ([]models.Comment, error) {
	all, err := s.comments.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	out := []models.Comment{}
	for _, c := range all {
		if c.ParentID == parentID {
			out = append(out, c)
		}
	}
	return out, nil
}

// UpdateComment replaces the content. Returns nil for unknown ids.
func (s *Service) UpdateComment(ctx context.Context, id, content, userID string) (*models.Comment, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperr.Invalid("el comentario no puede estar vacío")
	}
	return s.comments.Update(ctx, id, func(c *models.Comment) error {
		if c.UserID != userID {
			return apperr.Forbidden("no tienes permisos para editar este comentario")
		}
		c.Content = content
		c.IsEdited = true
		c.UpdatedAt = s.now()
		return nil
	})
}

// DeleteComment removes the comment and its direct replies.
func (s *Service) DeleteComment(ctx context.Context, id, userID string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	c, err := s.comments.GetByID(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get comment: %w", err)
	}
	if c == nil {
		return false, nil
	}
	if c.UserID != userID {
		return false, apperr.Forbidden("no tienes permisos para eliminar este comentario")
	}

	removed, err := s.comments.DeleteWithReplies(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete comment: %w", err)
	}
	s.logger.Info("comment deleted", zap.String("comment_id", id), zap.Int("removed", removed))
	return removed > 0, nil
}

func (s *Service) LikeComment(ctx context.Context, id string) (bool, error) {
	return s.adjustLikes(ctx, id, 1)
}

func (s *Service) UnlikeComment(ctx context.Context, id string) (bool, error) {
	return s.adjustLikes(ctx, id, -1)
}

func (s *Service) adjustLikes(ctx context.Context, id string, delta int) (bool, error) {
	c, err := s.comments.Update(ctx, id, func(c *models.Comment) error {
		c.Likes = max(c.Likes+delta, 0)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("update likes: %w", err)
	}
	return c != nil, nil
}

// ReplyToComment creates a reply under parentID. Returns nil when the
// parent does not exist.
func (s *Service) ReplyToComment(ctx context.Context, parentID string, in CreateInput, userID string) (*models.Comment, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	parent, err := s.comments.GetByID(ctx, parentID)
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	if parent == nil {
		return nil, nil
	}
	if in.Section == "" {
		in.Section = parent.Section
	}
	return s.create(ctx, in, parentID, userID)
}

// GetCommentStats aggregates a section, or every section when empty.
func (s *Service) GetCommentStats(ctx context.Context, section string) (*Stats, error) {
	all, err := s.comments.List(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	now := s.now()
	y, m, d := now.Date()
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{Total: len(all), TopAuthors: []AuthorCount{}}
	perAuthor := make(map[string]int)
	for _, c := range all {
		cy, cm, cd := c.CreatedAt.In(now.Location()).Date()
		if cy == y && cm == m && cd == d {
			stats.Today++
		}
		if c.CreatedAt.After(weekAgo) {
			stats.ThisWeek++
		}
		perAuthor[c.Author]++
	}

	for author, count := range perAuthor {
		stats.TopAuthors = append(stats.TopAuthors, AuthorCount{Author: author, Count: count})
	}
	sort.Slice(stats.TopAuthors, func(i, j int) bool {
		a, b := stats.TopAuthors[i], stats.TopAuthors[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Author < b.Author
	})
	if len(stats.TopAuthors) > topAuthorsLimit {
		stats.TopAuthors = stats.TopAuthors[:topAuthorsLimit]
	}
	return stats, nil
}

// SearchComments ranks comments whose content or author contains query.
//
// Score: 10 when content contains the whole query, plus 2 for every query
// word found in the content, plus 1 for every query word found in the
// author, plus a tenth of the likes.
func (s *Service) SearchComments(ctx context.Context, query, section string, limit int) ([]models.Comment, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return []models.Comment{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}

	all, err := s.comments.List(ctx, section)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	words := strings.Fields(q)
	type scored struct {
		comment models.Comment
		score   float64
	}
	var hits []scored
	for _, c := range all {
		content := strings.ToLower(c.Content)
		author := strings.ToLower(c.Author)
		if !strings.Contains(content, q) && !strings.Contains(author, q) {
			continue
		}

		score := 0.0
		if strings.Contains(content, q) {
			score += 10
		}
		for _, w := range words {
			if strings.Contains(content, w) {
				score += 2
			}
			if strings.Contains(author, w) {
				score++
			}
		}
		score += 0.1 * float64(c.Likes)
		hits = append(hits, scored{comment: c, score: score})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })
	if len(hits) > limit {
		hits = hits[:limit]
	}

	out := make([]models.Comment, len(hits))
	for i, h := range hits {
		out[i] = h.comment
	}
	return out, nil
}

func paginate[T any](items []T, offset, limit int) []T {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
