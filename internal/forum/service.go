package forum

import (
	"context"
	"errors"
	"fmt"
	"slices"
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
	DefaultLimit = 10

	SortNewest        = "newest"
	SortPopular       = "popular"
	SortMostCommented = "most-commented"

	topAuthorsLimit  = 5
	suggestionsLimit = 5
	minSuggestionLen = 4
)

// errGone aborts an Update on a soft-deleted post.
//
// Deleted posts stay in the store with IsDeleted set. Checking the flag
// inside the Update callback means the check and the write happen under
// the same lock: a like racing a delete either lands before the delete or
// sees the flag and writes nothing. visible turns errGone back into the
// usual nil, nil "not found" result.
var errGone = errors.New("post deleted")

type CreatePostInput struct {
	Title    string          `json:"title"`
	Content  string          `json:"content"`
	Category models.Category `json:"category"`
	Tags     []string        `json:"tags"`
	AuthorID string          `json:"author_id"`
}

// UpdatePostInput changes only the fields that are set.
type UpdatePostInput struct {
	Title    *string          `json:"title"`
	Content  *string          `json:"content"`
	Category *models.Category `json:"category"`
	Tags     []string         `json:"tags"`
}

type ReplyInput struct {
	Content  string `json:"content"`
	ParentID string `json:"parent_id"`
}

type Params struct {
	Category models.Category
	Author   string
	Tags     []string
	Query    string
	SortBy   string
	Offset   int
	Limit    int
}

type PostPage struct {
	Posts   []models.Post `json:"posts"`
	Total   int           `json:"total"`
	HasMore bool          `json:"has_more"`
}

type SearchResult struct {
	PostPage
	Suggestions []string `json:"suggestions"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

type CategoryCount struct {
	Category models.Category `json:"category"`
	Count    int             `json:"count"`
}

type AuthorCount struct {
	Author models.PostAuthor `json:"author"`
	Count  int               `json:"count"`
}

type Stats struct {
	TotalPosts        int             `json:"total_posts"`
	TotalAuthors      int             `json:"total_authors"`
	PostsToday        int             `json:"posts_today"`
	PostsThisWeek     int             `json:"posts_this_week"`
	PopularCategories []CategoryCount `json:"popular_categories"`
	TopAuthors        []AuthorCount   `json:"top_authors"`
}

// Service is the community forum. A post and its replies are one
// aggregate: every change goes through PostRepository.Update.
type Service struct {
	posts   repository.PostRepository
	authors *AuthorDirectory
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(posts repository.PostRepository, authors *AuthorDirectory, logger *zap.Logger) *Service {
	return &Service{posts: posts, authors: authors, now: time.Now, logger: logger}
}

func (s *Service) CreatePost(ctx context.Context, in CreatePostInput, currentUserID string) (*models.Post, error) {
	if err := apperr.RequireUser(currentUserID); err != nil {
		return nil, err
	}
	if in.AuthorID != currentUserID {
		return nil, apperr.Forbidden("no tienes permisos para publicar en nombre de otro usuario")
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Invalid("el título es obligatorio")
	}
	if strings.TrimSpace(in.Content) == "" {
		return nil, apperr.Invalid("el contenido es obligatorio")
	}
	if !in.Category.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("categoría desconocida: %q", in.Category))
	}

	author, err := s.authors.Resolve(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &models.Post{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      in.Content,
		Author:       author,
		Category:     in.Category,
		Tags:         normalizeTags(in.Tags),
		Views:        1,
		LikedBy:      []string{},
		BookmarkedBy: []string{},
		ViewedBy:     []string{},
		Reports:      []models.PostReport{},
		Replies:      []models.PostReply{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.posts.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	s.logger.Info("post created",
		zap.String("post_id", p.ID),
		zap.String("category", string(p.Category)),
		zap.String("user_id", currentUserID),
	)
	return p, nil
}

// GetPosts filters, sorts and paginates the visible posts.
func (s *Service) GetPosts(ctx context.Context, params Params) (*PostPage, error) {
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	author := strings.ToLower(params.Author)
	query := strings.ToLower(strings.TrimSpace(params.Query))
	matched := make([]models.Post, 0, len(all))
	for _, p := range all {
		if p.IsDeleted {
			continue
		}
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if author != "" && !strings.Contains(strings.ToLower(p.Author.Name), author) {
			continue
		}
		if len(params.Tags) > 0 && !hasAnyTag(p.Tags, params.Tags) {
			continue
		}
		if query != "" && !matchesQuery(p, query) {
			continue
		}
		matched = append(matched, p)
	}

	sortPosts(matched, params.SortBy)

	limit := params.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	offset := max(params.Offset, 0)

	page := &PostPage{Posts: []models.Post{}, Total: len(matched)}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		page.Posts = matched[offset:end]
	}
	page.HasMore = page.Total > offset+limit
	return page, nil
}

// GetPostByID returns a visible post and records the view.
func (s *Service) GetPostByID(ctx context.Context, id, viewerID string) (*models.Post, error) {
	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		p.Views++
		if viewerID != "" && !slices.Contains(p.ViewedBy, viewerID) {
			p.ViewedBy = append(p.ViewedBy, viewerID)
		}
		return nil
	})
	return visible(p, err)
}

func (s *Service) UpdatePost(ctx context.Context, id string, in UpdatePostInput, currentUserID string) (*models.Post, error) {
	if err := apperr.RequireUser(currentUserID); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, apperr.Invalid("el título es obligatorio")
	}
	if in.Category != nil && !in.Category.Valid() {
		return nil, apperr.Invalid(fmt.Sprintf("categoría desconocida: %q", *in.Category))
	}

	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		if p.Author.ID != currentUserID {
			return apperr.Forbidden("No tienes permisos para editar este post")
		}
		if in.Title != nil {
			p.Title = strings.TrimSpace(*in.Title)
		}
		if in.Content != nil {
			p.Content = *in.Content
		}
		if in.Category != nil {
			p.Category = *in.Category
		}
		if in.Tags != nil {
			p.Tags = normalizeTags(in.Tags)
		}
		p.UpdatedAt = s.now()
		return nil
	})
	return visible(p, err)
}

// DeletePost soft-deletes the post.
func (s *Service) DeletePost(ctx context.Context, id, currentUserID string) (bool, error) {
	if err := apperr.RequireUser(currentUserID); err != nil {
		return false, err
	}
	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		if p.Author.ID != currentUserID {
			return apperr.Forbidden("No tienes permisos para eliminar este post")
		}
		now := s.now()
		p.IsDeleted = true
		p.DeletedAt = &now
		p.UpdatedAt = now
		return nil
	})
	p, err = visible(p, err)
	if err != nil || p == nil {
		return false, err
	}
	s.logger.Info("post deleted", zap.String("post_id", id), zap.String("user_id", currentUserID))
	return true, nil
}

// LikePost toggles the caller's like. Returns nil for unknown posts.
func (s *Service) LikePost(ctx context.Context, id, currentUserID string) (*LikeResult, error) {
	if err := apperr.RequireUser(currentUserID); err != nil {
		return nil, err
	}
	var liked bool
	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		if i := slices.Index(p.LikedBy, currentUserID); i >= 0 {
			p.LikedBy = slices.Delete(p.LikedBy, i, i+1)
		} else {
			p.LikedBy = append(p.LikedBy, currentUserID)
			liked = true
		}
		p.Likes = len(p.LikedBy)
		return nil
	})
	p, err = visible(p, err)
	if err != nil || p == nil {
		return nil, err
	}
	return &LikeResult{Liked: liked, Likes: p.Likes}, nil
}

// AddCommentToPost prepends a reply. Locked posts reject new replies.
func (s *Service) AddCommentToPost(ctx context.Context, postID string, in ReplyInput, currentUserID string) (*models.PostReply, error) {
	if err := apperr.RequireUser(currentUserID); err != nil {
		return nil, err
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, apperr.Invalid("el comentario no puede estar vacío")
	}
	author, err := s.authors.Resolve(ctx, currentUserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	reply := models.PostReply{
		ID:        uuid.NewString(),
		Content:   content,
		Author:    author,
		ParentID:  in.ParentID,
		CreatedAt: now,
	}
	p, err := s.posts.Update(ctx, postID, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		if p.IsLocked {
			return apperr.Forbidden("este post está cerrado y no admite respuestas")
		}
		p.Replies = append([]models.PostReply{reply}, p.Replies...)
		p.Comments++
		p.UpdatedAt = now
		return nil
	})
	p, err = visible(p, err)
	if err != nil || p == nil {
		return nil, err
	}
	return &reply, nil
}

// ToggleBookmark flips the caller's bookmark. False for unknown posts.
func (s *Service) ToggleBookmark(ctx context.Context, id, userID string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		if i := slices.Index(p.BookmarkedBy, userID); i >= 0 {
			p.BookmarkedBy = slices.Delete(p.BookmarkedBy, i, i+1)
		} else {
			p.BookmarkedBy = append(p.BookmarkedBy, userID)
		}
		return nil
	})
	p, err = visible(p, err)
	return p != nil, err
}

// ReportPost appends to the post's report log. False for unknown posts.
func (s *Service) ReportPost(ctx context.Context, id, userID, reason string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, apperr.Invalid("indica el motivo del reporte")
	}
	p, err := s.posts.Update(ctx, id, func(p *models.Post) error {
		if p.IsDeleted {
			return errGone
		}
		p.Reports = append(p.Reports, models.PostReport{UserID: userID, Reason: reason, CreatedAt: s.now()})
		return nil
	})
	p, err = visible(p, err)
	if err != nil || p == nil {
		return false, err
	}
	s.logger.Warn("post reported",
		zap.String("post_id", id),
		zap.String("user_id", userID),
		zap.Int("reports", len(p.Reports)),
	)
	return true, nil
}

// GetBookmarkedPosts returns the visible posts the user bookmarked.
func (s *Service) GetBookmarkedPosts(ctx context.Context, userID string) ([]models.Post, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	out := []models.Post{}
	for _, p := range all {
		if !p.IsDeleted && slices.Contains(p.BookmarkedBy, userID) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *Service) GetForumStats(ctx context.Context) (*Stats, error) {
	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekAgo := now.Add(-7 * 24 * time.Hour)

	stats := &Stats{PopularCategories: []CategoryCount{}, TopAuthors: []AuthorCount{}}
	perCategory := make(map[models.Category]int)
	perAuthor := make(map[string]*AuthorCount)
	for _, p := range all {
		if p.IsDeleted {
			continue
		}
		stats.TotalPosts++
		if !p.CreatedAt.Before(midnight) {
			stats.PostsToday++
		}
		if p.CreatedAt.After(weekAgo) {
			stats.PostsThisWeek++
		}
		perCategory[p.Category]++
		if ac, ok := perAuthor[p.Author.ID]; ok {
			ac.Count++
		} else {
			perAuthor[p.Author.ID] = &AuthorCount{Author: p.Author, Count: 1}
		}
	}
	stats.TotalAuthors = len(perAuthor)

	for c, n := range perCategory {
		stats.PopularCategories = append(stats.PopularCategories, CategoryCount{Category: c, Count: n})
	}
	sort.Slice(stats.PopularCategories, func(i, j int) bool {
		a, b := stats.PopularCategories[i], stats.PopularCategories[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Category < b.Category
	})

	for _, ac := range perAuthor {
		stats.TopAuthors = append(stats.TopAuthors, *ac)
	}
	sort.Slice(stats.TopAuthors, func(i, j int) bool {
		a, b := stats.TopAuthors[i], stats.TopAuthors[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Author.Name < b.Author.Name
	})
	if len(stats.TopAuthors) > topAuthorsLimit {
		stats.TopAuthors = stats.TopAuthors[:topAuthorsLimit]
	}
	return stats, nil
}

// SearchPosts runs GetPosts with query and adds up to five suggestions
// drawn from tags and longer title words that contain the query.
func (s *Service) SearchPosts(ctx context.Context, query string, params Params) (*SearchResult, error) {
	params.Query = query
	page, err := s.GetPosts(ctx, params)
	if err != nil {
		return nil, err
	}

	all, err := s.posts.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}

	q := strings.ToLower(strings.TrimSpace(query))
	suggestions := []string{}
	seen := make(map[string]bool)
	add := func(term string) {
		if q == "" || seen[term] || !strings.Contains(term, q) {
			return
		}
		seen[term] = true
		suggestions = append(suggestions, term)
	}
	for _, p := range all {
		if p.IsDeleted {
			continue
		}
		for _, tag := range p.Tags {
			add(strings.ToLower(tag))
		}
	}
	for _, p := range all {
		if p.IsDeleted {
			continue
		}
		for _, word := range strings.Fields(strings.ToLower(p.Title)) {
			word = strings.Trim(word, "¿?¡!.,:;()\"'")
			if len([]rune(word)) >= minSuggestionLen {
				add(word)
			}
		}
	}
	if len(suggestions) > suggestionsLimit {
		suggestions = suggestions[:suggestionsLimit]
	}

	return &SearchResult{PostPage: *page, Suggestions: suggestions}, nil
}

// visible maps the soft-delete abort to "not found". Any other error is
// passed through unchanged.
func visible(p *models.Post, err error) (*models.Post, error) {
	if errors.Is(err, errGone) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func sortPosts(posts []models.Post, by string) {
	var less func(a, b models.Post) bool
	switch by {
	case SortPopular:
		less = func(a, b models.Post) bool { return a.Likes > b.Likes }
	case SortMostCommented:
		less = func(a, b models.Post) bool { return a.Comments > b.Comments }
	default:
		less = func(a, b models.Post) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(posts, func(i, j int) bool { return less(posts[i], posts[j]) })
}

func matchesQuery(p models.Post, q string) bool {
	if strings.Contains(strings.ToLower(p.Title), q) || strings.Contains(strings.ToLower(p.Content), q) {
		return true
	}
	for _, tag := range p.Tags {
		if strings.Contains(strings.ToLower(tag), q) {
			return true
		}
	}
	return false
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t != "" && !slices.Contains(out, t) {
			out = append(out, t)
		}
	}
	return out
}
