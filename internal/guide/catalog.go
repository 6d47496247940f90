package guide

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const (
	SortPopular = "popular"
	SortRating  = "rating"
	SortNewest  = "newest"
	SortName    = "name"

	listCacheTTL = 30 * time.Second
)

// Filter combines every catalog accessor. Zero values match everything.
type Filter struct {
	Game       string
	Type       string
	Difficulty string
	Query      string
	Featured   bool
	New        bool
	SortBy     string
	Limit      int
}

func (f Filter) cacheKey() string {
	return fmt.Sprintf("%s|%s|%s|%s|%t|%t|%s|%d",
		strings.ToLower(f.Game), f.Type, f.Difficulty, strings.ToLower(f.Query),
		f.Featured, f.New, f.SortBy, f.Limit)
}

// Catalog answers read queries over the shared guide library. Listing
// results are cached briefly and dropped whenever a guide changes.
//
// gen counts committed guide updates. A listing is only cached when no
// update landed between reading the rows and filling the cache; otherwise
// a snapshot taken before the update could outlive the flush that was
// meant to drop it.
type Catalog struct {
	guides repository.GuideRepository
	lists  *cache.Cache

	mu  sync.Mutex
	gen uint64
}

func NewCatalog(guides repository.GuideRepository) *Catalog {
	return &Catalog{
		guides: guides,
		lists:  cache.New(listCacheTTL, time.Minute),
	}
}

// Get returns nil, nil for unknown ids.
func (c *Catalog) Get(ctx context.Context, id string) (*models.Guide, error) {
	return c.guides.GetByID(ctx, id)
}

func (c *Catalog) ByGame(ctx context.Context, game string) ([]models.Guide, error) {
	return c.List(ctx, Filter{Game: game})
}

func (c *Catalog) ByType(ctx context.Context, guideType string) ([]models.Guide, error) {
	return c.List(ctx, Filter{Type: guideType})
}

func (c *Catalog) ByDifficulty(ctx context.Context, difficulty string) ([]models.Guide, error) {
	return c.List(ctx, Filter{Difficulty: difficulty})
}

func (c *Catalog) Featured(ctx context.Context) ([]models.Guide, error) {
	return c.List(ctx, Filter{Featured: true})
}

func (c *Catalog) New(ctx context.Context) ([]models.Guide, error) {
	return c.List(ctx, Filter{New: true})
}

func (c *Catalog) Search(ctx context.Context, query string) ([]models.Guide, error) {
	return c.List(ctx, Filter{Query: query})
}

// Popular returns the limit guides with the most views plus downloads.
func (c *Catalog) Popular(ctx context.Context, limit int) ([]models.Guide, error) {
	return c.List(ctx, Filter{SortBy: SortPopular, Limit: limit})
}

// List applies f. Without a sort key the catalog order is kept.
func (c *Catalog) List(ctx context.Context, f Filter) ([]models.Guide, error) {
	key := f.cacheKey()
	if cached, ok := c.lists.Get(key); ok {
		return copyGuides(cached.([]models.Guide)), nil
	}

	c.mu.Lock()
	gen := c.gen
	c.mu.Unlock()

	all, err := c.guides.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list guides: %w", err)
	}

	out := make([]models.Guide, 0, len(all))
	for _, g := range all {
		if f.matches(g) {
			out = append(out, g)
		}
	}
	sortGuides(out, f.SortBy)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}

	c.mu.Lock()
	if c.gen == gen {
		c.lists.SetDefault(key, copyGuides(out))
	}
	c.mu.Unlock()
	return out, nil
}

// update changes one guide and drops every cached listing.
func (c *Catalog) update(ctx context.Context, id string, fn func(g *models.Guide) error) (*models.Guide, error) {
	g, err := c.guides.Update(ctx, id, fn)
	if err != nil {
		return nil, err
	}
	c.mu.Lock()
	c.gen++
	c.lists.Flush()
	c.mu.Unlock()
	return g, nil
}

func (f Filter) matches(g models.Guide) bool {
	if f.Game != "" {
		game := strings.ToLower(f.Game)
		if !strings.Contains(strings.ToLower(g.Name), game) && !strings.Contains(strings.ToLower(g.ID), game) {
			return false
		}
	}
	if f.Type != "" && g.Type != f.Type {
		return false
	}
	if f.Difficulty != "" && g.Difficulty != f.Difficulty {
		return false
	}
	if f.Featured && !g.IsFeatured {
		return false
	}
	if f.New && !g.IsNew {
		return false
	}
	if q := strings.ToLower(strings.TrimSpace(f.Query)); q != "" && !matchesQuery(g, q) {
		return false
	}
	return true
}

func matchesQuery(g models.Guide, q string) bool {
	fields := []string{g.Name, g.Meta, g.Description, g.Author}
	fields = append(fields, g.Tags...)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), q) {
			return true
		}
	}
	return false
}

func sortGuides(guides []models.Guide, by string) {
	var less func(a, b models.Guide) bool
	switch by {
	case SortPopular:
		less = func(a, b models.Guide) bool { return a.Views+a.Downloads > b.Views+b.Downloads }
	case SortRating:
		less = func(a, b models.Guide) bool { return a.Rating > b.Rating }
	case SortNewest:
		less = func(a, b models.Guide) bool { return a.CreatedAt.After(b.CreatedAt) }
	case SortName:
		less = func(a, b models.Guide) bool { return strings.ToLower(a.Name) < strings.ToLower(b.Name) }
	default:
		return
	}
	sort.SliceStable(guides, func(i, j int) bool { return less(guides[i], guides[j]) })
}

func copyGuides(in []models.Guide) []models.Guide {
	out := make([]models.Guide, len(in))
	for i, g := range in {
		g.Tags = append([]string(nil), g.Tags...)
		out[i] = g
	}
	return out
}

// CanAccessGuide reports whether a user on plan may open g.
func CanAccessGuide(g models.Guide, plan models.Plan) bool {
	if !g.IsPremium {
		return true
	}
	return plan == models.PlanPremium
}
