package guide

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

// UserSummary counts what one user did across the catalog.
type UserSummary struct {
	Liked      int `json:"liked"`
	Downloaded int `json:"downloaded"`
	Rated      int `json:"rated"`
}

// InteractiveService records per-user likes, downloads and ratings and
// folds them into the shared guide counters.
//
// The interaction record and the guide are two aggregates, each updated
// under its own lock: the record first, then the guide counters.
type InteractiveService struct {
	catalog      *Catalog
	interactions repository.InteractionRepository
	logger       *zap.Logger
}

func NewInteractiveService(catalog *Catalog, interactions repository.InteractionRepository, logger *zap.Logger) *InteractiveService {
	return &InteractiveService{catalog: catalog, interactions: interactions, logger: logger}
}

// ToggleLike flips the user's like. Returns false for unknown guides.
func (s *InteractiveService) ToggleLike(ctx context.Context, userID, guideID string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	if ok, err := s.exists(ctx, guideID); err != nil || !ok {
		return false, err
	}

	gi, err := s.interactions.Update(ctx, userID, guideID, func(gi *models.GuideInteractions) error {
		gi.UserLiked = !gi.UserLiked
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("toggle like: %w", err)
	}

	delta := -1
	if gi.UserLiked {
		delta = 1
	}
	if _, err := s.catalog.update(ctx, guideID, func(g *models.Guide) error {
		g.Likes = max(g.Likes+delta, 0)
		return nil
	}); err != nil {
		return false, fmt.Errorf("update guide likes: %w", err)
	}
	return true, nil
}

// DownloadGuide marks the guide as downloaded. Calling it again is a
// no-op that still returns true; the shared counter moves only once.
func (s *InteractiveService) DownloadGuide(ctx context.Context, userID, guideID string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	if ok, err := s.exists(ctx, guideID); err != nil || !ok {
		return false, err
	}

	first := false
	if _, err := s.interactions.Update(ctx, userID, guideID, func(gi *models.GuideInteractions) error {
		if !gi.UserDownloaded {
			gi.UserDownloaded = true
			first = true
		}
		return nil
	}); err != nil {
		return false, fmt.Errorf("record download: %w", err)
	}
	if !first {
		return true, nil
	}

	if _, err := s.catalog.update(ctx, guideID, func(g *models.Guide) error {
		g.Downloads++
		return nil
	}); err != nil {
		return false, fmt.Errorf("update guide downloads: %w", err)
	}
	s.logger.Debug("guide downloaded", zap.String("guide_id", guideID), zap.String("user_id", userID))
	return true, nil
}

// RateGuide stores a 1 to 5 rating. Out-of-range ratings and unknown
// guides return false.
//
// The shared rating is not a true mean over all raters. Each new rating is
// averaged with the current value, (old + new) / 2, so the latest rating
// always weighs half and older ones decay geometrically. Rating again
// moves the average again; the previous rating from the same user is not
// subtracted first.
func (s *InteractiveService) RateGuide(ctx context.Context, userID, guideID string, rating int) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	if rating < 1 || rating > 5 {
		return false, nil
	}
	if ok, err := s.exists(ctx, guideID); err != nil || !ok {
		return false, err
	}

	if _, err := s.interactions.Update(ctx, userID, guideID, func(gi *models.GuideInteractions) error {
		gi.UserRated = rating
		return nil
	}); err != nil {
		return false, fmt.Errorf("record rating: %w", err)
	}

	if _, err := s.catalog.update(ctx, guideID, func(g *models.Guide) error {
		g.Rating = (g.Rating + float64(rating)) / 2
		return nil
	}); err != nil {
		return false, fmt.Errorf("update guide rating: %w", err)
	}
	return true, nil
}

// GetInteractions returns the user's record for the guide, or a zero
// record when there is none yet.
func (s *InteractiveService) GetInteractions(ctx context.Context, userID, guideID string) (*models.GuideInteractions, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	gi, err := s.interactions.Get(ctx, userID, guideID)
	if err != nil {
		return nil, fmt.Errorf("get interactions: %w", err)
	}
	if gi == nil {
		gi = &models.GuideInteractions{UserID: userID, GuideID: guideID}
	}
	return gi, nil
}

func (s *InteractiveService) GetUserSummary(ctx context.Context, userID string) (*UserSummary, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	records, err := s.interactions.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list interactions: %w", err)
	}
	sum := &UserSummary{}
	for _, gi := range records {
		if gi.UserLiked {
			sum.Liked++
		}
		if gi.UserDownloaded {
			sum.Downloaded++
		}
		if gi.UserRated > 0 {
			sum.Rated++
		}
	}
	return sum, nil
}

func (s *InteractiveService) exists(ctx context.Context, guideID string) (bool, error) {
	g, err := s.catalog.Get(ctx, guideID)
	if err != nil {
		return false, fmt.Errorf("get guide: %w", err)
	}
	return g != nil, nil
}
