package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/guide"
	"github.com/lalith-99/playhub/internal/middleware"
)

// GuideHandler serves the public catalog and the per-user interactions
// on it.
type GuideHandler struct {
	catalog *guide.Catalog
	svc     *guide.InteractiveService
	logger  *zap.Logger
}

func NewGuideHandler(catalog *guide.Catalog, svc *guide.InteractiveService, logger *zap.Logger) *GuideHandler {
	return &GuideHandler{catalog: catalog, svc: svc, logger: logger}
}

type rateRequest struct {
	Rating int `json:"rating" binding:"required"`
}

// List handles GET /v1/guides
//
// ?game=&type=&difficulty=&q=&featured=true&new=true&sort=&limit=
func (h *GuideHandler) List(c *gin.Context) {
	guides, err := h.catalog.List(c.Request.Context(), guide.Filter{
		Game:       c.Query("game"),
		Type:       c.Query("type"),
		Difficulty: c.Query("difficulty"),
		Query:      c.Query("q"),
		Featured:   c.Query("featured") == "true",
		New:        c.Query("new") == "true",
		SortBy:     c.Query("sort"),
		Limit:      queryInt(c, "limit", 0),
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to list guides")
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": guides})
}

// Popular handles GET /v1/guides/popular?limit=
func (h *GuideHandler) Popular(c *gin.Context) {
	guides, err := h.catalog.Popular(c.Request.Context(), queryInt(c, "limit", 6))
	if err != nil {
		respondError(c, h.logger, err, "failed to list guides")
		return
	}
	c.JSON(http.StatusOK, gin.H{"guides": guides})
}

// Get handles GET /v1/guides/:id
//
// Premium guides are listed to everyone; only download is gated.
func (h *GuideHandler) Get(c *gin.Context) {
	g, err := h.catalog.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to get guide")
		return
	}
	if g == nil {
		notFound(c, "guide")
		return
	}
	c.JSON(http.StatusOK, g)
}

// Interactions handles GET /v1/guides/:id/interactions
func (h *GuideHandler) Interactions(c *gin.Context) {
	gi, err := h.svc.GetInteractions(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to get interactions")
		return
	}
	c.JSON(http.StatusOK, gi)
}

// Like handles POST /v1/guides/:id/like
func (h *GuideHandler) Like(c *gin.Context) {
	ok, err := h.svc.ToggleLike(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	h.respondInteraction(c, ok, err, "failed to like guide")
}

// Download handles POST /v1/guides/:id/download
//
// Free accounts get 403 on premium guides.
func (h *GuideHandler) Download(c *gin.Context) {
	id := c.Param("id")
	g, err := h.catalog.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "failed to download guide")
		return
	}
	if g == nil {
		notFound(c, "guide")
		return
	}
	if !guide.CanAccessGuide(*g, middleware.GetPlan(c)) {
		c.JSON(http.StatusForbidden, gin.H{"error": "esta guía requiere una suscripción premium"})
		return
	}

	ok, err := h.svc.DownloadGuide(c.Request.Context(), middleware.GetUserID(c), id)
	h.respondInteraction(c, ok, err, "failed to download guide")
}

// Rate handles POST /v1/guides/:id/rate
//
// Ratings outside 1..5 are rejected with 400.
func (h *GuideHandler) Rate(c *gin.Context) {
	var req rateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating must be between 1 and 5"})
		return
	}
	ok, err := h.svc.RateGuide(c.Request.Context(), middleware.GetUserID(c), c.Param("id"), req.Rating)
	h.respondInteraction(c, ok, err, "failed to rate guide")
}

// Summary handles GET /v1/guides/me/summary
func (h *GuideHandler) Summary(c *gin.Context) {
	sum, err := h.svc.GetUserSummary(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to get summary")
		return
	}
	c.JSON(http.StatusOK, sum)
}

// respondInteraction returns the caller's updated record so clients can
// redraw without a second request.
func (h *GuideHandler) respondInteraction(c *gin.Context, ok bool, err error, fallback string) {
	if err != nil {
		respondError(c, h.logger, err, fallback)
		return
	}
	if !ok {
		notFound(c, "guide")
		return
	}
	h.Interactions(c)
}
