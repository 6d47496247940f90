package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/auth"
	"github.com/lalith-99/playhub/internal/middleware"
	"github.com/lalith-99/playhub/internal/models"
)

// UserHandler serves the caller's own account: profile, preferences and
// subscription.
type UserHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewUserHandler(svc *auth.Service, logger *zap.Logger) *UserHandler {
	return &UserHandler{svc: svc, logger: logger}
}

// GetMe handles GET /v1/users/me
func (h *UserHandler) GetMe(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), middleware.GetUserID(c))
	h.respondUser(c, user, err, "failed to get user")
}

// UpdatePreferences handles PATCH /v1/users/me/preferences
//
// Only the fields present in the body change.
func (h *UserHandler) UpdatePreferences(c *gin.Context) {
	var patch auth.PreferencesPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.svc.UpdatePreferences(c.Request.Context(), middleware.GetUserID(c), patch)
	h.respondUser(c, user, err, "failed to update preferences")
}

// Upgrade handles POST /v1/users/me/upgrade
func (h *UserHandler) Upgrade(c *gin.Context) {
	user, err := h.svc.UpgradeToPremium(c.Request.Context(), middleware.GetUserID(c))
	h.respondUser(c, user, err, "failed to upgrade")
}

// Cancel handles POST /v1/users/me/cancel
func (h *UserHandler) Cancel(c *gin.Context) {
	user, err := h.svc.CancelSubscription(c.Request.Context(), middleware.GetUserID(c))
	h.respondUser(c, user, err, "failed to cancel subscription")
}

// respondUser returns 404 when the token outlived its account.
func (h *UserHandler) respondUser(c *gin.Context, user *models.User, err error, fallback string) {
	if err != nil {
		respondError(c, h.logger, err, fallback)
		return
	}
	if user == nil {
		notFound(c, "user")
		return
	}
	c.JSON(http.StatusOK, user)
}
