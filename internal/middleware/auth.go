package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/models"
)

// Context keys for values AuthMiddleware stores in gin.Context.
const (
	ContextKeyUserID   = "user_id"
	ContextKeyEmail    = "email"
	ContextKeyPlan     = "plan"
	ContextKeyToken    = "token"
	ContextKeyLanguage = "language"
)

// Authenticator resolves a bearer token to the user it was issued to.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// AuthMiddleware rejects requests without a live token. With
// allowQueryToken the token may also come from ?token=, which browsers
// need for websocket upgrades.
//
// The user's preferred language is stored in the request context for
// the services that localize their output.
func AuthMiddleware(authn Authenticator, allowQueryToken bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok && allowQueryToken {
			token = c.Query("token")
			ok = token != ""
		}
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing authorization header, expected: Bearer <token>",
			})
			return
		}

		user, err := authn.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "invalid or expired token",
			})
			return
		}

		lang := user.Preferences.Language
		c.Set(ContextKeyUserID, user.ID)
		c.Set(ContextKeyEmail, user.Email)
		c.Set(ContextKeyPlan, user.Plan)
		c.Set(ContextKeyToken, token)
		c.Set(ContextKeyLanguage, lang)
		c.Request = c.Request.WithContext(i18n.WithLanguage(c.Request.Context(), lang))

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// GetUserID returns "" when the request did not pass AuthMiddleware.
func GetUserID(c *gin.Context) string {
	return c.GetString(ContextKeyUserID)
}

func GetEmail(c *gin.Context) string {
	return c.GetString(ContextKeyEmail)
}

// GetPlan defaults to the free plan.
func GetPlan(c *gin.Context) models.Plan {
	val, exists := c.Get(ContextKeyPlan)
	if !exists {
		return models.PlanFree
	}
	plan, ok := val.(models.Plan)
	if !ok {
		return models.PlanFree
	}
	return plan
}

func GetToken(c *gin.Context) string {
	return c.GetString(ContextKeyToken)
}
