package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/middleware"
)

// HealthChecker reports whether a backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// RouterDeps is everything NewRouter wires together. Limiter, Recorder and
// Health may be nil.
type RouterDeps struct {
	Auth     *AuthHandler
	Users    *UserHandler
	Chat     *ChatHandler
	Comments *CommentHandler
	Forum    *ForumHandler
	Guides   *GuideHandler

	Authenticator middleware.Authenticator
	Limiter       *middleware.RateLimiter
	Recorder      middleware.RequestRecorder
	Health        HealthChecker
	Logger        *zap.Logger
}

// NewRouter builds the /v1 API.
//
// Catalog reads, health, register and login are public. Everything else
// requires a bearer token; the websocket endpoint also accepts ?token=.
func NewRouter(d RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Logger, d.Recorder))

	limit := func(c *gin.Context) { c.Next() }
	if d.Limiter != nil {
		limit = d.Limiter.Middleware()
	}

	r.GET("/v1/health", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health.Health(c.Request.Context()); err != nil {
				d.Logger.Warn("health check failed", zap.Error(err))
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	public := r.Group("/v1", limit)
	public.POST("/auth/register", d.Auth.Register)
	public.POST("/auth/login", d.Auth.Login)
	public.GET("/guides", d.Guides.List)
	public.GET("/guides/popular", d.Guides.Popular)
	public.GET("/guides/:id", d.Guides.Get)

	ws := r.Group("/v1", middleware.AuthMiddleware(d.Authenticator, true), limit)
	ws.GET("/chat/ws", d.Chat.ServeWS)

	v1 := r.Group("/v1", middleware.AuthMiddleware(d.Authenticator, false), limit)

	v1.POST("/auth/logout", d.Auth.Logout)

	v1.GET("/users/me", d.Users.GetMe)
	v1.PATCH("/users/me/preferences", d.Users.UpdatePreferences)
	v1.POST("/users/me/upgrade", d.Users.Upgrade)
	v1.POST("/users/me/cancel", d.Users.Cancel)

	v1.POST("/chat/sessions", d.Chat.CreateSession)
	v1.GET("/chat/sessions", d.Chat.ListSessions)
	v1.GET("/chat/sessions/:id/messages", d.Chat.GetMessages)
	v1.POST("/chat/sessions/:id/messages", d.Chat.SendToSession)
	v1.DELETE("/chat/sessions/:id", d.Chat.ClearSession)
	v1.GET("/chat/sessions/:id/search", d.Chat.Search)
	v1.POST("/chat/messages", d.Chat.SendMessage)
	v1.GET("/chat/stats", d.Chat.Stats)

	v1.GET("/comments", d.Comments.List)
	v1.POST("/comments", d.Comments.Create)
	v1.GET("/comments/search", d.Comments.Search)
	v1.GET("/comments/stats", d.Comments.Stats)
	v1.GET("/comments/:id", d.Comments.Get)
	v1.PUT("/comments/:id", d.Comments.Update)
	v1.DELETE("/comments/:id", d.Comments.Delete)
	v1.GET("/comments/:id/replies", d.Comments.Replies)
	v1.POST("/comments/:id/replies", d.Comments.Reply)
	v1.POST("/comments/:id/like", d.Comments.Like)
	v1.DELETE("/comments/:id/like", d.Comments.Unlike)

	v1.GET("/forum/posts", d.Forum.List)
	v1.POST("/forum/posts", d.Forum.Create)
	v1.GET("/forum/search", d.Forum.Search)
	v1.GET("/forum/stats", d.Forum.Stats)
	v1.GET("/forum/bookmarks", d.Forum.Bookmarks)
	v1.GET("/forum/posts/:id", d.Forum.Get)
	v1.PUT("/forum/posts/:id", d.Forum.Update)
	v1.DELETE("/forum/posts/:id", d.Forum.Delete)
	v1.POST("/forum/posts/:id/like", d.Forum.Like)
	v1.POST("/forum/posts/:id/bookmark", d.Forum.Bookmark)
	v1.POST("/forum/posts/:id/report", d.Forum.Report)
	v1.POST("/forum/posts/:id/comments", d.Forum.Comment)

	v1.GET("/guides/me/summary", d.Guides.Summary)
	v1.GET("/guides/:id/interactions", d.Guides.Interactions)
	v1.POST("/guides/:id/like", d.Guides.Like)
	v1.POST("/guides/:id/download", d.Guides.Download)
	v1.POST("/guides/:id/rate", d.Guides.Rate)

	return r
}
