package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/chat"
	"github.com/lalith-99/playhub/internal/middleware"
)

// ChatHandler exposes the game assistant over REST. The websocket variant
// lives in chat_ws.go.
type ChatHandler struct {
	svc    *chat.Service
	logger *zap.Logger
}

func NewChatHandler(svc *chat.Service, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{svc: svc, logger: logger}
}

type createSessionRequest struct {
	GameKey string `json:"game_key" binding:"required"`
}

type sendMessageRequest struct {
	Message   string `json:"message" binding:"required"`
	GameKey   string `json:"game_key" binding:"required"`
	SessionID string `json:"session_id"`
}

// CreateSession handles POST /v1/chat/sessions
func (h *ChatHandler) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	sess, err := h.svc.GetOrCreateSession(c.Request.Context(), req.GameKey, "", middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to create session")
		return
	}
	c.JSON(http.StatusCreated, sess)
}

// ListSessions handles GET /v1/chat/sessions
func (h *ChatHandler) ListSessions(c *gin.Context) {
	sessions, err := h.svc.ListUserSessions(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list sessions")
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

// GetMessages handles GET /v1/chat/sessions/:id/messages
func (h *ChatHandler) GetMessages(c *gin.Context) {
	msgs, err := h.svc.GetSessionHistory(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to get messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// SendToSession handles POST /v1/chat/sessions/:id/messages
//
// The path wins over any session_id in the body.
func (h *ChatHandler) SendToSession(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.SessionID = c.Param("id")
	h.send(c, req)
}

// SendMessage handles POST /v1/chat/messages
//
// Without session_id a new session is opened and its id returned.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	h.send(c, req)
}

func (h *ChatHandler) send(c *gin.Context, req sendMessageRequest) {
	res, err := h.svc.SendMessage(c.Request.Context(), req.Message, req.GameKey, req.SessionID, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to send message")
		return
	}
	c.JSON(http.StatusOK, res)
}

// ClearSession handles DELETE /v1/chat/sessions/:id
func (h *ChatHandler) ClearSession(c *gin.Context) {
	ok, err := h.svc.ClearSession(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to clear session")
		return
	}
	if !ok {
		notFound(c, "session")
		return
	}
	c.Status(http.StatusNoContent)
}

// Search handles GET /v1/chat/sessions/:id/search?q=
func (h *ChatHandler) Search(c *gin.Context) {
	msgs, err := h.svc.SearchChatHistory(c.Request.Context(), c.Param("id"), c.Query("q"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to search messages")
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// Stats handles GET /v1/chat/stats
func (h *ChatHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetChatStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to get chat stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}
