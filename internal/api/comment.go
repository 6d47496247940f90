package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/comment"
	"github.com/lalith-99/playhub/internal/middleware"
)

type CommentHandler struct {
	svc    *comment.Service
	logger *zap.Logger
}

func NewCommentHandler(svc *comment.Service, logger *zap.Logger) *CommentHandler {
	return &CommentHandler{svc: svc, logger: logger}
}

type updateCommentRequest struct {
	Content string `json:"content" binding:"required"`
}

// bindCommentInput reads a CreateInput. A body without user_id is taken
// to be written by the caller.
func bindCommentInput(c *gin.Context) (comment.CreateInput, bool) {
	var in comment.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return in, false
	}
	if in.UserID == "" {
		in.UserID = middleware.GetUserID(c)
	}
	return in, true
}

// List handles GET /v1/comments?section=&author=&offset=&limit=
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.svc.GetComments(c.Request.Context(), comment.Filter{
		Section: c.Query("section"),
		Author:  c.Query("author"),
		Offset:  queryInt(c, "offset", 0),
		Limit:   queryInt(c, "limit", 0),
	})
	if err != nil {
		respondError(c, h.logger, err, "failed to list comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}

// Create handles POST /v1/comments
func (h *CommentHandler) Create(c *gin.Context) {
	in, ok := bindCommentInput(c)
	if !ok {
		return
	}
	created, err := h.svc.CreateComment(c.Request.Context(), in, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to create comment")
		return
	}
	c.JSON(http.StatusCreated, created)
}

// Get handles GET /v1/comments/:id
func (h *CommentHandler) Get(c *gin.Context) {
	found, err := h.svc.GetComment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to get comment")
		return
	}
	if found == nil {
		notFound(c, "comment")
		return
	}
	c.JSON(http.StatusOK, found)
}

// Replies handles GET /v1/comments/:id/replies
func (h *CommentHandler) Replies(c *gin.Context) {
	replies, err := h.svc.GetReplies(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err, "failed to list replies")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": replies})
}

// Reply handles POST /v1/comments/:id/replies
func (h *CommentHandler) Reply(c *gin.Context) {
	in, ok := bindCommentInput(c)
	if !ok {
		return
	}
	reply, err := h.svc.ReplyToComment(c.Request.Context(), c.Param("id"), in, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to reply")
		return
	}
	if reply == nil {
		notFound(c, "comment")
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// Update handles PUT /v1/comments/:id
func (h *CommentHandler) Update(c *gin.Context) {
	var req updateCommentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	updated, err := h.svc.UpdateComment(c.Request.Context(), c.Param("id"), req.Content, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to update comment")
		return
	}
	if updated == nil {
		notFound(c, "comment")
		return
	}
	c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/comments/:id
func (h *CommentHandler) Delete(c *gin.Context) {
	ok, err := h.svc.DeleteComment(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	h.respondBool(c, ok, err, "failed to delete comment")
}

// Like handles POST /v1/comments/:id/like
func (h *CommentHandler) Like(c *gin.Context) {
	ok, err := h.svc.LikeComment(c.Request.Context(), c.Param("id"))
	h.respondBool(c, ok, err, "failed to like comment")
}

// Unlike handles DELETE /v1/comments/:id/like
func (h *CommentHandler) Unlike(c *gin.Context) {
	ok, err := h.svc.UnlikeComment(c.Request.Context(), c.Param("id"))
	h.respondBool(c, ok, err, "failed to unlike comment")
}

// Stats handles GET /v1/comments/stats?section=
func (h *CommentHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetCommentStats(c.Request.Context(), c.Query("section"))
	if err != nil {
		respondError(c, h.logger, err, "failed to get comment stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Search handles GET /v1/comments/search?q=&section=&limit=
func (h *CommentHandler) Search(c *gin.Context) {
	found, err := h.svc.SearchComments(c.Request.Context(), c.Query("q"), c.Query("section"), queryInt(c, "limit", 0))
	if err != nil {
		respondError(c, h.logger, err, "failed to search comments")
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": found})
}

func (h *CommentHandler) respondBool(c *gin.Context, ok bool, err error, fallback string) {
	if err != nil {
		respondError(c, h.logger, err, fallback)
		return
	}
	if !ok {
		notFound(c, "comment")
		return
	}
	c.Status(http.StatusNoContent)
}
