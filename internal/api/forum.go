package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/forum"
	"github.com/lalith-99/playhub/internal/markdown"
	"github.com/lalith-99/playhub/internal/middleware"
	"github.com/lalith-99/playhub/internal/models"
)

type ForumHandler struct {
	svc    *forum.Service
	logger *zap.Logger
}

func NewForumHandler(svc *forum.Service, logger *zap.Logger) *ForumHandler {
	return &ForumHandler{svc: svc, logger: logger}
}

// postView is a post with its Markdown body rendered for display.
type postView struct {
	*models.Post
	ContentHTML string `json:"content_html"`
}

type reportRequest struct {
	Reason string `json:"reason"`
}

// paramsFrom reads the shared listing query:
// ?category=&author=&tags=a,b&q=&sort=&offset=&limit=
func paramsFrom(c *gin.Context) forum.Params {
	var tags []string
	for _, t := range strings.Split(c.Query("tags"), ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return forum.Params{
		Category: models.Category(c.Query("category")),
		Author:   c.Query("author"),
		Tags:     tags,
		Query:    c.Query("q"),
		SortBy:   c.DefaultQuery("sort", forum.SortNewest),
		Offset:   queryInt(c, "offset", 0),
		Limit:    queryInt(c, "limit", forum.DefaultLimit),
	}
}

// List handles GET /v1/forum/posts
func (h *ForumHandler) List(c *gin.Context) {
	page, err := h.svc.GetPosts(c.Request.Context(), paramsFrom(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list posts")
		return
	}
	c.JSON(http.StatusOK, page)
}

// Create handles POST /v1/forum/posts
//
// author_id may be omitted; it defaults to the caller.
func (h *ForumHandler) Create(c *gin.Context) {
	var in forum.CreatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	userID := middleware.GetUserID(c)
	if in.AuthorID == "" {
		in.AuthorID = userID
	}
	post, err := h.svc.CreatePost(c.Request.Context(), in, userID)
	if err != nil {
		respondError(c, h.logger, err, "failed to create post")
		return
	}
	c.JSON(http.StatusCreated, post)
}

// Get handles GET /v1/forum/posts/:id
//
// Counts a view and returns the post with content_html.
func (h *ForumHandler) Get(c *gin.Context) {
	post, err := h.svc.GetPostByID(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to get post")
		return
	}
	if post == nil {
		notFound(c, "post")
		return
	}
	c.JSON(http.StatusOK, postView{Post: post, ContentHTML: markdown.ToHTML(post.Content)})
}

// Update handles PUT /v1/forum/posts/:id
func (h *ForumHandler) Update(c *gin.Context) {
	var in forum.UpdatePostInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	post, err := h.svc.UpdatePost(c.Request.Context(), c.Param("id"), in, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to update post")
		return
	}
	if post == nil {
		notFound(c, "post")
		return
	}
	c.JSON(http.StatusOK, post)
}

// Delete handles DELETE /v1/forum/posts/:id
func (h *ForumHandler) Delete(c *gin.Context) {
	ok, err := h.svc.DeletePost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to delete post")
		return
	}
	if !ok {
		notFound(c, "post")
		return
	}
	c.Status(http.StatusNoContent)
}

// Like handles POST /v1/forum/posts/:id/like
func (h *ForumHandler) Like(c *gin.Context) {
	res, err := h.svc.LikePost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to like post")
		return
	}
	if res == nil {
		notFound(c, "post")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Comment handles POST /v1/forum/posts/:id/comments
func (h *ForumHandler) Comment(c *gin.Context) {
	var in forum.ReplyInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, err)
		return
	}
	reply, err := h.svc.AddCommentToPost(c.Request.Context(), c.Param("id"), in, middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to add reply")
		return
	}
	if reply == nil {
		notFound(c, "post")
		return
	}
	c.JSON(http.StatusCreated, reply)
}

// Bookmark handles POST /v1/forum/posts/:id/bookmark
func (h *ForumHandler) Bookmark(c *gin.Context) {
	ok, err := h.svc.ToggleBookmark(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to bookmark post")
		return
	}
	if !ok {
		notFound(c, "post")
		return
	}
	c.Status(http.StatusNoContent)
}

// Report handles POST /v1/forum/posts/:id/report
func (h *ForumHandler) Report(c *gin.Context) {
	var req reportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ok, err := h.svc.ReportPost(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), req.Reason)
	if err != nil {
		respondError(c, h.logger, err, "failed to report post")
		return
	}
	if !ok {
		notFound(c, "post")
		return
	}
	c.Status(http.StatusAccepted)
}

// Bookmarks handles GET /v1/forum/bookmarks
func (h *ForumHandler) Bookmarks(c *gin.Context) {
	posts, err := h.svc.GetBookmarkedPosts(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, h.logger, err, "failed to list bookmarks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"posts": posts})
}

// Stats handles GET /v1/forum/stats
func (h *ForumHandler) Stats(c *gin.Context) {
	stats, err := h.svc.GetForumStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "failed to get forum stats")
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Search handles GET /v1/forum/search?q=
func (h *ForumHandler) Search(c *gin.Context) {
	params := paramsFrom(c)
	res, err := h.svc.SearchPosts(c.Request.Context(), params.Query, params)
	if err != nil {
		respondError(c, h.logger, err, "failed to search posts")
		return
	}
	c.JSON(http.StatusOK, res)
}
