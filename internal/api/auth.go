package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/auth"
	"github.com/lalith-99/playhub/internal/middleware"
)

// AuthHandler serves register and login, the only account endpoints that
// run without a token, plus logout.
type AuthHandler struct {
	svc    *auth.Service
	logger *zap.Logger
}

func NewAuthHandler(svc *auth.Service, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, logger: logger}
}

type registerRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register handles POST /v1/auth/register
//
// Creates a free account and returns it with a fresh token. Length rules
// for username and password live in the auth service so every entry
// point enforces the same ones.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req.Email, req.Username, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "registration failed")
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Login handles POST /v1/auth/login
//
// Unknown email and wrong password produce the same 401.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, h.logger, err, "login failed")
		return
	}
	c.JSON(http.StatusOK, res)
}

// Logout handles POST /v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.svc.Logout(c.Request.Context(), middleware.GetToken(c))
	c.Status(http.StatusNoContent)
}
