package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/auth"
	"github.com/lalith-99/playhub/internal/chat"
	"github.com/lalith-99/playhub/internal/comment"
	"github.com/lalith-99/playhub/internal/forum"
	"github.com/lalith-99/playhub/internal/guide"
	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/middleware"
	"github.com/lalith-99/playhub/internal/repository/memory"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	authSvc *auth.Service
}

func newTestServer(t *testing.T, limiter *middleware.RateLimiter) *testServer {
	t.Helper()
	logger := zap.NewNop()

	users := memory.NewUserStore()
	authSvc := auth.NewService(users, auth.Config{
		Secret:   "test-secret",
		TokenTTL: time.Hour,
		HashCost: bcrypt.MinCost,
	}, logger)

	localizer, err := i18n.NewLocalizer("es")
	require.NoError(t, err)
	chatSvc := chat.NewService(memory.NewSessionStore(), localizer, chat.Config{}, logger,
		chat.WithTokenMeter(authSvc))

	forumSvc := forum.NewService(memory.NewPostStore(forum.SeedPosts(time.Now())...),
		forum.NewAuthorDirectory(users), logger)

	catalog := guide.NewCatalog(memory.NewGuideStore(guide.SeedCatalog()))
	interactive := guide.NewInteractiveService(catalog, memory.NewInteractionStore(), logger)

	router := NewRouter(RouterDeps{
		Auth:          NewAuthHandler(authSvc, logger),
		Users:         NewUserHandler(authSvc, logger),
		Chat:          NewChatHandler(chatSvc, logger),
		Comments:      NewCommentHandler(comment.NewService(memory.NewCommentStore(), logger), logger),
		Forum:         NewForumHandler(forumSvc, logger),
		Guides:        NewGuideHandler(catalog, interactive, logger),
		Authenticator: authSvc,
		Limiter:       limiter,
		Logger:        logger,
	})
	return &testServer{router: router, authSvc: authSvc}
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

// register creates an account and returns its id and token.
func (s *testServer) register(t *testing.T, username string) (string, string) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email":    strings.ToLower(username) + "@playhub.gg",
		"username": username,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var res auth.Result
	decode(t, w, &res)
	return res.User.ID, res.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	w := s.do(t, http.MethodGet, "/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Rookie")

	w := s.do(t, http.MethodGet, "/v1/users/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w = s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"email": "rookie@playhub.gg", "username": "Rookie2", "password": "secret123",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code, "duplicate email")

	w = s.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{"email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "rookie@playhub.gg", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{"email": "rookie@playhub.gg", "password": "secret123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/v1/users/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	s := newTestServer(t, nil)
	for _, path := range []string{"/v1/users/me", "/v1/chat/sessions", "/v1/forum/posts", "/v1/comments", "/v1/guides/me/summary"} {
		w := s.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestPreferencesAndSubscription(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Settings")

	w := s.do(t, http.MethodPatch, "/v1/users/me/preferences", token, gin.H{"theme": "light", "language": "en"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"theme":"light"`)

	w = s.do(t, http.MethodPatch, "/v1/users/me/preferences", token, gin.H{"theme": "neon"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/users/me/cancel", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code, "nothing to cancel")

	w = s.do(t, http.MethodPost, "/v1/users/me/upgrade", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plan":"premium"`)

	w = s.do(t, http.MethodPost, "/v1/users/me/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"plan":"free"`)
}

func TestChatEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Chatter")
	_, otherToken := s.register(t, "Snoop")

	w := s.do(t, http.MethodPost, "/v1/chat/sessions", token, gin.H{"game_key": "valorant"})
	require.Equal(t, http.StatusCreated, w.Code)
	var sess struct {
		ID string `json:"id"`
	}
	decode(t, w, &sess)
	require.NotEmpty(t, sess.ID)

	w = s.do(t, http.MethodPost, "/v1/chat/sessions/"+sess.ID+"/messages", token, gin.H{
		"message": "¿Cuál es el meta actual?", "game_key": "valorant",
	})
	require.Equal(t, http.StatusOK, w.Code)
	var res chat.SendResult
	decode(t, w, &res)
	assert.True(t, res.Success)
	assert.Equal(t, sess.ID, res.SessionID)
	assert.Contains(t, res.Message.Content, "Jett")

	w = s.do(t, http.MethodGet, "/v1/chat/sessions/"+sess.ID+"/messages", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history struct {
		Messages []json.RawMessage `json:"messages"`
	}
	decode(t, w, &history)
	assert.Len(t, history.Messages, 3)

	w = s.do(t, http.MethodGet, "/v1/chat/sessions/"+sess.ID+"/search?q=meta", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/chat/sessions/"+sess.ID+"/messages", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodGet, "/v1/chat/sessions", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), sess.ID)

	w = s.do(t, http.MethodGet, "/v1/chat/stats", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_sessions":1`)

	w = s.do(t, http.MethodDelete, "/v1/chat/sessions/"+sess.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/v1/chat/sessions/unknown", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestChatQuotaExceeded(t *testing.T) {
	s := newTestServer(t, nil)
	userID, token := s.register(t, "Spender")
	err := s.authSvc.ConsumeTokens(context.Background(), userID, auth.FreeTokenLimit+1)
	require.ErrorIs(t, err, apperr.ErrQuotaExceeded)

	w := s.do(t, http.MethodPost, "/v1/chat/messages", token, gin.H{"message": "hola", "game_key": "lol"})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCommentEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Writer")
	_, otherToken := s.register(t, "Reader")

	w := s.do(t, http.MethodPost, "/v1/comments", token, gin.H{
		"author": "Writer", "content": "Gran guía", "section": "guides",
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)

	w = s.do(t, http.MethodPost, "/v1/comments/"+created.ID+"/replies", otherToken, gin.H{"author": "Reader", "content": "Gracias"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"section":"guides"`)

	w = s.do(t, http.MethodGet, "/v1/comments/"+created.ID, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Gracias")

	w = s.do(t, http.MethodPut, "/v1/comments/"+created.ID, otherToken, gin.H{"content": "hackeado"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodPost, "/v1/comments/"+created.ID+"/like", otherToken, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/v1/comments/search?q=guía", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.ID)

	w = s.do(t, http.MethodGet, "/v1/comments/stats?section=guides", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	w = s.do(t, http.MethodDelete, "/v1/comments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodDelete, "/v1/comments/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestForumEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Poster")

	w := s.do(t, http.MethodGet, "/v1/forum/posts/post-1", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var view struct {
		ID          string `json:"id"`
		ContentHTML string `json:"content_html"`
	}
	decode(t, w, &view)
	assert.Equal(t, "post-1", view.ID)
	assert.Contains(t, view.ContentHTML, "<strong>Jett</strong>")

	w = s.do(t, http.MethodPost, "/v1/forum/posts/post-4/comments", token, gin.H{"content": "¿Sigue abierto?"})
	assert.Equal(t, http.StatusForbidden, w.Code, "locked post")

	w = s.do(t, http.MethodPost, "/v1/forum/posts/post-2/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"liked":true`)

	w = s.do(t, http.MethodPost, "/v1/forum/posts/post-2/bookmark", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/v1/forum/bookmarks", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "post-2")

	w = s.do(t, http.MethodPost, "/v1/forum/posts/post-3/report", token, gin.H{"reason": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/forum/posts", token, gin.H{
		"title": "Mi primer post", "content": "Hola", "category": "general", "tags": []string{"Intro"},
	})
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)

	w = s.do(t, http.MethodPut, "/v1/forum/posts/post-1", token, gin.H{"title": "mío"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(t, http.MethodDelete, "/v1/forum/posts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = s.do(t, http.MethodGet, "/v1/forum/posts/"+created.ID, token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodGet, "/v1/forum/posts?category=guides", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = s.do(t, http.MethodGet, "/v1/forum/search?q=jett", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "suggestions")

	w = s.do(t, http.MethodGet, "/v1/forum/stats", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestGuideEndpoints(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Learner")

	w := s.do(t, http.MethodGet, "/v1/guides?game=cs2&sort=rating", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "cs2-mirage-smokes")

	w = s.do(t, http.MethodGet, "/v1/guides/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, http.MethodPost, "/v1/guides/valorant-sova-lineups/download", token, nil)
	assert.Equal(t, http.StatusForbidden, w.Code, "premium guide on free plan")

	w = s.do(t, http.MethodPost, "/v1/guides/valorant-jett-duelist/download", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"user_downloaded":true`)

	w = s.do(t, http.MethodPost, "/v1/guides/valorant-jett-duelist/rate", token, gin.H{"rating": 6})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, http.MethodPost, "/v1/guides/valorant-jett-duelist/like", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodPost, "/v1/users/me/upgrade", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	w = s.do(t, http.MethodPost, "/v1/guides/valorant-sova-lineups/download", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(t, http.MethodGet, "/v1/guides/me/summary", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"liked":1,"downloaded":2,"rated":0}`, w.Body.String())
}

func TestRateLimitedRequestsGet429(t *testing.T) {
	s := newTestServer(t, middleware.NewRateLimiter(60, 2, zap.NewNop()))

	codes := []int{}
	for i := 0; i < 3; i++ {
		codes = append(codes, s.do(t, http.MethodGet, "/v1/guides", "", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestChatWebsocket(t *testing.T) {
	s := newTestServer(t, nil)
	_, token := s.register(t, "Socket")

	srv := httptest.NewServer(s.router)
	defer srv.Close()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/v1/chat/ws?token=" + token

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/v1/chat/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))

	require.NoError(t, conn.WriteJSON(gin.H{"message": "¿Cómo construyo más rápido?", "game_key": "fortnite"}))
	var first struct {
		Type string          `json:"type"`
		Data chat.SendResult `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, "reply", first.Type)
	assert.True(t, first.Data.Success)
	require.NotEmpty(t, first.Data.SessionID)

	// No session_id: the connection keeps using the session it opened.
	require.NoError(t, conn.WriteJSON(gin.H{"message": "gracias", "game_key": "fortnite"}))
	var second struct {
		Type string          `json:"type"`
		Data chat.SendResult `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, first.Data.SessionID, second.Data.SessionID)

	require.NoError(t, conn.WriteJSON(gin.H{"message": "", "game_key": "fortnite"}))
	var bad struct {
		Type  string `json:"type"`
		Error string `json:"error"`
	}
	require.NoError(t, conn.ReadJSON(&bad))
	assert.Equal(t, "error", bad.Type)
}
