package observ

import (
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLoggerWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "playhub.log")
	logger, err := NewLogger("production", "debug", FileOptions{Path: path})
	require.NoError(t, err)

	logger.Info("hello file", zap.String("k", "v"))
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello file")
}

func TestNewLoggerBadLevelFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger("development", "shouting", FileOptions{})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
}

func TestMetricsServerRoutes(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("GET", "/v1/health", 200, 5*time.Millisecond)
	m.ObserveChatReply("valorant", time.Second, 42, true)
	m.SetChatSessions(3)
	m.RecordRateLimited()

	srv := httptest.NewServer(NewMetricsServer(0, "/metrics", zap.NewNop()).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "playhub_chat_replies_total")
	assert.Contains(t, string(body), "playhub_chat_active_sessions 3")

	resp, err = http.Get(srv.URL + "/health")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, "OK", string(body))
}
