package chat

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository/memory"
)

type fakeMeter struct {
	mu       sync.Mutex
	noQuota  bool
	consumed map[string]int
	failWith error
}

func (m *fakeMeter) HasQuota(_ context.Context, _ string) (bool, error) {
	return !m.noQuota, nil
}

func (m *fakeMeter) ConsumeTokens(_ context.Context, userID string, n int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.consumed == nil {
		m.consumed = make(map[string]int)
	}
	m.consumed[userID] += n
	return m.failWith
}

type fakeRecorder struct {
	replies  int
	failures int
	sessions int
}

func (r *fakeRecorder) ObserveChatReply(_ string, _ time.Duration, _ int, success bool) {
	r.replies++
	if !success {
		r.failures++
	}
}

func (r *fakeRecorder) SetChatSessions(n int) { r.sessions = n }

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	localizer, err := i18n.NewLocalizer("es")
	require.NoError(t, err)
	return NewService(memory.NewSessionStore(), localizer, Config{}, zap.NewNop(), opts...)
}

func TestCreateSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	_, err := svc.CreateSession(ctx, "valorant", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	id, err := svc.CreateSession(ctx, "valorant", "u1")
	require.NoError(t, err)
	require.NotEmpty(t, id)

	history, err := svc.GetSessionHistory(ctx, id, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.MessageIA, history[0].Type)
	assert.Contains(t, history[0].Content, "Valorant")
}

func TestCreateSessionUnknownGameUsesGenericWelcome(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	id, err := svc.CreateSession(ctx, "tetris", "u1")
	require.NoError(t, err)

	history, err := svc.GetSessionHistory(ctx, id, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, svc.responder.Welcome("", "es"), history[0].Content)
}

func TestGetOrCreateSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.GetOrCreateSession(ctx, "lol", "", "u1")
	require.NoError(t, err)

	same, err := svc.GetOrCreateSession(ctx, "lol", first.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, same.ID)

	_, err = svc.GetOrCreateSession(ctx, "lol", first.ID, "intruder")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	fresh, err := svc.GetOrCreateSession(ctx, "lol", "gone", "u1")
	require.NoError(t, err)
	assert.NotEqual(t, "gone", fresh.ID)
}

func TestSendMessageValorantMeta(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	res, err := svc.SendMessage(ctx, "¿Cuál es el meta actual?", "valorant", "", "u1")
	require.NoError(t, err)
	require.True(t, res.Success)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, models.MessageIA, res.Message.Type)
	assert.Regexp(t, regexp.MustCompile(`(?i)valorant|agente|jett|reyna|viper|sova`), res.Message.Content)

	require.NotNil(t, res.Message.Metadata)
	assert.Equal(t, CountTokens(res.Message.Content), res.Message.Metadata.Tokens)
	assert.Equal(t, DefaultModel, res.Message.Metadata.Model)

	history, err := svc.GetSessionHistory(ctx, res.SessionID, "u1")
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, models.MessageUser, history[1].Type)
	assert.Equal(t, models.MessageIA, history[2].Type)
	assert.Less(t, history[1].ID, history[2].ID)
}

func TestSendMessageUsesFollowUpForRepeatedTopic(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	first, err := svc.SendMessage(ctx, "dime el meta", "valorant", "", "u1")
	require.NoError(t, err)
	second, err := svc.SendMessage(ctx, "y el meta en ranked?", "valorant", first.SessionID, "u1")
	require.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.NotEqual(t, first.Message.Content, second.Message.Content)
	assert.Contains(t, second.Message.Content, "Viper")
}

func TestSendMessageGenericFallback(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	svc.responder.pick = func(int) int { return 2 }

	res, err := svc.SendMessage(ctx, "hola", "valorant", "", "u1")
	require.NoError(t, err)
	assert.Equal(t, svc.localizer.Get("es", i18n.MsgGenericReply+"2", nil), res.Message.Content)
}

func TestSendMessageRespectsLanguage(t *testing.T) {
	svc := newTestService(t)
	svc.responder.pick = func(int) int { return 0 }
	ctx := i18n.WithLanguage(context.Background(), "en")

	res, err := svc.SendMessage(ctx, "hello there", "tetris", "", "u1")
	require.NoError(t, err)
	assert.Equal(t, svc.localizer.Get("en", i18n.MsgGenericReply+"0", nil), res.Message.Content)
}

func TestSendMessageErrors(t *testing.T) {
	ctx := context.Background()
	rec := &fakeRecorder{}
	svc := newTestService(t, WithRecorder(rec))

	_, err := svc.SendMessage(ctx, "hola", "valorant", "", "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	owned, err := svc.CreateSession(ctx, "valorant", "owner")
	require.NoError(t, err)

	res, err := svc.SendMessage(ctx, "hola", "valorant", owned, "intruder")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, svc.localizer.Get("es", i18n.MsgApology, nil), res.Message.Content)
	assert.Equal(t, 1, rec.failures)

	history, err := svc.GetSessionHistory(ctx, owned, "owner")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSendMessageCancelledContext(t *testing.T) {
	localizer, err := i18n.NewLocalizer("es")
	require.NoError(t, err)
	svc := NewService(memory.NewSessionStore(), localizer, Config{MinLatency: time.Hour, MaxLatency: time.Hour}, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := svc.SendMessage(ctx, "meta", "valorant", "", "u1")
	require.NoError(t, err)
	assert.False(t, res.Success)
}

func TestSendMessageMetersTokens(t *testing.T) {
	ctx := context.Background()
	meter := &fakeMeter{}
	svc := newTestService(t, WithTokenMeter(meter))

	res, err := svc.SendMessage(ctx, "meta", "valorant", "", "u1")
	require.NoError(t, err)
	assert.Equal(t, res.Message.Metadata.Tokens, meter.consumed["u1"])

	meter.failWith = errors.New("meter down")
	res, err = svc.SendMessage(ctx, "meta", "valorant", res.SessionID, "u1")
	require.NoError(t, err)
	assert.True(t, res.Success)

	meter.noQuota = true
	_, err = svc.SendMessage(ctx, "meta", "valorant", res.SessionID, "u1")
	assert.ErrorIs(t, err, apperr.ErrQuotaExceeded)
}

func TestHistoryAccess(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	id, err := svc.CreateSession(ctx, "cs2", "u1")
	require.NoError(t, err)

	_, err = svc.GetSessionHistory(ctx, id, "")
	assert.ErrorIs(t, err, apperr.ErrUnauthenticated)

	_, err = svc.GetSessionHistory(ctx, id, "u2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	history, err := svc.GetSessionHistory(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestClearSession(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	res, err := svc.SendMessage(ctx, "economía", "cs2", "", "u1")
	require.NoError(t, err)

	_, err = svc.ClearSession(ctx, res.SessionID, "u2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	ok, err := svc.ClearSession(ctx, res.SessionID, "u1")
	require.NoError(t, err)
	assert.True(t, ok)

	history, err := svc.GetSessionHistory(ctx, res.SessionID, "u1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, models.MessageIA, history[0].Type)

	ok, err = svc.ClearSession(ctx, "missing", "u1")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchChatHistory(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	res, err := svc.SendMessage(ctx, "Busco info sobre SEARCHTERM", "minecraft", "", "u1")
	require.NoError(t, err)

	found, err := svc.SearchChatHistory(ctx, res.SessionID, "searchterm", "u1")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, models.MessageUser, found[0].Type)

	_, err = svc.SearchChatHistory(ctx, res.SessionID, "searchterm", "u2")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestListUserSessions(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	svc := newTestService(t, WithClock(func() time.Time { return clock }))

	older, err := svc.CreateSession(ctx, "lol", "u1")
	require.NoError(t, err)
	clock = clock.Add(time.Minute)
	newer, err := svc.CreateSession(ctx, "apex", "u1")
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, "apex", "u2")
	require.NoError(t, err)

	sessions, err := svc.ListUserSessions(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, newer, sessions[0].ID)
	assert.Equal(t, older, sessions[1].ID)
}

func TestGetChatStats(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	for _, game := range []string{"valorant", "valorant", "lol", "cs2", "apex", "fortnite", "minecraft"} {
		_, err := svc.CreateSession(ctx, game, "u1")
		require.NoError(t, err)
	}

	stats, err := svc.GetChatStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalSessions)
	assert.Equal(t, 7, stats.TotalMessages)
	assert.Equal(t, 7, stats.ActiveToday)
	require.Len(t, stats.PopularGames, 5)
	assert.Equal(t, GameCount{Game: "valorant", Count: 2}, stats.PopularGames[0])
}

func TestSweepExpired(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	rec := &fakeRecorder{}
	svc := newTestService(t, WithRecorder(rec), WithClock(func() time.Time { return clock }))

	stale, err := svc.CreateSession(ctx, "lol", "u1")
	require.NoError(t, err)
	clock = clock.Add(50 * time.Minute)
	fresh, err := svc.CreateSession(ctx, "lol", "u1")
	require.NoError(t, err)
	clock = clock.Add(20 * time.Minute)

	removed, err := svc.SweepExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, rec.sessions)

	history, err := svc.GetSessionHistory(ctx, stale, "u1")
	require.NoError(t, err)
	assert.Empty(t, history)
	history, err = svc.GetSessionHistory(ctx, fresh, "u1")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestCountTokens(t *testing.T) {
	assert.Equal(t, 0, CountTokens(""))
	assert.Equal(t, 1, CountTokens("abc"))
	assert.Equal(t, 1, CountTokens("abcd"))
	assert.Equal(t, 2, CountTokens("abcde"))
	assert.Equal(t, 1, CountTokens("ñññ"))
}
