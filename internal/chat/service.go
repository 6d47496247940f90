package chat

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/lalith-99/playhub/internal/apperr"
	"github.com/lalith-99/playhub/internal/i18n"
	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const (
	DefaultMinLatency = 800 * time.Millisecond
	DefaultMaxLatency = 2000 * time.Millisecond
	DefaultSessionTTL = time.Hour
	DefaultModel      = "playhub-assistant-v1"

	popularGamesLimit = 5
)

type Config struct {
	MinLatency time.Duration
	MaxLatency time.Duration
	SessionTTL time.Duration
	Model      string
}

// TokenMeter charges generated tokens to a user's quota.
type TokenMeter interface {
	HasQuota(ctx context.Context, userID string) (bool, error)
	ConsumeTokens(ctx context.Context, userID string, n int) error
}

// Recorder receives one observation per SendMessage call.
type Recorder interface {
	ObserveChatReply(game string, latency time.Duration, tokens int, success bool)
	SetChatSessions(n int)
}

type SendResult struct {
	Message   models.ChatMessage `json:"message"`
	SessionID string             `json:"session_id"`
	Success   bool               `json:"success"`
}

type GameCount struct {
	Game  string `json:"game"`
	Count int    `json:"count"`
}

type ChatStats struct {
	TotalSessions int         `json:"total_sessions"`
	TotalMessages int         `json:"total_messages"`
	ActiveToday   int         `json:"active_today"`
	PopularGames  []GameCount `json:"popular_games"`
}

type Option func(*Service)

func WithTokenMeter(m TokenMeter) Option {
	return func(s *Service) { s.meter = m }
}

func WithRecorder(r Recorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service runs the game assistant chat. Sessions live in the repository;
// the service keeps no per-session state of its own.
type Service struct {
	sessions  repository.SessionRepository
	responder *Responder
	localizer *i18n.Localizer
	cfg       Config
	meter     TokenMeter
	recorder  Recorder
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(sessions repository.SessionRepository, localizer *i18n.Localizer, cfg Config, logger *zap.Logger, opts ...Option) *Service {
	if cfg.MaxLatency < cfg.MinLatency {
		cfg.MaxLatency = cfg.MinLatency
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	s := &Service{
		sessions:  sessions,
		responder: NewResponder(localizer),
		localizer: localizer,
		cfg:       cfg,
		now:       time.Now,
		logger:    logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession opens a session seeded with the game's welcome message.
func (s *Service) CreateSession(ctx context.Context, gameKey, userID string) (string, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return "", err
	}
	sess, err := s.createSession(ctx, gameKey, userID)
	if err != nil {
		return "", err
	}
	return sess.ID, nil
}

func (s *Service) createSession(ctx context.Context, gameKey, userID string) (*models.ChatSession, error) {
	welcome, err := s.welcomeMessage(ctx, gameKey)
	if err != nil {
		return nil, err
	}
	now := s.now()
	sess := &models.ChatSession{
		ID:           uuid.NewString(),
		GameKey:      gameKey,
		UserID:       userID,
		Messages:     []models.ChatMessage{welcome},
		CreatedAt:    now,
		LastActivity: now,
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	s.logger.Info("chat session created",
		zap.String("session_id", sess.ID),
		zap.String("game", gameKey),
		zap.String("user_id", userID),
	)
	return sess, nil
}

// GetOrCreateSession returns the caller's session, opening a new one when
// sessionID is empty or no longer exists.
func (s *Service) GetOrCreateSession(ctx context.Context, gameKey, sessionID, userID string) (*models.ChatSession, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	if sessionID != "" {
		sess, err := s.sessions.Update(ctx, sessionID, func(cs *models.ChatSession) error {
			if cs.UserID != userID {
				return apperr.Forbidden("no tienes acceso a esta sesión")
			}
			cs.LastActivity = s.now()
			return nil
		})
		if err != nil {
			return nil, err
		}
		if sess != nil {
			return sess, nil
		}
	}
	return s.createSession(ctx, gameKey, userID)
}

// SendMessage stores the user's message and the assistant's answer.
// Only a missing user and an exhausted quota come back as errors; any
// other failure is turned into an apology message with Success false.
func (s *Service) SendMessage(ctx context.Context, message, gameKey, sessionID, userID string) (*SendResult, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	if s.meter != nil {
		ok, err := s.meter.HasQuota(ctx, userID)
		if err != nil {
			s.logger.Warn("quota check failed", zap.String("user_id", userID), zap.Error(err))
		} else if !ok {
			return nil, apperr.QuotaExceeded("has alcanzado el límite de tokens de tu plan")
		}
	}

	lang := i18n.LanguageFrom(ctx, s.localizer.DefaultLanguage())
	start := s.now()

	res, err := s.sendMessage(ctx, message, gameKey, sessionID, userID, lang)
	if err != nil {
		s.logger.Error("send message failed",
			zap.String("session_id", sessionID),
			zap.String("user_id", userID),
			zap.Error(err),
		)
		s.observe(gameKey, s.now().Sub(start), 0, false)
		return s.apology(ctx, gameKey, sessionID, lang), nil
	}

	tokens := 0
	if res.Message.Metadata != nil {
		tokens = res.Message.Metadata.Tokens
	}
	s.observe(gameKey, s.now().Sub(start), tokens, true)

	if s.meter != nil && tokens > 0 {
		if err := s.meter.ConsumeTokens(ctx, userID, tokens); err != nil {
			s.logger.Warn("token metering failed",
				zap.String("user_id", userID),
				zap.Int("tokens", tokens),
				zap.Error(err),
			)
		}
	}
	return res, nil
}

func (s *Service) sendMessage(ctx context.Context, message, gameKey, sessionID, userID, lang string) (*SendResult, error) {
	if strings.TrimSpace(message) == "" {
		return nil, apperr.Invalid("el mensaje está vacío")
	}

	sess, err := s.GetOrCreateSession(ctx, gameKey, sessionID, userID)
	if err != nil {
		return nil, err
	}

	userMsgID, err := s.sessions.NextMessageID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next message id: %w", err)
	}

	var history []models.ChatMessage
	sess, err = s.sessions.Update(ctx, sess.ID, func(cs *models.ChatSession) error {
		if cs.UserID != userID {
			return apperr.Forbidden("no tienes acceso a esta sesión")
		}
		history = append([]models.ChatMessage(nil), cs.Messages...)
		now := s.now()
		cs.Messages = append(cs.Messages, models.ChatMessage{
			ID:        userMsgID,
			Type:      models.MessageUser,
			Content:   message,
			Timestamp: now,
			Game:      gameKey,
		})
		cs.LastActivity = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, errors.New("session expired before the message was stored")
	}

	started := s.now()
	if err := s.wait(ctx); err != nil {
		return nil, err
	}

	reply := s.responder.Reply(sess.GameKey, message, history, lang)

	replyID, err := s.sessions.NextMessageID(ctx)
	if err != nil {
		return nil, fmt.Errorf("next message id: %w", err)
	}
	now := s.now()
	iaMsg := models.ChatMessage{
		ID:        replyID,
		Type:      models.MessageIA,
		Content:   reply,
		Timestamp: now,
		Game:      sess.GameKey,
		Metadata: &models.MessageMetadata{
			ResponseTime: now.Sub(started).Milliseconds(),
			Tokens:       CountTokens(reply),
			Model:        s.cfg.Model,
		},
	}

	updated, err := s.sessions.Update(ctx, sess.ID, func(cs *models.ChatSession) error {
		cs.Messages = append(cs.Messages, iaMsg)
		cs.LastActivity = now
		return nil
	})
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, errors.New("session expired before the reply was stored")
	}

	return &SendResult{Message: iaMsg, SessionID: sess.ID, Success: true}, nil
}

// wait simulates the assistant thinking. It returns early with the
// context's error if ctx is cancelled.
func (s *Service) wait(ctx context.Context) error {
	d := s.cfg.MinLatency
	if span := s.cfg.MaxLatency - s.cfg.MinLatency; span > 0 {
		d += rand.N(span)
	}
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (s *Service) apology(ctx context.Context, gameKey, sessionID, lang string) *SendResult {
	id, err := s.sessions.NextMessageID(ctx)
	if err != nil {
		s.logger.Warn("apology message id", zap.Error(err))
	}
	return &SendResult{
		Message: models.ChatMessage{
			ID:        id,
			Type:      models.MessageIA,
			Content:   s.responder.Apology(lang),
			Timestamp: s.now(),
			Game:      gameKey,
		},
		SessionID: sessionID,
		Success:   false,
	}
}

// GetSessionHistory returns the messages of the caller's session.
// An unknown session yields an empty history.
func (s *Service) GetSessionHistory(ctx context.Context, sessionID, userID string) ([]models.ChatMessage, error) {
	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil || sess == nil {
		return []models.ChatMessage{}, err
	}
	return sess.Messages, nil
}

// ClearSession resets the conversation to a fresh welcome message.
func (s *Service) ClearSession(ctx context.Context, sessionID, userID string) (bool, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return false, err
	}
	current, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil || current == nil {
		return false, err
	}

	welcome, err := s.welcomeMessage(ctx, current.GameKey)
	if err != nil {
		return false, err
	}
	sess, err := s.sessions.Update(ctx, sessionID, func(cs *models.ChatSession) error {
		if cs.UserID != userID {
			return apperr.Forbidden("no tienes acceso a esta sesión")
		}
		cs.Messages = []models.ChatMessage{welcome}
		cs.LastActivity = s.now()
		return nil
	})
	if err != nil {
		return false, err
	}
	return sess != nil, nil
}

// SearchChatHistory returns the messages whose content contains query,
// case-insensitively.
func (s *Service) SearchChatHistory(ctx context.Context, sessionID, query, userID string) ([]models.ChatMessage, error) {
	sess, err := s.ownedSession(ctx, sessionID, userID)
	if err != nil || sess == nil {
		return []models.ChatMessage{}, err
	}
	q := strings.ToLower(strings.TrimSpace(query))
	out := []models.ChatMessage{}
	for _, m := range sess.Messages {
		if strings.Contains(strings.ToLower(m.Content), q) {
			out = append(out, m)
		}
	}
	return out, nil
}

// ListUserSessions returns the caller's sessions, most recently active first.
func (s *Service) ListUserSessions(ctx context.Context, userID string) ([]models.ChatSession, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	all, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	out := []models.ChatSession{}
	for _, sess := range all {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastActivity.After(out[j].LastActivity)
	})
	return out, nil
}

func (s *Service) GetChatStats(ctx context.Context) (*ChatStats, error) {
	all, err := s.sessions.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	now := s.now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	stats := &ChatStats{TotalSessions: len(all), PopularGames: []GameCount{}}
	perGame := make(map[string]int)
	for _, sess := range all {
		stats.TotalMessages += len(sess.Messages)
		if !sess.LastActivity.Before(midnight) {
			stats.ActiveToday++
		}
		perGame[sess.GameKey]++
	}

	for game, count := range perGame {
		stats.PopularGames = append(stats.PopularGames, GameCount{Game: game, Count: count})
	}
	sort.Slice(stats.PopularGames, func(i, j int) bool {
		a, b := stats.PopularGames[i], stats.PopularGames[j]
		if a.Count != b.Count {
			return a.Count > b.Count
		}
		return a.Game < b.Game
	})
	if len(stats.PopularGames) > popularGamesLimit {
		stats.PopularGames = stats.PopularGames[:popularGamesLimit]
	}
	return stats, nil
}

// SweepExpired removes sessions idle for longer than the session TTL.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	removed, err := s.sessions.DeleteIdleSince(ctx, s.now().Add(-s.cfg.SessionTTL))
	if err != nil {
		return 0, fmt.Errorf("sweep sessions: %w", err)
	}
	if s.recorder != nil {
		if all, err := s.sessions.List(ctx); err == nil {
			s.recorder.SetChatSessions(len(all))
		}
	}
	return removed, nil
}

func (s *Service) ownedSession(ctx context.Context, sessionID, userID string) (*models.ChatSession, error) {
	if err := apperr.RequireUser(userID); err != nil {
		return nil, err
	}
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, nil
	}
	if sess.UserID != userID {
		return nil, apperr.Forbidden("no tienes acceso a esta sesión")
	}
	return sess, nil
}

func (s *Service) welcomeMessage(ctx context.Context, gameKey string) (models.ChatMessage, error) {
	id, err := s.sessions.NextMessageID(ctx)
	if err != nil {
		return models.ChatMessage{}, fmt.Errorf("next message id: %w", err)
	}
	lang := i18n.LanguageFrom(ctx, s.localizer.DefaultLanguage())
	return models.ChatMessage{
		ID:        id,
		Type:      models.MessageIA,
		Content:   s.responder.Welcome(gameKey, lang),
		Timestamp: s.now(),
		Game:      gameKey,
	}, nil
}

func (s *Service) observe(game string, d time.Duration, tokens int, success bool) {
	if s.recorder != nil {
		s.recorder.ObserveChatReply(game, d, tokens, success)
	}
}

// CountTokens approximates the token count of text as one token per four
// characters, rounded up.
func CountTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
