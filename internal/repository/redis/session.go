// Package redis stores chat sessions in Redis.
//
// Each session is one JSON value under "chat:session:<id>" with a TTL that
// is refreshed on every write, so Redis expires idle sessions on its own.
// The "chat:sessions" set indexes ids for List and the reaper; ids whose
// key has already expired are pruned lazily.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/lalith-99/playhub/internal/models"
	"github.com/lalith-99/playhub/internal/repository"
)

const (
	sessionKeyPrefix = "chat:session:"
	sessionIndexKey  = "chat:sessions"
	messageSeqKey    = "chat:message_seq"

	// maxWatchRetries bounds optimistic-lock retries in Update.
	maxWatchRetries = 5
)

type SessionStore struct {
	client *goredis.Client
	ttl    time.Duration
}

// NewSessionStore wraps client. ttl is the idle lifetime of a session.
func NewSessionStore(client *goredis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{client: client, ttl: ttl}
}

// Connect parses a redis:// URL and pings the server.
func Connect(ctx context.Context, redisURL string) (*goredis.Client, error) {
	opts, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := goredis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (s *SessionStore) Create(ctx context.Context, sess *models.ChatSession) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, sessionKey(sess.ID), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	if !ok {
		return repository.ErrConflict
	}
	if err := s.client.SAdd(ctx, sessionIndexKey, sess.ID).Err(); err != nil {
		return fmt.Errorf("index session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, id string) (*models.ChatSession, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	return decodeSession(data)
}

// Update uses WATCH/MULTI. A concurrent writer makes EXEC fail with
// TxFailedErr and the whole read-modify-write is retried.
func (s *SessionStore) Update(ctx context.Context, id string, fn func(*models.ChatSession) error) (*models.ChatSession, error) {
	key := sessionKey(id)
	var result *models.ChatSession

	txf := func(tx *goredis.Tx) error {
		result = nil
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, goredis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}
		sess, err := decodeSession(data)
		if err != nil {
			return err
		}
		if err := fn(sess); err != nil {
			return err
		}
		sess.ID = id
		encoded, err := json.Marshal(sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, encoded, s.ttl)
			return nil
		})
		if err == nil {
			result = sess
		}
		return err
	}

	for attempt := 0; attempt < maxWatchRetries; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	}
	return nil, fmt.Errorf("update session %s: too much contention", id)
}

func (s *SessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, sessionKey(id))
		pipe.SRem(ctx, sessionIndexKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (s *SessionStore) List(ctx context.Context) ([]models.ChatSession, error) {
	ids, err := s.client.SMembers(ctx, sessionIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list session ids: %w", err)
	}
	if len(ids) == 0 {
		return []models.ChatSession{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = sessionKey(id)
	}
	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("load sessions: %w", err)
	}

	sessions := make([]models.ChatSession, 0, len(values))
	var expired []any
	for i, v := range values {
		raw, ok := v.(string)
		if !ok {
			expired = append(expired, ids[i])
			continue
		}
		sess, err := decodeSession([]byte(raw))
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, *sess)
	}
	if len(expired) > 0 {
		if err := s.client.SRem(ctx, sessionIndexKey, expired...).Err(); err != nil {
			return nil, fmt.Errorf("prune session index: %w", err)
		}
	}
	return sessions, nil
}

// DeleteIdleSince removes sessions Redis has not expired yet but whose
// LastActivity is older than cutoff, and prunes ids of expired keys.
func (s *SessionStore) DeleteIdleSince(ctx context.Context, cutoff time.Time) (int, error) {
	sessions, err := s.List(ctx)
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, sess := range sessions {
		if !sess.LastActivity.Before(cutoff) {
			continue
		}
		if err := s.Delete(ctx, sess.ID); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

func (s *SessionStore) NextMessageID(ctx context.Context) (int64, error) {
	id, err := s.client.Incr(ctx, messageSeqKey).Result()
	if err != nil {
		return 0, fmt.Errorf("next message id: %w", err)
	}
	return id, nil
}

func decodeSession(data []byte) (*models.ChatSession, error) {
	var sess models.ChatSession
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decode session: %w", err)
	}
	return &sess, nil
}
