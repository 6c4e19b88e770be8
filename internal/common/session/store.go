// Package session keeps the loaded account and chat transcript per session in Redis.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"isp-assistant/internal/common/config"
	"isp-assistant/internal/models"
)

var ErrSessionNotFound = errors.New("SESSION_NOT_FOUND")

// Store implements models.SessionRepository.
type Store struct {
	client      redis.Cmdable
	prefix      string
	ttl         time.Duration
	maxMessages int64
}

var _ models.SessionRepository = (*Store)(nil)

func NewStore(client redis.Cmdable, cfg config.SessionConfig) *Store {
	return &Store{
		client:      client,
		prefix:      cfg.KeyPrefix,
		ttl:         time.Duration(cfg.TTL) * time.Second,
		maxMessages: int64(cfg.MaxMessages),
	}
}

func (s *Store) snapshotKey(id string) string { return fmt.Sprintf("%s:%s:snapshot", s.prefix, id) }
func (s *Store) messagesKey(id string) string { return fmt.Sprintf("%s:%s:messages", s.prefix, id) }

// SaveSnapshot replaces the session's account and drops its transcript.
func (s *Store) SaveSnapshot(ctx context.Context, sessionID string, snapshot *models.AccountSnapshot) error {
	if snapshot == nil {
		return errors.New("nil snapshot")
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.snapshotKey(sessionID), data, s.ttl)
		pipe.Del(ctx, s.messagesKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

func (s *Store) LoadSnapshot(ctx context.Context, sessionID string) (*models.AccountSnapshot, error) {
	data, err := s.client.Get(ctx, s.snapshotKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	var snapshot models.AccountSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return &snapshot, nil
}

// AppendMessages pushes messages in order, keeps only the newest
// maxMessages and refreshes the TTL of both keys.
func (s *Store) AppendMessages(ctx context.Context, sessionID string, messages ...models.ChatMessage) error {
	if len(messages) == 0 {
		return nil
	}
	values := make([]interface{}, 0, len(messages))
	for _, m := range messages {
		data, err := json.Marshal(m)
		if err != nil {
			return fmt.Errorf("encode message: %w", err)
		}
		values = append(values, data)
	}

	key := s.messagesKey(sessionID)
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, values...)
		if s.maxMessages > 0 {
			pipe.LTrim(ctx, key, -s.maxMessages, -1)
		}
		if s.ttl > 0 {
			pipe.Expire(ctx, key, s.ttl)
			pipe.Expire(ctx, s.snapshotKey(sessionID), s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("append messages: %w", err)
	}
	return nil
}

func (s *Store) Messages(ctx context.Context, sessionID string) ([]models.ChatMessage, error) {
	raw, err := s.client.LRange(ctx, s.messagesKey(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load messages: %w", err)
	}

	out := make([]models.ChatMessage, 0, len(raw))
	for _, r := range raw {
		var m models.ChatMessage
		if err := json.Unmarshal([]byte(r), &m); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		out = append(out, m)
	}
	return out, nil
}

// Describe summarises a session without loading its transcript.
func (s *Store) Describe(ctx context.Context, sessionID string) (*models.Session, error) {
	snapshot, err := s.LoadSnapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	count, err := s.client.LLen(ctx, s.messagesKey(sessionID)).Result()
	if err != nil {
		return nil, fmt.Errorf("count messages: %w", err)
	}

	sess := &models.Session{
		ID:           sessionID,
		AccountID:    snapshot.Account.ID,
		ISPName:      snapshot.Account.Name,
		MessageCount: count,
	}
	if ttl, err := s.client.TTL(ctx, s.snapshotKey(sessionID)).Result(); err == nil && ttl > 0 {
		sess.ExpiresAt = time.Now().Add(ttl)
	}
	return sess, nil
}

func (s *Store) Reset(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, s.snapshotKey(sessionID), s.messagesKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("reset session: %w", err)
	}
	return nil
}
