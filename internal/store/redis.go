// Package store persists per-client chat state in Redis. It is the
// server-side stand-in for the browser's localStorage slots: one pending
// anonymous buffer and one current-session pointer per client.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"clarity-gateway/internal/models"
)

const (
	bufferKeyPrefix  = "tempchat:"
	currentKeyPrefix = "currentchat:"

	// Anonymous buffers expire if the client never returns.
	bufferTTL = 30 * 24 * time.Hour
)

type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// LoadBuffer returns the client's pending transcript, or nil when the slot
// is empty.
func (s *RedisStore) LoadBuffer(ctx context.Context, clientID string) ([]models.BufferedMessage, error) {
	data, err := s.client.Get(ctx, bufferKeyPrefix+clientID).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load buffer: %w", err)
	}

	var msgs []models.BufferedMessage
	if err := json.Unmarshal(data, &msgs); err != nil {
		return nil, fmt.Errorf("corrupt buffer for client %s: %w", clientID, err)
	}
	return msgs, nil
}

// SaveBuffer overwrites the client's buffer slot wholesale.
func (s *RedisStore) SaveBuffer(ctx context.Context, clientID string, msgs []models.BufferedMessage) error {
	data, err := json.Marshal(msgs)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, bufferKeyPrefix+clientID, data, bufferTTL).Err(); err != nil {
		return fmt.Errorf("failed to save buffer: %w", err)
	}
	return nil
}

func (s *RedisStore) ClearBuffer(ctx context.Context, clientID string) error {
	return s.client.Del(ctx, bufferKeyPrefix+clientID).Err()
}

// CurrentSession returns the last active session id for the client, or ""
// when none is recorded.
func (s *RedisStore) CurrentSession(ctx context.Context, clientID string) (string, error) {
	id, err := s.client.Get(ctx, currentKeyPrefix+clientID).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to load current session: %w", err)
	}
	return id, nil
}

func (s *RedisStore) SetCurrentSession(ctx context.Context, clientID, sessionID string) error {
	return s.client.Set(ctx, currentKeyPrefix+clientID, sessionID, bufferTTL).Err()
}

func (s *RedisStore) ClearCurrentSession(ctx context.Context, clientID string) error {
	return s.client.Del(ctx, currentKeyPrefix+clientID).Err()
}
