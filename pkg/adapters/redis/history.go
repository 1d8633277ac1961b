package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// History implements ports.HistoryStore as one redis list per session.
type History struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewHistory creates a chat log store over an existing client.
func NewHistory(client backend.UniversalClient, opts ...Option) *History {
	o := apply(DefaultHistoryPrefix, opts)
	return &History{
		client: client,
		prefix: o.prefix,
		ttl:    o.ttl,
	}
}

func (h *History) key(sessionID string) string {
	return h.prefix + sessionID
}

// Append pushes msg to the tail of the session's list.
func (h *History) Append(ctx context.Context, sessionID string, msg domain.ChatMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	pipe := h.client.TxPipeline()
	pipe.RPush(ctx, h.key(sessionID), data)
	if h.ttl > 0 {
		pipe.Expire(ctx, h.key(sessionID), h.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append to redis: %w", err)
	}
	return nil
}

// List returns the whole session log.
func (h *History) List(ctx context.Context, sessionID string) ([]domain.ChatMessage, error) {
	raw, err := h.client.LRange(ctx, h.key(sessionID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read history from redis: %w", err)
	}

	msgs := make([]domain.ChatMessage, 0, len(raw))
	for i, item := range raw {
		var msg domain.ChatMessage
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal message %d: %w", i, err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

// Clear deletes the session's list.
func (h *History) Clear(ctx context.Context, sessionID string) error {
	return h.client.Del(ctx, h.key(sessionID)).Err()
}
