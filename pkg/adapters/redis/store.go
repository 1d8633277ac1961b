package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/aretw0/easel/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

const (
	// DefaultSnapshotPrefix namespaces snapshot keys.
	DefaultSnapshotPrefix = "easel:canvas:"
	// DefaultHistoryPrefix namespaces chat log keys.
	DefaultHistoryPrefix = "easel:history:"

	// neverExpires is the index score used when no TTL is set (2100-01-01).
	neverExpires = 4102444800
)

// Store implements ports.SnapshotStore using Redis.
//
// Each snapshot is a JSON string under prefix+sessionID. A sorted set at
// prefix+"index" scores each session by its expiry time so List can prune
// expired entries lazily.
type Store struct {
	client backend.UniversalClient
	prefix string
	ttl    time.Duration
}

// Option configures a Store or a History.
type Option func(*options)

type options struct {
	prefix string
	ttl    time.Duration
}

// WithTTL sets the expiration of saved keys. Zero means no expiration.
func WithTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

func apply(prefix string, opts []Option) options {
	o := options{prefix: prefix}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewClient connects to the redis server at address.
func NewClient(address, password string, db int) *backend.Client {
	return backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
}

// NewFromClient creates a snapshot store over an existing client.
func NewFromClient(client backend.UniversalClient, opts ...Option) *Store {
	o := apply(DefaultSnapshotPrefix, opts)
	return &Store{
		client: client,
		prefix: o.prefix,
		ttl:    o.ttl,
	}
}

func (s *Store) key(sessionID string) string {
	return s.prefix + sessionID
}

func (s *Store) indexKey() string {
	return s.prefix + "index"
}

// Save persists the snapshot and refreshes its index entry.
func (s *Store) Save(ctx context.Context, sessionID string, snap *domain.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	score := float64(time.Now().Add(s.ttl).Unix())
	if s.ttl == 0 {
		score = neverExpires
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.key(sessionID), data, s.ttl)
	pipe.ZAdd(ctx, s.indexKey(), backend.Z{Score: score, Member: sessionID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Load retrieves the snapshot.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.Snapshot, error) {
	val, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, domain.ErrSnapshotNotFound
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}

	var snap domain.Snapshot
	if err := json.Unmarshal(val, &snap); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

// Delete removes the snapshot and its index entry.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.key(sessionID))
	pipe.ZRem(ctx, s.indexKey(), sessionID)
	_, err := pipe.Exec(ctx)
	return err
}

// List prunes expired index entries and returns the remaining sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	now := float64(time.Now().Unix())
	if err := s.client.ZRemRangeByScore(ctx, s.indexKey(), "-inf", fmt.Sprintf("%f", now)).Err(); err != nil {
		return nil, fmt.Errorf("failed to prune expired sessions: %w", err)
	}

	sessions, err := s.client.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
