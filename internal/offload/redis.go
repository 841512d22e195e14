// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package offload

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/pdiddy/research-agent/pkg/types"
)

// RedisStore keeps raw notes as a Redis list per run, so several agent
// processes can share one offload.
type RedisStore struct {
	rdb    redis.Cmdable
	closer func() error
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// OpenRedis connects to url and verifies the connection. A positive ttl
// expires each run's notes.
func OpenRedis(ctx context.Context, url string, ttl time.Duration) (*RedisStore, error) {
	if url == "" {
		return nil, errors.New("redis offload requires a URL")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parsing redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}
	return &RedisStore{rdb: client, closer: client.Close, ttl: ttl}, nil
}

// NewRedisStore wraps an existing client. Close does not close it.
func NewRedisStore(rdb redis.Cmdable, ttl time.Duration) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl}
}

func notesKey(runID string) string {
	return fmt.Sprintf("research:run:%s:raw_notes", runID)
}

// Put replaces the raw notes stored for runID.
func (s *RedisStore) Put(ctx context.Context, runID string, notes []types.RawNote) error {
	values := make([]any, len(notes))
	for i, n := range notes {
		b, err := json.Marshal(n)
		if err != nil {
			return fmt.Errorf("marshal note %d: %w", i, err)
		}
		values[i] = b
	}

	key := notesKey(runID)
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, key)
		if len(values) > 0 {
			p.RPush(ctx, key, values...)
		}
		if s.ttl > 0 {
			p.Expire(ctx, key, s.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	return nil
}

// Get returns the raw notes of runID in their original order.
func (s *RedisStore) Get(ctx context.Context, runID string) ([]types.RawNote, error) {
	key := notesKey(runID)
	rows, err := s.rdb.LRange(ctx, key, 0, -1).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("reading %s: %w", key, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	notes := make([]types.RawNote, 0, len(rows))
	for i, row := range rows {
		var n types.RawNote
		if err := json.Unmarshal([]byte(row), &n); err != nil {
			return nil, fmt.Errorf("unmarshal note at index %d: %w", i, err)
		}
		notes = append(notes, n)
	}
	return notes, nil
}

// Close closes the client when the store opened it.
func (s *RedisStore) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
