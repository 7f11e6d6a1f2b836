package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps completions in a single Redis hash (task ID → JSON).
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore creates a RedisStore. An empty key defaults to
// "outreach:task-completions".
func NewRedisStore(client *redis.Client, key string) *RedisStore {
	if key == "" {
		key = "outreach:task-completions"
	}
	return &RedisStore{client: client, key: key}
}

// Complete records a completion.
func (s *RedisStore) Complete(ctx context.Context, c Completion) error {
	data, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling completion: %w", err)
	}
	if err := s.client.HSet(ctx, s.key, c.TaskID, data).Err(); err != nil {
		return fmt.Errorf("saving completion %s: %w", c.TaskID, err)
	}
	return nil
}

// Reopen removes a completion.
func (s *RedisStore) Reopen(ctx context.Context, taskID string) error {
	if err := s.client.HDel(ctx, s.key, taskID).Err(); err != nil {
		return fmt.Errorf("deleting completion %s: %w", taskID, err)
	}
	return nil
}

// Completions loads every completion. Undecodable entries are skipped.
func (s *RedisStore) Completions(ctx context.Context) (map[string]Completion, error) {
	raw, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("loading completions: %w", err)
	}
	out := make(map[string]Completion, len(raw))
	for id, v := range raw {
		var c Completion
		if err := json.Unmarshal([]byte(v), &c); err != nil {
			continue
		}
		c.TaskID = id
		out[id] = c
	}
	return out, nil
}
