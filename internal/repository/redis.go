package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/xiaot623/clompanion/internal/domain"
)

// appendScript pushes a message only while the session hash exists, so an
// append racing a delete cannot resurrect a half-deleted session.
var appendScript = redis.NewScript(`
if redis.call("EXISTS", KEYS[1]) == 0 then
	return 0
end
redis.call("RPUSH", KEYS[2], ARGV[1])
return 1
`)

// createScript creates the session hash and indexes it in one step, so the
// index never misses a live session or keeps a deleted one.
var createScript = redis.NewScript(`
if redis.call("HSETNX", KEYS[1], "created_at", ARGV[2]) == 0 then
	return 0
end
redis.call("SADD", KEYS[2], ARGV[1])
return 1
`)

// RedisStore implements Store using Redis.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a new Redis-backed store.
func NewRedisStore(redisURL, prefix string) (*RedisStore, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:session:%s", r.prefix, sessionID)
}

func (r *RedisStore) messagesKey(sessionID string) string {
	return fmt.Sprintf("%s:messages:%s", r.prefix, sessionID)
}

func (r *RedisStore) indexKey() string {
	return r.prefix + ":sessions"
}

// GetOrCreate gets an existing session or creates a new one.
func (r *RedisStore) GetOrCreate(ctx context.Context, sessionID string) (string, bool, error) {
	if sessionID == "" {
		sessionID = domain.NewSessionID()
	}

	created, err := createScript.Run(ctx, r.client,
		[]string{r.sessionKey(sessionID), r.indexKey()},
		sessionID, time.Now().UnixNano()).Int()
	if err != nil {
		return "", false, fmt.Errorf("failed to create session: %w", err)
	}
	return sessionID, created == 1, nil
}

// Append adds a message to a session log.
func (r *RedisStore) Append(ctx context.Context, sessionID string, msg domain.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	ok, err := appendScript.Run(ctx, r.client,
		[]string{r.sessionKey(sessionID), r.messagesKey(sessionID)}, data).Int()
	if err != nil {
		return fmt.Errorf("failed to append message: %w", err)
	}
	if ok == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// Get retrieves the session log.
func (r *RedisStore) Get(ctx context.Context, sessionID string) ([]domain.Message, error) {
	var exists *redis.IntCmd
	var items *redis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, r.sessionKey(sessionID))
		items = pipe.LRange(ctx, r.messagesKey(sessionID), 0, -1)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	if exists.Val() == 0 {
		return nil, domain.ErrSessionNotFound
	}

	messages := make([]domain.Message, 0, len(items.Val()))
	for _, item := range items.Val() {
		var msg domain.Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			return nil, fmt.Errorf("failed to parse message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// Delete removes a session from Redis.
func (r *RedisStore) Delete(ctx context.Context, sessionID string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.sessionKey(sessionID), r.messagesKey(sessionID))
		pipe.SRem(ctx, r.indexKey(), sessionID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// List returns a summary of every indexed session.
func (r *RedisStore) List(ctx context.Context) ([]domain.SessionSummary, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	created := make([]*redis.StringCmd, len(ids))
	counts := make([]*redis.IntCmd, len(ids))
	_, err = r.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			created[i] = pipe.HGet(ctx, r.sessionKey(id), "created_at")
			counts[i] = pipe.LLen(ctx, r.messagesKey(id))
		}
		return nil
	})
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("failed to load session summaries: %w", err)
	}

	summaries := make([]domain.SessionSummary, 0, len(ids))
	for i, id := range ids {
		raw, err := created[i].Result()
		if err == redis.Nil {
			// deleted between SMEMBERS and the pipeline
			continue
		}
		if err != nil {
			return nil, err
		}
		nanos, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid created_at for session %s: %w", id, err)
		}
		summaries = append(summaries, domain.SessionSummary{
			SessionID:    id,
			CreatedAt:    time.Unix(0, nanos),
			MessageCount: int(counts[i].Val()),
		})
	}
	return summaries, nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Ensure RedisStore implements Store interface.
var _ Store = (*RedisStore)(nil)
