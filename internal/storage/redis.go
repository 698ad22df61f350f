package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jwebster45206/story-crew/pkg/state"
	"github.com/jwebster45206/story-crew/pkg/storage"
	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"
)

// DefaultSessionTTL is how long an idle session snapshot is kept.
const DefaultSessionTTL = time.Hour

// RedisStorage caches session snapshots in Redis under session:<uuid>.
type RedisStorage struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration

	connectRetries uint64
	connectDelay   time.Duration
}

var _ storage.Storage = (*RedisStorage)(nil)

// NewRedisStorage creates a new Redis storage instance. addr is host:port.
func NewRedisStorage(addr string, ttl time.Duration, logger *slog.Logger) *RedisStorage {
	return NewRedisStorageWithClient(redis.NewClient(&redis.Options{Addr: addr}), ttl, logger)
}

// NewRedisStorageWithClient wraps an existing client.
func NewRedisStorageWithClient(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisStorage {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &RedisStorage{
		client:         client,
		logger:         logger,
		ttl:            ttl,
		connectRetries: 30,
		connectDelay:   2 * time.Second,
	}
}

// Client exposes the underlying client for pub/sub.
func (r *RedisStorage) Client() *redis.Client {
	return r.client
}

func sessionKey(id uuid.UUID) string {
	return "session:" + id.String()
}

// Health and lifecycle methods

func (r *RedisStorage) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

func (r *RedisStorage) Close() error {
	if err := r.client.Close(); err != nil {
		r.logger.Error("Failed to close Redis connection", "error", err)
		return err
	}
	r.logger.Info("Redis connection closed")
	return nil
}

// WaitForConnection waits for Redis to become available (used during startup)
func (r *RedisStorage) WaitForConnection(ctx context.Context) error {
	attempt := 0
	backoff := retry.WithMaxRetries(r.connectRetries-1, retry.NewConstant(r.connectDelay))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		if err := r.Ping(ctx); err != nil {
			r.logger.Debug("Redis not ready yet", "error", err, "attempt", attempt)
			return retry.RetryableError(err)
		}
		return nil
	})
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("context cancelled while waiting for redis: %w", ctxErr)
		}
		return fmt.Errorf("redis did not become available after %d attempts: %w", attempt, err)
	}
	r.logger.Info("Redis connection established")
	return nil
}

// Snapshot operations

func (r *RedisStorage) SaveSnapshot(ctx context.Context, id uuid.UUID, snap *state.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	data, err := json.Marshal(snap)
	if err != nil {
		r.logger.Error("Failed to marshal snapshot", "session_id", id, "error", err)
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	if err := r.client.Set(ctx, sessionKey(id), data, r.ttl).Err(); err != nil {
		r.logger.Error("Failed to save snapshot", "session_id", id, "error", err)
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

func (r *RedisStorage) LoadSnapshot(ctx context.Context, id uuid.UUID) (*state.Snapshot, error) {
	data, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			r.logger.Debug("Snapshot not found", "session_id", id)
			return nil, nil
		}
		r.logger.Error("Failed to load snapshot", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to load snapshot: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var snap state.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		r.logger.Error("Failed to unmarshal snapshot", "session_id", id, "error", err)
		return nil, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return &snap, nil
}

func (r *RedisStorage) DeleteSnapshot(ctx context.Context, id uuid.UUID) error {
	if err := r.client.Del(ctx, sessionKey(id)).Err(); err != nil {
		r.logger.Error("Failed to delete snapshot", "session_id", id, "error", err)
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}
