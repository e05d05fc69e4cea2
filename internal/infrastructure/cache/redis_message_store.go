package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dukaandost/backend/internal/domain/shared"
)

// DefaultKeyPrefix namespaces inbound message ids in Redis
const DefaultKeyPrefix = "dukaan:wamid:"

// RedisMessageStore remembers inbound message ids in Redis so every replica
// behind the webhook sees the same delivery history
type RedisMessageStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisMessageStore wraps an existing client
func NewRedisMessageStore(client redis.UniversalClient, keyPrefix string) *RedisMessageStore {
	if keyPrefix == "" {
		keyPrefix = DefaultKeyPrefix
	}
	return &RedisMessageStore{client: client, keyPrefix: keyPrefix}
}

// MarkProcessed uses SET NX with a TTL, so exactly one caller wins per id
func (s *RedisMessageStore) MarkProcessed(ctx context.Context, id string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+id, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to mark message %s: %w", id, err)
	}
	return ok, nil
}

// IsProcessed reports whether id is currently remembered
func (s *RedisMessageStore) IsProcessed(ctx context.Context, id string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("failed to look up message %s: %w", id, err)
	}
	return n > 0, nil
}

// Ping checks the connection
func (s *RedisMessageStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the underlying client
func (s *RedisMessageStore) Close() error {
	return s.client.Close()
}

var _ shared.IdempotencyStore = (*RedisMessageStore)(nil)
