package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dukaandost/backend/internal/domain/shared"
	"github.com/dukaandost/backend/internal/infrastructure/config"
)

const pingTimeout = 5 * time.Second

// NewMessageStore builds the de-duplication store the webhook uses.
// With Redis disabled the in-memory store is returned. When Redis is
// enabled but unreachable the in-memory store is used unless cfg.Required.
func NewMessageStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		logger.Info("using in-memory message de-duplication")
		return NewInMemoryMessageStore(), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})
	store := NewRedisMessageStore(client, cfg.KeyPrefix)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	err := store.Ping(pingCtx)
	if err == nil {
		logger.Info("using Redis message de-duplication", zap.String("addr", cfg.Addr))
		return store, nil
	}
	_ = store.Close()

	if cfg.Required {
		return nil, fmt.Errorf("redis required for message de-duplication but unavailable: %w", err)
	}
	logger.Warn("Redis unavailable, falling back to in-memory message de-duplication",
		zap.String("addr", cfg.Addr),
		zap.Error(err),
	)
	return NewInMemoryMessageStore(), nil
}
