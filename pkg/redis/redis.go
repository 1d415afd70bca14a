package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/redis/go-redis/v9"

	"github.com/yi-nology/mediahub/pkg/config"
	"github.com/yi-nology/mediahub/pkg/lock"
)

// NewClient creates a Redis client based on the provided configuration.
// Returns nil, nil if Redis is not enabled.
func NewClient(cfg config.RedisConfig) (*redis.Client, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	addr := cfg.Address
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	hlog.Infof("redis connected: %s db=%d", addr, cfg.DB)
	return client, nil
}

// NewLocker returns a Redis backed locker when Redis is enabled and an
// in-process one otherwise. The close func releases the client.
func NewLocker(cfg config.RedisConfig) (lock.Locker, func(), error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		hlog.Infof("redis disabled, using in-process scope locks")
		return lock.NewLocal(), func() {}, nil
	}
	locker := lock.NewDistributed(client, cfg.KeyPrefix, cfg.LockTTL, cfg.LockWait)
	return locker, func() { _ = client.Close() }, nil
}
