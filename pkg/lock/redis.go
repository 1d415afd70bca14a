package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrAcquireTimeout is returned when a key stays locked past the wait limit.
var ErrAcquireTimeout = errors.New("timeout acquiring lock")

// DistributedLock implements a per-key exclusive lock backed by Redis.
type DistributedLock struct {
	client         *redis.Client
	prefix         string
	lockTTL        time.Duration
	acquireTimeout time.Duration
}

// NewDistributed creates a DistributedLock.
//   - prefix: prepended to every key (e.g. "mediahub:lock:")
//   - ttl: how long a lock is held before auto-expiry (prevents deadlock)
//   - acquireTimeout: max time to wait when trying to acquire a lock
func NewDistributed(client *redis.Client, prefix string, ttl, acquireTimeout time.Duration) *DistributedLock {
	return &DistributedLock{
		client:         client,
		prefix:         prefix,
		lockTTL:        ttl,
		acquireTimeout: acquireTimeout,
	}
}

// Lock acquires key and returns a function releasing it.
func (l *DistributedLock) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	lockID, err := l.acquire(ctx, redisKey)
	if err != nil {
		return nil, err
	}
	return func() {
		// The caller's context may already be cancelled.
		releaseCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := l.release(releaseCtx, redisKey, lockID); err != nil {
			hlog.CtxWarnf(ctx, "release lock %s: %v", redisKey, err)
		}
	}, nil
}

// acquire blocks with exponential backoff until success or timeout and
// returns the unique lockID used for release.
func (l *DistributedLock) acquire(ctx context.Context, key string) (string, error) {
	lockID := uuid.New().String()
	deadline := time.Now().Add(l.acquireTimeout)
	backoff := 50 * time.Millisecond

	for {
		ok, err := l.client.SetNX(ctx, key, lockID, l.lockTTL).Result()
		if err != nil {
			return "", fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return lockID, nil
		}

		if time.Now().After(deadline) {
			return "", fmt.Errorf("%w %s after %s", ErrAcquireTimeout, key, l.acquireTimeout)
		}

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(backoff):
		}

		// exponential backoff, max 500ms
		backoff *= 2
		if backoff > 500*time.Millisecond {
			backoff = 500 * time.Millisecond
		}
	}
}

// releaseScript atomically checks that the lock value matches before deleting,
// preventing a client from releasing a lock it no longer owns.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
    return redis.call("del", KEYS[1])
else
    return 0
end
`)

func (l *DistributedLock) release(ctx context.Context, key, lockID string) error {
	_, err := releaseScript.Run(ctx, l.client, []string{key}, lockID).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}
