package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireJobLock attempts to acquire the lock for a background job.
// Returns true if the lock was acquired, false if another instance holds it.
func (s *LockStore) AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:job:%s", job)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// ReleaseJobLock releases the lock for a background job.
func (s *LockStore) ReleaseJobLock(ctx context.Context, job string) error {
	key := fmt.Sprintf("lock:job:%s", job)

	return s.client.Del(ctx, key).Err()
}
