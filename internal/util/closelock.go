package util

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// CloseLock serializes concurrent close attempts on the same project. The
// loser of a SetNX race is reported as a conflict instead of double-closing.
type CloseLock struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewCloseLock(rdb *redis.Client, ttl time.Duration) *CloseLock {
	return &CloseLock{rdb: rdb, ttl: ttl}
}

// Acquire returns true if this caller holds the close lock for the project.
// When redis is unavailable the lock degrades to a no-op and the database
// status check is the only guard.
func (l *CloseLock) Acquire(ctx context.Context, projectID int) bool {
	key := fmt.Sprintf("close:project:%d", projectID)

	ok, err := l.rdb.SetNX(ctx, key, 1, l.ttl).Result()
	if err != nil {
		return true
	}
	return ok
}

// Release frees the lock so a failed close attempt can be retried immediately.
func (l *CloseLock) Release(ctx context.Context, projectID int) {
	key := fmt.Sprintf("close:project:%d", projectID)
	_ = l.rdb.Del(ctx, key).Err()
}
