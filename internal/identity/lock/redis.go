package lock

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	lockPrefix       = "coalesce:lock:"
	defaultLockTTL   = 10 * time.Second
	defaultRetryWait = 25 * time.Millisecond
)

// releaseScript deletes a lock only when this holder's token still owns it, so
// an expired lock reclaimed by another instance is never released from here.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLock is the distributed SubmissionLock for multi-instance deployments.
// Locks expire after a TTL so a crashed holder cannot wedge a key forever.
type RedisLock struct {
	client    redis.UniversalClient
	ttl       time.Duration
	retryWait time.Duration
}

// RedisLockOption configures a RedisLock.
type RedisLockOption func(*RedisLock)

// WithTTL overrides the lock expiry.
func WithTTL(ttl time.Duration) RedisLockOption {
	return func(l *RedisLock) {
		if ttl > 0 {
			l.ttl = ttl
		}
	}
}

// WithRetryWait overrides the polling interval while waiting on a held key.
func WithRetryWait(d time.Duration) RedisLockOption {
	return func(l *RedisLock) {
		if d > 0 {
			l.retryWait = d
		}
	}
}

// NewRedisLock constructs a Redis-backed submission lock.
func NewRedisLock(client redis.UniversalClient, opts ...RedisLockOption) *RedisLock {
	l := &RedisLock{
		client:    client,
		ttl:       defaultLockTTL,
		retryWait: defaultRetryWait,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(l)
		}
	}
	return l
}

// Acquire takes every key in sorted order, same as the in-process lock.
func (l *RedisLock) Acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	token := uuid.NewString()

	held := make([]string, 0, len(sorted))
	releaseHeld := func() {
		// Best effort: the TTL reclaims anything a failed DEL leaves behind.
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		for i := len(held) - 1; i >= 0; i-- {
			_ = releaseScript.Run(ctx, l.client, []string{lockPrefix + held[i]}, token).Err()
		}
	}

	for _, key := range sorted {
		if err := l.acquireOne(ctx, key, token); err != nil {
			releaseHeld()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

func (l *RedisLock) acquireOne(ctx context.Context, key, token string) error {
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		ok, err := l.client.SetNX(ctx, lockPrefix+key, token, l.ttl).Result()
		if err != nil {
			return err
		}
		if ok {
			return nil
		}

		timer.Reset(l.retryWait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
}
