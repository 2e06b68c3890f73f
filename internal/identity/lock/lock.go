// Package lock serializes submissions that touch the same contact keys. The
// resolution sequence (match, decide, mutate) is not atomic against the store,
// so two concurrent submissions for the same email or phone must not interleave
// between the match and the terminal write.
package lock

import (
	"context"
	"sort"
	"sync"
)

// SubmissionLock guards a resolution against concurrent submissions sharing a
// key. Acquire blocks until every key is held or ctx is done; the returned
// release is idempotent.
type SubmissionLock interface {
	Acquire(ctx context.Context, keys []string) (release func(), err error)
}

// KeyedMutex is the in-process SubmissionLock, sufficient for a single
// instance. Multi-instance deployments use the Redis lock instead.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]chan struct{})}
}

// Acquire takes every key in sorted order so overlapping submissions cannot
// deadlock each other.
func (m *KeyedMutex) Acquire(ctx context.Context, keys []string) (func(), error) {
	sorted := append([]string(nil), keys...)
	sort.Strings(sorted)

	held := make([]string, 0, len(sorted))
	releaseHeld := func() {
		for i := len(held) - 1; i >= 0; i-- {
			m.release(held[i])
		}
	}

	for _, key := range sorted {
		if err := m.acquireOne(ctx, key); err != nil {
			releaseHeld()
			return nil, err
		}
		held = append(held, key)
	}

	var once sync.Once
	return func() { once.Do(releaseHeld) }, nil
}

func (m *KeyedMutex) acquireOne(ctx context.Context, key string) error {
	for {
		m.mu.Lock()
		ch, taken := m.locks[key]
		if !taken {
			m.locks[key] = make(chan struct{})
			m.mu.Unlock()
			return nil
		}
		m.mu.Unlock()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ch:
			// holder released; retry
		}
	}
}

func (m *KeyedMutex) release(key string) {
	m.mu.Lock()
	ch := m.locks[key]
	delete(m.locks, key)
	m.mu.Unlock()
	if ch != nil {
		close(ch)
	}
}
