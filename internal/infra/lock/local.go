// internal/infra/lock/local.go
package lock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker guards jobs within a single process. It is used when Redis is not configured.
type LocalLocker struct {
	mu    sync.Mutex
	held  map[string]time.Time
	nowFn func() time.Time
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{held: make(map[string]time.Time), nowFn: time.Now}
}

func (l *LocalLocker) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.nowFn()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

func (l *LocalLocker) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}
