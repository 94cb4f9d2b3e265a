package logic

import (
	"context"
	"sync"
	"time"
)

// userLocks serializes score updates per user while letting different
// users proceed in parallel. Acquisition waits at most a bounded duration
// so a retry storm against one user cannot queue unboundedly.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	ch   chan struct{} // capacity 1, holding the slot means owning the lock
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// acquire returns a release func, or ctx/timeout error when the slot could
// not be won within wait.
func (ul *userLocks) acquire(ctx context.Context, userID string, wait time.Duration) (func(), error) {
	ul.mu.Lock()
	l, ok := ul.locks[userID]
	if !ok {
		l = &userLock{ch: make(chan struct{}, 1)}
		ul.locks[userID] = l
	}
	l.refs++
	ul.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			ul.put(userID, l)
		}, nil
	case <-timer.C:
		ul.put(userID, l)
		return nil, context.DeadlineExceeded
	case <-ctx.Done():
		ul.put(userID, l)
		return nil, ctx.Err()
	}
}

func (ul *userLocks) put(userID string, l *userLock) {
	ul.mu.Lock()
	defer ul.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(ul.locks, userID)
	}
}
