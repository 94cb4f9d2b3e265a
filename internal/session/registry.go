package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/zeromicro/go-zero/core/logx"
)

// KillReason explains why a session was terminated server-side.
type KillReason string

const (
	KilledReplaced KillReason = "replaced"
	KilledIdle     KillReason = "idle"
	KilledShutdown KillReason = "shutdown"
)

// Session is one live streaming connection. The dispatcher that owns the
// connection watches Done and sends a goodbye frame with Reason before
// closing.
type Session struct {
	ID          string
	UserID      string
	ConnectedAt time.Time

	mu       sync.Mutex
	lastBeat time.Time
	reason   KillReason
	done     chan struct{}
	doneOnce sync.Once
}

// Done is closed when the registry terminates the session.
func (s *Session) Done() <-chan struct{} { return s.done }

// Reason reports why the session was killed; valid once Done is closed.
func (s *Session) Reason() KillReason {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

func (s *Session) kill(reason KillReason) {
	s.doneOnce.Do(func() {
		s.mu.Lock()
		s.reason = reason
		s.mu.Unlock()
		close(s.done)
	})
}

func (s *Session) touch(at time.Time) {
	s.mu.Lock()
	s.lastBeat = at
	s.mu.Unlock()
}

func (s *Session) lastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastBeat
}

// Registry tracks live streaming sessions. One authenticated user holds at
// most one session: a second connect wins the race and the first session
// is killed.
type Registry struct {
	mu     sync.Mutex
	byID   map[string]*Session
	byUser map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		byID:   make(map[string]*Session),
		byUser: make(map[string]*Session),
	}
}

// Register creates a session. userID may be empty for anonymous viewers,
// which are exempt from the single-connection policy.
func (r *Registry) Register(userID string) *Session {
	now := time.Now()
	s := &Session{
		ID:          uuid.NewString(),
		UserID:      userID,
		ConnectedAt: now,
		lastBeat:    now,
		done:        make(chan struct{}),
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if userID != "" {
		if prev, ok := r.byUser[userID]; ok {
			delete(r.byID, prev.ID)
			prev.kill(KilledReplaced)
			logx.Infof("session: user %s reconnected, replacing session %s", userID, prev.ID)
		}
		r.byUser[userID] = s
	}
	r.byID[s.ID] = s
	return s
}

// Touch records a heartbeat ack for liveness tracking.
func (r *Registry) Touch(sessionID string) {
	r.mu.Lock()
	s, ok := r.byID[sessionID]
	r.mu.Unlock()
	if ok {
		s.touch(time.Now())
	}
}

// Unregister removes a session on clean disconnect.
func (r *Registry) Unregister(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[sessionID]
	if !ok {
		return
	}
	delete(r.byID, sessionID)
	if s.UserID != "" && r.byUser[s.UserID] == s {
		delete(r.byUser, s.UserID)
	}
}

// Reap kills sessions whose last heartbeat is older than idle and returns
// how many were removed.
func (r *Registry) Reap(idle time.Duration) int {
	cutoff := time.Now().Add(-idle)
	r.mu.Lock()
	defer r.mu.Unlock()
	reaped := 0
	for id, s := range r.byID {
		if s.lastHeartbeat().Before(cutoff) {
			delete(r.byID, id)
			if s.UserID != "" && r.byUser[s.UserID] == s {
				delete(r.byUser, s.UserID)
			}
			s.kill(KilledIdle)
			reaped++
		}
	}
	return reaped
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// KillAll terminates every session, used on server shutdown so each
// dispatcher can send its terminal frame.
func (r *Registry) KillAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, s := range r.byID {
		delete(r.byID, id)
		s.kill(KilledShutdown)
	}
	r.byUser = make(map[string]*Session)
}

// RunReaper periodically reaps idle sessions until ctx is done.
func (r *Registry) RunReaper(ctx context.Context, interval, idle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Reap(idle); n > 0 {
				logx.Infof("session: reaped %d idle sessions", n)
			}
		}
	}
}
