package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndUnregister(t *testing.T) {
	r := NewRegistry()
	s := r.Register("alice")
	require.NotEmpty(t, s.ID)
	assert.Equal(t, "alice", s.UserID)
	assert.Equal(t, 1, r.Len())

	r.Unregister(s.ID)
	assert.Equal(t, 0, r.Len())
}

func TestSecondConnectReplacesFirst(t *testing.T) {
	r := NewRegistry()
	first := r.Register("alice")
	second := r.Register("alice")

	select {
	case <-first.Done():
		assert.Equal(t, KilledReplaced, first.Reason())
	default:
		t.Fatal("first session should have been killed")
	}
	select {
	case <-second.Done():
		t.Fatal("second session must stay alive")
	default:
	}
	assert.Equal(t, 1, r.Len())
}

func TestAnonymousSessionsCoexist(t *testing.T) {
	r := NewRegistry()
	a := r.Register("")
	b := r.Register("")
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Len())
	select {
	case <-a.Done():
		t.Fatal("anonymous sessions are exempt from the single-connection policy")
	default:
	}
}

func TestReapRemovesIdleOnly(t *testing.T) {
	r := NewRegistry()
	idle := r.Register("idle-user")
	live := r.Register("live-user")

	// Backdate the idle session's heartbeat.
	idle.touch(time.Now().Add(-time.Hour))
	r.Touch(live.ID)

	n := r.Reap(time.Minute)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, r.Len())

	select {
	case <-idle.Done():
		assert.Equal(t, KilledIdle, idle.Reason())
	default:
		t.Fatal("idle session should have been killed")
	}
	select {
	case <-live.Done():
		t.Fatal("live session must survive the reap")
	default:
	}
}

func TestTouchKeepsSessionAlive(t *testing.T) {
	r := NewRegistry()
	s := r.Register("alice")
	s.touch(time.Now().Add(-time.Hour))
	r.Touch(s.ID)
	assert.Equal(t, 0, r.Reap(time.Minute))
}

func TestKillAll(t *testing.T) {
	r := NewRegistry()
	a := r.Register("alice")
	b := r.Register("")
	r.KillAll()

	assert.Equal(t, 0, r.Len())
	for _, s := range []*Session{a, b} {
		select {
		case <-s.Done():
			assert.Equal(t, KilledShutdown, s.Reason())
		default:
			t.Fatal("session should have been killed on shutdown")
		}
	}
}
