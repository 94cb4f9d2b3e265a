package stream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"scoreboard/internal/broadcast"
	"scoreboard/internal/rank"
	"scoreboard/internal/session"
	"scoreboard/internal/types"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingNotifier exposes the subscriptions a dispatcher takes so tests
// can force the slow-subscriber drop path deterministically.
type recordingNotifier struct {
	*broadcast.Hub
	mu   sync.Mutex
	subs []*broadcast.Subscription
}

func (n *recordingNotifier) Subscribe() *broadcast.Subscription {
	s := n.Hub.Subscribe()
	n.mu.Lock()
	n.subs = append(n.subs, s)
	n.mu.Unlock()
	return s
}

func (n *recordingNotifier) sub(i int) *broadcast.Subscription {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.subs[i]
}

func (n *recordingNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

type testEnv struct {
	srv      *httptest.Server
	registry *session.Registry
	notifier *recordingNotifier
	index    *rank.Index
}

const testTopK = 3

func newTestEnv(t *testing.T, opts Options) *testEnv {
	env := &testEnv{
		registry: session.NewRegistry(),
		notifier: &recordingNotifier{Hub: broadcast.NewHub(16)},
		index:    rank.NewIndex(),
	}
	snapshots := NewSnapshotSource(env.index, testTopK)
	upgrader := websocket.Upgrader{}
	env.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		sess := env.registry.Register(r.URL.Query().Get("user"))
		d := NewDispatcher(conn, sess, env.registry, env.notifier, snapshots, testTopK, opts)
		d.Run(context.Background())
	}))
	t.Cleanup(env.srv.Close)
	return env
}

func defaultOptions() Options {
	return Options{
		Heartbeat:    time.Minute,
		WriteTimeout: time.Second,
		PongWait:     time.Minute,
	}
}

func (env *testEnv) dial(t *testing.T, user string) *websocket.Conn {
	url := "ws" + strings.TrimPrefix(env.srv.URL, "http") + "/?user=" + user
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireFrame struct {
	Event types.EventKind `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func readFrame(t *testing.T, conn *websocket.Conn) wireFrame {
	conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, b, err := conn.ReadMessage()
	require.NoError(t, err)
	var f wireFrame
	require.NoError(t, json.Unmarshal(b, &f))
	return f
}

func TestStreamStartsWithSnapshot(t *testing.T) {
	env := newTestEnv(t, defaultOptions())
	env.index.Upsert("carol", 50, 100)
	env.index.Upsert("bob", 30, 200)
	env.index.Upsert("alice", 20, 300)
	env.index.Upsert("dave", 5, 400)

	conn := env.dial(t, "")
	f := readFrame(t, conn)
	require.Equal(t, types.KindSnapshot, f.Event)

	var snap types.SnapshotEvent
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	require.Len(t, snap.Entries, testTopK)
	assert.Equal(t, "carol", snap.Entries[0].UserID)
	assert.Equal(t, 1, snap.Entries[0].Rank)
	assert.Equal(t, "alice", snap.Entries[2].UserID)
}

func TestStreamRelaysWindowEventsOnly(t *testing.T) {
	env := newTestEnv(t, defaultOptions())
	conn := env.dial(t, "")
	readFrame(t, conn) // initial snapshot

	ctx := context.Background()
	env.notifier.Publish(ctx, types.UpdateEvent{UserID: "alice", NewScore: 20, Rank: 1})
	// Outside the visible window: must be suppressed.
	env.notifier.Publish(ctx, types.UpdateEvent{UserID: "zed", NewScore: 1, Rank: 9, PreviousRank: 8})
	env.notifier.Publish(ctx, types.RankChangeEvent{UserID: "alice", OldRank: 2, NewRank: 1})

	f := readFrame(t, conn)
	require.Equal(t, types.KindUpdate, f.Event)
	var up types.UpdateEvent
	require.NoError(t, json.Unmarshal(f.Data, &up))
	assert.Equal(t, "alice", up.UserID)

	f = readFrame(t, conn)
	assert.Equal(t, types.KindRankChange, f.Event, "suppressed event must not appear in between")
}

func TestStreamResyncAfterDrop(t *testing.T) {
	env := newTestEnv(t, defaultOptions())
	env.index.Upsert("carol", 50, 100)

	conn := env.dial(t, "")
	readFrame(t, conn) // initial snapshot

	env.index.Upsert("erin", 60, 500)
	// Simulate the notifier cutting this subscriber loose.
	env.notifier.sub(0).Drop()

	f := readFrame(t, conn)
	require.Equal(t, types.KindSnapshot, f.Event, "a dropped subscriber resyncs with a full snapshot")

	var snap types.SnapshotEvent
	require.NoError(t, json.Unmarshal(f.Data, &snap))
	require.Len(t, snap.Entries, 2)
	assert.Equal(t, "erin", snap.Entries[0].UserID, "resync snapshot must be current, not stale")

	assert.Eventually(t, func() bool { return env.notifier.count() == 2 },
		time.Second, 10*time.Millisecond, "dispatcher must take a fresh subscription")
}

func TestStreamHeartbeats(t *testing.T) {
	opts := defaultOptions()
	opts.Heartbeat = 30 * time.Millisecond
	env := newTestEnv(t, opts)

	conn := env.dial(t, "")
	readFrame(t, conn) // initial snapshot

	f := readFrame(t, conn)
	require.Equal(t, types.KindHeartbeat, f.Event)
	var hb types.HeartbeatEvent
	require.NoError(t, json.Unmarshal(f.Data, &hb))
	assert.Positive(t, hb.Timestamp)
}

func TestReplacedSessionGetsGoodbye(t *testing.T) {
	env := newTestEnv(t, defaultOptions())
	first := env.dial(t, "alice")
	readFrame(t, first) // initial snapshot

	second := env.dial(t, "alice")
	readFrame(t, second)

	f := readFrame(t, first)
	require.Equal(t, types.KindGoodbye, f.Event)
	var bye types.GoodbyeEvent
	require.NoError(t, json.Unmarshal(f.Data, &bye))
	assert.Equal(t, string(session.KilledReplaced), bye.Reason)

	// After the terminal frame the server closes cleanly.
	first.SetReadDeadline(time.Now().Add(time.Second))
	_, _, err := first.ReadMessage()
	assert.Error(t, err)
}
