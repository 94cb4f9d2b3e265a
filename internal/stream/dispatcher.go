package stream

import (
	"context"
	"time"

	"scoreboard/internal/broadcast"
	"scoreboard/internal/session"
	"scoreboard/internal/types"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// frame is the outbound wire shape: a named event type plus its payload.
type frame struct {
	Event types.EventKind `json:"event"`
	Data  types.Event     `json:"data"`
}

type Options struct {
	Heartbeat    time.Duration
	WriteTimeout time.Duration
	// PongWait bounds how long the peer may go without acking a ping
	// before the connection is considered dead.
	PongWait time.Duration
}

// Dispatcher turns the global change feed into one connection's ordered
// stream. It never blocks on the notifier: a full subscription buffer
// drops the subscription and the dispatcher resyncs from a fresh
// snapshot instead of repairing incrementally.
type Dispatcher struct {
	conn      *websocket.Conn
	sess      *session.Session
	registry  *session.Registry
	notifier  broadcast.Notifier
	snapshots *SnapshotSource
	topK      int
	opts      Options
}

func NewDispatcher(conn *websocket.Conn, sess *session.Session, registry *session.Registry,
	notifier broadcast.Notifier, snapshots *SnapshotSource, topK int, opts Options) *Dispatcher {
	return &Dispatcher{
		conn:      conn,
		sess:      sess,
		registry:  registry,
		notifier:  notifier,
		snapshots: snapshots,
		topK:      topK,
		opts:      opts,
	}
}

// Run drives the connection until the client leaves, liveness fails or the
// server shuts down. It always starts with a full snapshot so the client
// never begins from a partial view.
func (d *Dispatcher) Run(ctx context.Context) {
	defer func() {
		d.registry.Unregister(d.sess.ID)
		d.conn.Close()
	}()

	sub := d.notifier.Subscribe()
	defer func() { d.notifier.Unsubscribe(sub) }()

	readDone := make(chan struct{})
	d.conn.SetReadDeadline(time.Now().Add(d.opts.PongWait))
	d.conn.SetPongHandler(func(string) error {
		d.registry.Touch(d.sess.ID)
		return d.conn.SetReadDeadline(time.Now().Add(d.opts.PongWait))
	})
	threading.GoSafe(func() {
		defer close(readDone)
		for {
			if _, _, err := d.conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	if err := d.send(d.snapshots.Current()); err != nil {
		return
	}

	ticker := time.NewTicker(d.opts.Heartbeat)
	defer ticker.Stop()

	for {
		select {
		case ev := <-sub.C():
			if !d.relevant(ev) {
				continue
			}
			if err := d.send(ev); err != nil {
				return
			}
		case <-sub.Dropped():
			// Missed events; correctness over bandwidth: resubscribe
			// and replace the client's view wholesale.
			logx.Infof("stream: session %s fell behind, resyncing", d.sess.ID)
			d.notifier.Unsubscribe(sub)
			sub = d.notifier.Subscribe()
			if err := d.send(d.snapshots.Current()); err != nil {
				return
			}
		case <-ticker.C:
			if err := d.send(types.HeartbeatEvent{Timestamp: time.Now().UnixMilli()}); err != nil {
				return
			}
			d.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(d.opts.WriteTimeout))
		case <-readDone:
			return
		case <-d.sess.Done():
			d.goodbye(string(d.sess.Reason()))
			return
		case <-ctx.Done():
			d.goodbye(string(session.KilledShutdown))
			return
		}
	}
}

// relevant suppresses events outside the visible top-K window to bound
// per-client bandwidth.
func (d *Dispatcher) relevant(ev types.Event) bool {
	switch e := ev.(type) {
	case types.UpdateEvent:
		return d.inWindow(e.Rank) || d.inWindow(e.PreviousRank)
	case types.RankChangeEvent:
		return d.inWindow(e.NewRank) || d.inWindow(e.OldRank)
	default:
		return true
	}
}

func (d *Dispatcher) inWindow(r int) bool {
	return r >= 1 && r <= d.topK
}

func (d *Dispatcher) send(ev types.Event) error {
	d.conn.SetWriteDeadline(time.Now().Add(d.opts.WriteTimeout))
	return d.conn.WriteJSON(frame{Event: ev.Kind(), Data: ev})
}

// goodbye delivers the terminal frame and a proper close handshake rather
// than an abrupt socket close.
func (d *Dispatcher) goodbye(reason string) {
	if err := d.send(types.GoodbyeEvent{Reason: reason}); err != nil {
		return
	}
	deadline := time.Now().Add(d.opts.WriteTimeout)
	d.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, reason), deadline)
}
