package broadcast

import (
	"context"
	"sync"

	"scoreboard/internal/types"

	"github.com/zeromicro/go-zero/core/logx"
)

// Hub is the in-process Notifier for a single instance. Delivery order to
// every subscriber matches Publish order; the update coordinator holds the
// per-user lock across Publish, which makes per-user order total.
type Hub struct {
	mu     sync.Mutex
	subs   map[*Subscription]struct{}
	buffer int
}

func NewHub(buffer int) *Hub {
	return &Hub{
		subs:   make(map[*Subscription]struct{}),
		buffer: buffer,
	}
}

func (h *Hub) Publish(_ context.Context, ev types.Event) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.ch <- ev:
		default:
			// Full buffer means a slow consumer. Cut it loose rather
			// than block every other subscriber behind it.
			delete(h.subs, sub)
			sub.Drop()
			logx.Infof("broadcast: dropped slow subscriber, buffer=%d", h.buffer)
		}
	}
	return nil
}

func (h *Hub) Subscribe() *Subscription {
	s := newSubscription(h.buffer)
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[s] = struct{}{}
	return s
}

func (h *Hub) Unsubscribe(s *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.subs, s)
}

func (h *Hub) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs = make(map[*Subscription]struct{})
	return nil
}
