package broadcast

import (
	"context"
	"sync"

	"scoreboard/internal/types"
)

// Notifier decouples score commits from stream delivery. Publish never
// blocks on consumers; a consumer that cannot keep up is dropped and told
// so through its subscription, never allowed to slow the publisher.
type Notifier interface {
	Publish(ctx context.Context, ev types.Event) error
	Subscribe() *Subscription
	Unsubscribe(s *Subscription)
	Close() error
}

// Subscription is one consumer's live feed. Events arrive on C in publish
// order; Dropped is closed when the subscriber fell too far behind and
// must resync from a fresh snapshot.
type Subscription struct {
	ch       chan types.Event
	dropped  chan struct{}
	dropOnce sync.Once
}

func newSubscription(buffer int) *Subscription {
	return &Subscription{
		ch:      make(chan types.Event, buffer),
		dropped: make(chan struct{}),
	}
}

func (s *Subscription) C() <-chan types.Event { return s.ch }

func (s *Subscription) Dropped() <-chan struct{} { return s.dropped }

// Drop marks the subscription as having missed events. The consumer must
// resync from a fresh snapshot; notifier implementations call this when
// the subscriber's buffer overflows.
func (s *Subscription) Drop() {
	s.dropOnce.Do(func() { close(s.dropped) })
}
