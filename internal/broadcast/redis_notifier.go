package broadcast

import (
	"context"
	"fmt"

	"scoreboard/internal/types"

	"github.com/go-redis/redis/v8"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/threading"
)

// RedisNotifier fans events out across server instances over redis
// Pub/Sub. Local subscribers are fed from the redis channel through an
// embedded Hub, so every instance (publisher included) observes the same
// order the channel carried.
type RedisNotifier struct {
	rdb     *redis.Client
	channel string
	hub     *Hub
	pubsub  *redis.PubSub
}

func NewRedisNotifier(rdb *redis.Client, channel string, buffer int) *RedisNotifier {
	n := &RedisNotifier{
		rdb:     rdb,
		channel: channel,
		hub:     NewHub(buffer),
		pubsub:  rdb.Subscribe(context.Background(), channel),
	}
	threading.GoSafe(n.relay)
	return n
}

func (n *RedisNotifier) relay() {
	for msg := range n.pubsub.Channel() {
		ev, err := decodeEvent([]byte(msg.Payload))
		if err != nil {
			logx.Errorf("broadcast: bad event on %s: %v", n.channel, err)
			continue
		}
		n.hub.Publish(context.Background(), ev)
	}
}

// Publish fails loudly when the channel is unreachable; the caller already
// committed the score and only logs the degradation.
func (n *RedisNotifier) Publish(ctx context.Context, ev types.Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return fmt.Errorf("encode event failed: %w", err)
	}
	if err := n.rdb.Publish(ctx, n.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s failed: %w", n.channel, err)
	}
	return nil
}

func (n *RedisNotifier) Subscribe() *Subscription { return n.hub.Subscribe() }

func (n *RedisNotifier) Unsubscribe(s *Subscription) { n.hub.Unsubscribe(s) }

func (n *RedisNotifier) Close() error {
	n.hub.Close()
	return n.pubsub.Close()
}
