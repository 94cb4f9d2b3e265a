package broadcast

import (
	"context"
	"testing"

	"scoreboard/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubDeliversInPublishOrder(t *testing.T) {
	h := NewHub(16)
	sub := h.Subscribe()
	defer h.Unsubscribe(sub)

	for i := 1; i <= 5; i++ {
		require.NoError(t, h.Publish(context.Background(), types.UpdateEvent{
			UserID:   "alice",
			NewScore: int64(i * 10),
		}))
	}
	for i := 1; i <= 5; i++ {
		ev := <-sub.C()
		up, ok := ev.(types.UpdateEvent)
		require.True(t, ok)
		assert.Equal(t, int64(i*10), up.NewScore)
	}
}

func TestHubFanout(t *testing.T) {
	h := NewHub(16)
	a := h.Subscribe()
	b := h.Subscribe()
	defer h.Unsubscribe(a)
	defer h.Unsubscribe(b)

	h.Publish(context.Background(), types.HeartbeatEvent{Timestamp: 1})
	assert.Equal(t, types.HeartbeatEvent{Timestamp: 1}, <-a.C())
	assert.Equal(t, types.HeartbeatEvent{Timestamp: 1}, <-b.C())
}

func TestHubDropsSlowSubscriber(t *testing.T) {
	h := NewHub(2)
	slow := h.Subscribe()
	fast := h.Subscribe()
	defer h.Unsubscribe(fast)

	// Nobody reads slow: the third publish overflows its buffer.
	for i := 0; i < 3; i++ {
		h.Publish(context.Background(), types.HeartbeatEvent{Timestamp: int64(i)})
	}

	select {
	case <-slow.Dropped():
	default:
		t.Fatal("slow subscriber was not dropped")
	}

	// The publisher never blocked and the healthy subscriber got all three.
	for i := 0; i < 3; i++ {
		ev := <-fast.C()
		assert.Equal(t, types.HeartbeatEvent{Timestamp: int64(i)}, ev)
	}

	// A dropped subscriber receives nothing further.
	h.Publish(context.Background(), types.HeartbeatEvent{Timestamp: 99})
	assert.Len(t, slow.C(), 2)
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	h := NewHub(4)
	sub := h.Subscribe()
	h.Unsubscribe(sub)
	h.Publish(context.Background(), types.HeartbeatEvent{Timestamp: 1})
	assert.Len(t, sub.C(), 0)
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := types.UpdateEvent{
		UserID:       "alice",
		NewScore:     20,
		PointsEarned: 10,
		Rank:         3,
		PreviousRank: 5,
	}
	b, err := encodeEvent(in)
	require.NoError(t, err)
	out, err := decodeEvent(b)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	_, err = decodeEvent([]byte(`{"kind":"bogus","data":{}}`))
	assert.Error(t, err)
}
