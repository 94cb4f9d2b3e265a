package broadcast

import (
	"encoding/json"
	"fmt"

	"scoreboard/internal/types"
)

// envelope is the wire form events take on the cross-process channel.
type envelope struct {
	Kind types.EventKind `json:"kind"`
	Data json.RawMessage `json:"data"`
}

func encodeEvent(ev types.Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Kind: ev.Kind(), Data: data})
}

func decodeEvent(b []byte) (types.Event, error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case types.KindUpdate:
		var ev types.UpdateEvent
		return ev, json.Unmarshal(env.Data, &ev)
	case types.KindRankChange:
		var ev types.RankChangeEvent
		return ev, json.Unmarshal(env.Data, &ev)
	case types.KindSnapshot:
		var ev types.SnapshotEvent
		return ev, json.Unmarshal(env.Data, &ev)
	case types.KindHeartbeat:
		var ev types.HeartbeatEvent
		return ev, json.Unmarshal(env.Data, &ev)
	case types.KindGoodbye:
		var ev types.GoodbyeEvent
		return ev, json.Unmarshal(env.Data, &ev)
	default:
		return nil, fmt.Errorf("unknown event kind %q", env.Kind)
	}
}
