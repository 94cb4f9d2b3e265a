package stream

import (
	"time"

	"scoreboard/internal/rank"
	"scoreboard/internal/types"

	"golang.org/x/sync/singleflight"
)

// SnapshotSource builds top-K snapshot events. Concurrent requests are
// collapsed through singleflight so a resync storm after a broadcast
// hiccup costs one index walk, not one per connection.
type SnapshotSource struct {
	index *rank.Index
	topK  int
	group singleflight.Group
}

func NewSnapshotSource(index *rank.Index, topK int) *SnapshotSource {
	return &SnapshotSource{index: index, topK: topK}
}

type versionedSnapshot struct {
	ev      types.SnapshotEvent
	version uint64
}

// Current returns a snapshot at least as fresh as the index was when the
// call began. A shared in-flight result may have been built before this
// caller arrived; such a result is discarded and recomputed, so a
// resyncing dispatcher can never be handed a view predating its
// resubscription.
func (s *SnapshotSource) Current() types.SnapshotEvent {
	need := s.index.Version()
	for {
		v, _, _ := s.group.Do("topk", func() (interface{}, error) {
			entries, version := s.index.TopKWithVersion(s.topK)
			return versionedSnapshot{
				ev: types.SnapshotEvent{
					Entries: entries,
					AsOf:    time.Now().UnixMilli(),
				},
				version: version,
			}, nil
		})
		snap := v.(versionedSnapshot)
		if snap.version >= need {
			return snap.ev
		}
		s.group.Forget("topk")
	}
}
