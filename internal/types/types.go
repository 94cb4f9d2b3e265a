package types

import "time"

// ScoreEntry is one user's durable score record.
type ScoreEntry struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
	// UpdatedAt is the unix-millisecond time of the last accepted mutation.
	// It doubles as the ranking tie-break: for equal scores the earlier
	// achiever ranks higher.
	UpdatedAt int64 `json:"updatedAt"`
}

// LeaderboardEntry is one row of a top-K snapshot, rank 1-indexed.
type LeaderboardEntry struct {
	Rank   int    `json:"rank"`
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
}

// EventKind tags the closed set of stream event variants.
type EventKind string

const (
	KindSnapshot   EventKind = "snapshot"
	KindUpdate     EventKind = "update"
	KindRankChange EventKind = "rank-change"
	KindHeartbeat  EventKind = "heartbeat"
	KindGoodbye    EventKind = "goodbye"
)

// Event is the closed tagged variant carried by the change notifier and the
// outbound stream. Exactly one implementation exists per EventKind.
type Event interface {
	Kind() EventKind
}

// UpdateEvent announces a committed score mutation.
type UpdateEvent struct {
	UserID       string `json:"userId"`
	NewScore     int64  `json:"newScore"`
	PointsEarned int64  `json:"pointsEarned"`
	Rank         int    `json:"rank"`
	// PreviousRank is 0 when the user was unranked before the update.
	PreviousRank int `json:"previousRank"`
}

func (UpdateEvent) Kind() EventKind { return KindUpdate }

// RankChangeEvent announces a user crossing rank positions, including
// entering or leaving the visible top-K window.
type RankChangeEvent struct {
	UserID      string `json:"userId"`
	OldRank     int    `json:"oldRank"`
	NewRank     int    `json:"newRank"`
	EnteredTopK bool   `json:"enteredTopK"`
	ExitedTopK  bool   `json:"exitedTopK"`
}

func (RankChangeEvent) Kind() EventKind { return KindRankChange }

// SnapshotEvent carries a full, internally consistent top-K view.
type SnapshotEvent struct {
	Entries []LeaderboardEntry `json:"entries"`
	AsOf    int64              `json:"asOf"`
}

func (SnapshotEvent) Kind() EventKind { return KindSnapshot }

type HeartbeatEvent struct {
	Timestamp int64 `json:"timestamp"`
}

func (HeartbeatEvent) Kind() EventKind { return KindHeartbeat }

// GoodbyeEvent is the terminal frame sent before the server closes a stream
// on purpose (shutdown or session replacement).
type GoodbyeEvent struct {
	Reason string `json:"reason"`
}

func (GoodbyeEvent) Kind() EventKind { return KindGoodbye }

// ActionReq is the body of POST /score/action. The acting user comes from
// the authenticated identity, never from the body.
type ActionReq struct {
	ActionID string `json:"actionId"`
}

type ActionResp struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
	Rank   int    `json:"rank"`
}

type LeaderboardResp struct {
	Entries []LeaderboardEntry `json:"entries"`
	AsOf    time.Time          `json:"asOf"`
}

type MyRankResp struct {
	UserID string `json:"userId"`
	Score  int64  `json:"score"`
	// Rank is 0 when the user has no score yet.
	Rank int `json:"rank"`
}
