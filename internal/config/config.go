package config

import "github.com/zeromicro/go-zero/rest"

type RedisConf struct {
	Addr     string
	Password string `json:",optional"`
	DB       int    `json:",default=0"`
}

// StreamConf tunes the per-connection dispatcher.
type StreamConf struct {
	HeartbeatSeconds int `json:",default=30"`
	// SendBuffer caps the outstanding events queued for one subscriber;
	// exceeding it drops the subscriber and forces a snapshot resync.
	SendBuffer          int `json:",default=64"`
	WriteTimeoutSeconds int `json:",default=10"`
	// PongWaitSeconds is how long a connection may go without a heartbeat
	// ack before it is considered dead.
	PongWaitSeconds int `json:",default=75"`
}

type SessionConf struct {
	IdleSeconds         int `json:",default=120"`
	ReapIntervalSeconds int `json:",default=30"`
}

// LimitConf is the per-user rate limit window for score actions.
type LimitConf struct {
	PeriodSeconds int `json:",default=1"`
	Quota         int `json:",default=10"`
}

type Config struct {
	rest.RestConf
	Redis RedisConf

	// Actions maps an action id to the points it awards. Points are always
	// looked up here, never taken from the request, and must be positive:
	// committed scores only ever grow.
	Actions map[string]int64

	// Store selects the score store: "redis" for durable operation,
	// "memory" for single-node development without redis.
	Store string `json:",default=redis,options=redis|memory"`

	// TopK is the visible leaderboard window size.
	TopK int `json:",default=10"`

	// Broadcast selects the change notifier: "memory" for a single
	// instance, "redis" to fan out across instances via Pub/Sub.
	Broadcast        string `json:",default=memory,options=memory|redis"`
	BroadcastChannel string `json:",default=scoreboard:events"`

	// Tokens maps static bearer tokens to user ids. Used when no external
	// identity provider is wired in; the redis token hash takes precedence
	// when present.
	Tokens map[string]string `json:",optional"`

	// LockWaitMillis bounds how long an update waits for the per-user
	// serialization slot before being rejected.
	LockWaitMillis int `json:",default=500"`

	Stream  StreamConf  `json:",optional"`
	Session SessionConf `json:",optional"`
	Limit   LimitConf   `json:",optional"`
}
