package svc

import (
	"context"
	"fmt"
	"time"

	"scoreboard/internal/auth"
	"scoreboard/internal/broadcast"
	"scoreboard/internal/config"
	"scoreboard/internal/logic"
	"scoreboard/internal/model"
	"scoreboard/internal/rank"
	"scoreboard/internal/session"
	"scoreboard/internal/stream"

	goredis "github.com/go-redis/redis/v8"
	"github.com/zeromicro/go-zero/core/limit"
	zredis "github.com/zeromicro/go-zero/core/stores/redis"
)

type ServiceContext struct {
	Config      config.Config
	RedisClient *goredis.Client

	Store    model.ScoreStore
	Index    *rank.Index
	Notifier broadcast.Notifier
	Sessions *session.Registry
	Auth     auth.Authenticator

	Snapshots        *stream.SnapshotSource
	UpdateLogic      *logic.UpdateLogic
	LeaderboardLogic *logic.LeaderboardLogic

	// ShutdownCtx is canceled when the process begins shutting down;
	// long-lived workers (dispatchers, reaper) watch it.
	ShutdownCtx context.Context
	cancel      context.CancelFunc
}

func NewServiceContext(c config.Config) (*ServiceContext, error) {
	if len(c.Actions) == 0 {
		return nil, fmt.Errorf("actions table is empty, no score action can ever be accepted")
	}
	for id, points := range c.Actions {
		if points <= 0 {
			return nil, fmt.Errorf("action %q awards %d points, must be positive", id, points)
		}
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	})

	var store model.ScoreStore
	switch c.Store {
	case "memory":
		store = model.NewMemoryScoreStore()
	default:
		store = model.NewRedisScoreStore(rdb)
	}
	index := rank.NewIndex()

	var notifier broadcast.Notifier
	switch c.Broadcast {
	case "redis":
		notifier = broadcast.NewRedisNotifier(rdb, c.BroadcastChannel, c.Stream.SendBuffer)
	default:
		notifier = broadcast.NewHub(c.Stream.SendBuffer)
	}

	limitStore := zredis.MustNewRedis(zredis.RedisConf{
		Host:     c.Redis.Addr,
		Pass:     c.Redis.Password,
		Type:     "node",
		NonBlock: true,
	})
	lim := limit.NewPeriodLimit(c.Limit.PeriodSeconds, c.Limit.Quota, limitStore, "scoreboard:limit:")

	var sources auth.ChainTokens
	if len(c.Tokens) > 0 {
		sources = append(sources, auth.StaticTokens(c.Tokens))
	}
	sources = append(sources, auth.NewRedisTokens(rdb))
	authn, err := auth.NewTokenAuthenticator(sources, 4096)
	if err != nil {
		return nil, fmt.Errorf("init authenticator failed: %w", err)
	}

	lockWait := time.Duration(c.LockWaitMillis) * time.Millisecond
	ctx, cancel := context.WithCancel(context.Background())
	sessions := session.NewRegistry()

	return &ServiceContext{
		Config:           c,
		RedisClient:      rdb,
		Store:            store,
		Index:            index,
		Notifier:         notifier,
		Sessions:         sessions,
		Auth:             authn,
		Snapshots:        stream.NewSnapshotSource(index, c.TopK),
		UpdateLogic:      logic.NewUpdateLogic(store, index, notifier, c.Actions, lim, lockWait, c.TopK),
		LeaderboardLogic: logic.NewLeaderboardLogic(index, store, c.TopK),
		ShutdownCtx:      ctx,
		cancel:           cancel,
	}, nil
}

// Shutdown terminates live sessions so each dispatcher can say goodbye,
// then stops background workers and the notifier.
func (s *ServiceContext) Shutdown() {
	s.Sessions.KillAll()
	s.cancel()
	s.Notifier.Close()
}
