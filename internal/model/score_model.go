package model

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"scoreboard/internal/types"

	"github.com/go-redis/redis/v8"
)

const (
	scoresKey  = "scoreboard:scores"
	updatedKey = "scoreboard:updated"
	auditKey   = "scoreboard:audit"

	// auditCap bounds the mutation log kept in redis.
	auditCap = 10000
)

// ScoreStore is the durability contract the update coordinator relies on.
// ApplyDelta must commit the delta and its audit record atomically.
type ScoreStore interface {
	ApplyDelta(ctx context.Context, userID string, points int64) (newScore int64, updatedAt int64, err error)
	GetScore(ctx context.Context, userID string) (int64, error)
	LoadAll(ctx context.Context) ([]types.ScoreEntry, error)
}

// RedisScoreStore keeps scores in a ZSET, last-update times in a hash and a
// capped audit list, all mutated in one TxPipeline so a partial commit is
// never observable.
type RedisScoreStore struct {
	rdb *redis.Client
}

func NewRedisScoreStore(rdb *redis.Client) *RedisScoreStore {
	return &RedisScoreStore{rdb: rdb}
}

func (s *RedisScoreStore) ApplyDelta(ctx context.Context, userID string, points int64) (int64, int64, error) {
	now := time.Now().UnixMilli()
	pipe := s.rdb.TxPipeline()
	incr := pipe.ZIncrBy(ctx, scoresKey, float64(points), userID)
	pipe.HSet(ctx, updatedKey, userID, now)
	pipe.LPush(ctx, auditKey, fmt.Sprintf("%d|%s|%d", now, userID, points))
	pipe.LTrim(ctx, auditKey, 0, auditCap-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, fmt.Errorf("apply delta failed: %w", err)
	}
	return int64(incr.Val()), now, nil
}

func (s *RedisScoreStore) GetScore(ctx context.Context, userID string) (int64, error) {
	score, err := s.rdb.ZScore(ctx, scoresKey, userID).Result()
	if err == redis.Nil {
		// Users exist implicitly with score 0 until their first action.
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get score failed: %w", err)
	}
	return int64(score), nil
}

// LoadAll reads every committed score plus its update time, used once at
// startup to rebuild the rank index.
func (s *RedisScoreStore) LoadAll(ctx context.Context) ([]types.ScoreEntry, error) {
	members, err := s.rdb.ZRangeWithScores(ctx, scoresKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("load scores failed: %w", err)
	}
	updated, err := s.rdb.HGetAll(ctx, updatedKey).Result()
	if err != nil {
		return nil, fmt.Errorf("load update times failed: %w", err)
	}
	entries := make([]types.ScoreEntry, 0, len(members))
	for _, m := range members {
		userID, _ := m.Member.(string)
		at, _ := strconv.ParseInt(updated[userID], 10, 64)
		entries = append(entries, types.ScoreEntry{
			UserID:    userID,
			Score:     int64(m.Score),
			UpdatedAt: at,
		})
	}
	return entries, nil
}
