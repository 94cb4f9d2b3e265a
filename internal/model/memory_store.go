package model

import (
	"context"
	"sync"
	"time"

	"scoreboard/internal/types"
)

// MemoryScoreStore is an in-process ScoreStore. It backs tests (including
// injected-failure scenarios) and single-node development without redis.
type MemoryScoreStore struct {
	mu      sync.Mutex
	scores  map[string]int64
	updated map[string]int64
	failErr error
}

func NewMemoryScoreStore() *MemoryScoreStore {
	return &MemoryScoreStore{
		scores:  make(map[string]int64),
		updated: make(map[string]int64),
	}
}

// FailWith makes every subsequent ApplyDelta return err; nil restores
// normal operation.
func (s *MemoryScoreStore) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

func (s *MemoryScoreStore) ApplyDelta(_ context.Context, userID string, points int64) (int64, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return 0, 0, s.failErr
	}
	now := time.Now().UnixMilli()
	s.scores[userID] += points
	s.updated[userID] = now
	return s.scores[userID], now, nil
}

func (s *MemoryScoreStore) GetScore(_ context.Context, userID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[userID], nil
}

func (s *MemoryScoreStore) LoadAll(_ context.Context) ([]types.ScoreEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := make([]types.ScoreEntry, 0, len(s.scores))
	for userID, score := range s.scores {
		entries = append(entries, types.ScoreEntry{
			UserID:    userID,
			Score:     score,
			UpdatedAt: s.updated[userID],
		})
	}
	return entries, nil
}
