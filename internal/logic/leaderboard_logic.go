package logic

import (
	"context"
	"time"

	"scoreboard/internal/model"
	"scoreboard/internal/rank"
	"scoreboard/internal/types"
)

// LeaderboardLogic serves synchronous reads for clients without a live
// stream.
type LeaderboardLogic struct {
	index *rank.Index
	store model.ScoreStore
	topK  int
}

func NewLeaderboardLogic(index *rank.Index, store model.ScoreStore, topK int) *LeaderboardLogic {
	return &LeaderboardLogic{index: index, store: store, topK: topK}
}

func (l *LeaderboardLogic) TopK() *types.LeaderboardResp {
	return &types.LeaderboardResp{
		Entries: l.index.TopK(l.topK),
		AsOf:    time.Now(),
	}
}

// MyRank reports the caller's own score and rank; rank 0 means unranked.
func (l *LeaderboardLogic) MyRank(ctx context.Context, userID string) (*types.MyRankResp, error) {
	if r, ok := l.index.RankOf(userID); ok {
		score, _ := l.index.Score(userID)
		return &types.MyRankResp{UserID: userID, Score: score, Rank: r}, nil
	}
	// Not indexed yet: the user has no committed score.
	score, err := l.store.GetScore(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &types.MyRankResp{UserID: userID, Score: score, Rank: 0}, nil
}
