package logic

import (
	"context"
	"time"

	"scoreboard/internal/broadcast"
	"scoreboard/internal/errorx"
	"scoreboard/internal/model"
	"scoreboard/internal/rank"
	"scoreboard/internal/types"

	"github.com/zeromicro/go-zero/core/limit"
	"github.com/zeromicro/go-zero/core/logx"
)

// limiter is the slice of limit.PeriodLimit the coordinator uses; an
// interface so tests can stub quota decisions.
type limiter interface {
	TakeCtx(ctx context.Context, key string) (int, error)
}

// UpdateLogic is the sole path through which a score changes. It owns the
// validate → serialize → persist → index → notify pipeline and its
// failure semantics: nothing before the durable commit mutates state, and
// nothing after it can fail the request.
type UpdateLogic struct {
	store    model.ScoreStore
	index    *rank.Index
	notifier broadcast.Notifier
	actions  map[string]int64
	limiter  limiter
	locks    *userLocks
	lockWait time.Duration
	topK     int
}

func NewUpdateLogic(store model.ScoreStore, index *rank.Index, notifier broadcast.Notifier,
	actions map[string]int64, lim limiter, lockWait time.Duration, topK int) *UpdateLogic {
	return &UpdateLogic{
		store:    store,
		index:    index,
		notifier: notifier,
		actions:  actions,
		limiter:  lim,
		locks:    newUserLocks(),
		lockWait: lockWait,
		topK:     topK,
	}
}

// PerformAction awards the configured points for actionID to userID.
// userID must come from the authenticated identity; the awarded points are
// looked up server-side and any client-supplied value is ignored upstream.
func (l *UpdateLogic) PerformAction(ctx context.Context, userID, actionID string) (*types.ActionResp, error) {
	points, ok := l.actions[actionID]
	if !ok {
		return nil, errorx.ErrInvalidAction
	}

	if l.limiter != nil {
		code, err := l.limiter.TakeCtx(ctx, userID)
		if err != nil {
			// Limiter trouble must not take down the scoring path.
			logx.WithContext(ctx).Errorf("rate limiter unavailable: %v", err)
		} else if code == limit.OverQuota {
			return nil, errorx.ErrRateLimited
		}
	}

	release, err := l.locks.acquire(ctx, userID, l.lockWait)
	if err != nil {
		return nil, errorx.ErrBusy
	}
	defer release()

	prevRank, _ := l.index.RankOf(userID)

	newScore, updatedAt, err := l.store.ApplyDelta(ctx, userID, points)
	if err != nil {
		// Abort whole operation: the index was not touched, so it still
		// agrees with the store.
		logx.WithContext(ctx).Errorf("score commit failed for user %s: %v", userID, err)
		return nil, errorx.ErrStoreUnavailable
	}

	// Index mutation strictly after the durable commit.
	l.index.Upsert(userID, newScore, updatedAt)
	newRank, _ := l.index.RankOf(userID)

	l.notify(ctx, types.UpdateEvent{
		UserID:       userID,
		NewScore:     newScore,
		PointsEarned: points,
		Rank:         newRank,
		PreviousRank: prevRank,
	})
	if prevRank != newRank {
		l.notify(ctx, types.RankChangeEvent{
			UserID:      userID,
			OldRank:     prevRank,
			NewRank:     newRank,
			EnteredTopK: l.inWindow(newRank) && !l.inWindow(prevRank),
			ExitedTopK:  l.inWindow(prevRank) && !l.inWindow(newRank),
		})
	}

	return &types.ActionResp{UserID: userID, Score: newScore, Rank: newRank}, nil
}

// notify publishes while the per-user lock is held, which is what gives
// subscribers a total order over one user's events. Failures are logged,
// never surfaced: the score already committed.
func (l *UpdateLogic) notify(ctx context.Context, ev types.Event) {
	if err := l.notifier.Publish(ctx, ev); err != nil {
		logx.WithContext(ctx).Errorf("broadcast degraded, event dropped: %v", err)
	}
}

func (l *UpdateLogic) inWindow(r int) bool {
	return r >= 1 && r <= l.topK
}
