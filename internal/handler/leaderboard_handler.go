package handler

import (
	"net/http"

	"scoreboard/internal/svc"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// GetLeaderboardHandler serves the current top-K snapshot for clients not
// holding a live stream.
func GetLeaderboardHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		httpx.OkJsonCtx(r.Context(), w, svcCtx.LeaderboardLogic.TopK())
	}
}

// MyRankHandler serves the caller's own score and rank.
func MyRankHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := svcCtx.Auth.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			httpx.ErrorCtx(ctx, w, err)
			return
		}
		resp, err := svcCtx.LeaderboardLogic.MyRank(ctx, userID)
		if err != nil {
			httpx.ErrorCtx(ctx, w, err)
			return
		}
		httpx.OkJsonCtx(ctx, w, resp)
	}
}
