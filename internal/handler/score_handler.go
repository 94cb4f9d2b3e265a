package handler

import (
	"net/http"

	"scoreboard/internal/errorx"
	"scoreboard/internal/svc"
	"scoreboard/internal/types"

	"github.com/zeromicro/go-zero/rest/httpx"
)

// ScoreActionHandler accepts an action id under an authenticated identity
// and returns the new score and rank. The user id is taken from the
// credential, never from the body.
func ScoreActionHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID, err := svcCtx.Auth.Authenticate(ctx, r.Header.Get("Authorization"))
		if err != nil {
			httpx.ErrorCtx(ctx, w, err)
			return
		}
		var req types.ActionReq
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(ctx, w, errorx.ErrBadRequest)
			return
		}
		resp, err := svcCtx.UpdateLogic.PerformAction(ctx, userID, req.ActionID)
		if err != nil {
			httpx.ErrorCtx(ctx, w, err)
			return
		}
		httpx.OkJsonCtx(ctx, w, resp)
	}
}
