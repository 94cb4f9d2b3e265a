package handler

import (
	"context"
	"errors"
	"net/http"

	"scoreboard/internal/errorx"
	"scoreboard/internal/svc"

	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"
)

func RegisterHandlers(server *rest.Server, svcCtx *svc.ServiceContext) {
	httpx.SetErrorHandlerCtx(errorHandler)

	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodPost,
			Path:    "/score/action",
			Handler: ScoreActionHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/leaderboard",
			Handler: GetLeaderboardHandler(svcCtx),
		},
		{
			Method:  http.MethodGet,
			Path:    "/leaderboard/me",
			Handler: MyRankHandler(svcCtx),
		},
	})

	// The stream route outlives the framework's request timeout.
	server.AddRoutes([]rest.Route{
		{
			Method:  http.MethodGet,
			Path:    "/leaderboard/stream",
			Handler: StreamHandler(svcCtx),
		},
	}, rest.WithTimeout(0))
}

func errorHandler(_ context.Context, err error) (int, any) {
	var coded *errorx.CodedError
	if errors.As(err, &coded) {
		return coded.Status, coded
	}
	return http.StatusInternalServerError, &errorx.CodedError{
		Code:    "internal",
		Message: err.Error(),
	}
}
