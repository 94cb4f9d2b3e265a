package handler

import (
	"net/http"
	"time"

	"scoreboard/internal/stream"
	"scoreboard/internal/svc"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// StreamHandler upgrades the connection and hands it to a dispatcher for
// the lifetime of the stream. Anonymous viewers are allowed; an
// authenticated user may hold only one stream, the newest connect wins.
func StreamHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		cred := r.Header.Get("Authorization")
		if cred == "" {
			// Browser websocket clients cannot set headers.
			cred = r.URL.Query().Get("token")
		}
		var userID string
		if cred != "" {
			var err error
			userID, err = svcCtx.Auth.Authenticate(ctx, cred)
			if err != nil {
				httpx.ErrorCtx(ctx, w, err)
				return
			}
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.WithContext(ctx).Errorf("stream upgrade failed: %v", err)
			return
		}

		sess := svcCtx.Sessions.Register(userID)
		c := svcCtx.Config.Stream
		d := stream.NewDispatcher(conn, sess, svcCtx.Sessions, svcCtx.Notifier,
			svcCtx.Snapshots, svcCtx.Config.TopK, stream.Options{
				Heartbeat:    time.Duration(c.HeartbeatSeconds) * time.Second,
				WriteTimeout: time.Duration(c.WriteTimeoutSeconds) * time.Second,
				PongWait:     time.Duration(c.PongWaitSeconds) * time.Second,
			})
		d.Run(svcCtx.ShutdownCtx)
	}
}
