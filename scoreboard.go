package main

import (
	"flag"
	"fmt"
	"time"

	"scoreboard/internal/config"
	"scoreboard/internal/handler"
	"scoreboard/internal/svc"

	"github.com/zeromicro/go-zero/core/conf"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/proc"
	"github.com/zeromicro/go-zero/core/threading"
	"github.com/zeromicro/go-zero/rest"
)

var configFile = flag.String("f", "etc/scoreboard-api.yaml", "the config file")

func main() {
	flag.Parse()

	var c config.Config
	conf.MustLoad(*configFile, &c)

	svcCtx, err := svc.NewServiceContext(c)
	logx.Must(err)

	// The rank index is a derived cache over the score store; rebuild it
	// before serving so ranking queries see every committed score.
	entries, err := svcCtx.Store.LoadAll(svcCtx.ShutdownCtx)
	logx.Must(err)
	svcCtx.Index.Rebuild(entries)
	logx.Infof("rank index rebuilt with %d entries", len(entries))

	server := rest.MustNewServer(c.RestConf)
	defer server.Stop()
	handler.RegisterHandlers(server, svcCtx)

	threading.GoSafe(func() {
		svcCtx.Sessions.RunReaper(svcCtx.ShutdownCtx,
			time.Duration(c.Session.ReapIntervalSeconds)*time.Second,
			time.Duration(c.Session.IdleSeconds)*time.Second)
	})
	proc.AddShutdownListener(svcCtx.Shutdown)

	fmt.Printf("Starting scoreboard at %s:%d...\n", c.Host, c.Port)
	server.Start()
}
