// Code scaffolded by goctl. Safe to edit.
// goctl 1.9.2

package main

import (
	"flag"
	"fmt"

	"github.com/zeromicro/go-zero/rest"
	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/cli"
	"perpdash-api/internal/config"
	"perpdash-api/internal/errorx"
	"perpdash-api/internal/handler"
	"perpdash-api/internal/svc"
)

var configFile = flag.String("f", "etc/perpdash.yaml", "the config file")

func main() {
	flag.Parse()

	cfg := config.MustLoad(*configFile)
	cli.LogConfigSummary(cfg)

	server := rest.MustNewServer(cfg.RestConf)
	defer server.Stop()

	httpx.SetErrorHandlerCtx(errorx.Handler)

	ctx := svc.NewServiceContext(*cfg, *configFile)
	handler.RegisterHandlers(server, ctx)

	fmt.Printf("Starting server at %s:%d...\n", cfg.Host, cfg.Port)
	server.Start()
}
