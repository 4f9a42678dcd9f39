package handler

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest"

	chart "perpdash-api/internal/handler/chart"
	funding "perpdash-api/internal/handler/funding"
	"perpdash-api/internal/metrics"
	"perpdash-api/internal/svc"
)

func RegisterHandlers(server *rest.Server, serverCtx *svc.ServiceContext) {
	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{serverCtx.Auth},
			[]rest.Route{
				{
					Method:  http.MethodGet,
					Path:    "/funding-rates/latest-batch",
					Handler: funding.LatestBatchHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/funding-rates/markets",
					Handler: funding.MarketsHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/funding-rates/market-minutes",
					Handler: funding.MarketMinutesHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/funding-rates/diff",
					Handler: funding.DiffHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/funding-rates/score-market",
					Handler: funding.ScoreMarketHandler(serverCtx),
				},
			}...,
		),
		rest.WithPrefix("/api"),
	)

	server.AddRoutes(
		rest.WithMiddlewares(
			[]rest.Middleware{serverCtx.Auth},
			[]rest.Route{
				{
					Method:  http.MethodGet,
					Path:    "/chart/series",
					Handler: chart.SeriesHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/chart/render",
					Handler: chart.RenderHandler(serverCtx),
				},
				{
					Method:  http.MethodGet,
					Path:    "/chart/live",
					Handler: chart.LiveHandler(serverCtx),
				},
			}...,
		),
		rest.WithPrefix("/api"),
	)

	if serverCtx.Config.Metrics.Enabled {
		server.AddRoute(rest.Route{
			Method:  http.MethodGet,
			Path:    serverCtx.Config.Metrics.Path,
			Handler: metrics.Handler().ServeHTTP,
		})
	}
}
