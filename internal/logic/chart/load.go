package chart

import (
	"context"
	"net/http"
	"strings"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/svc"
	chartpkg "perpdash-api/pkg/chart"
)

// loadSeries fetches one colored series per venue for a market chart.
func loadSeries(ctx context.Context, svcCtx *svc.ServiceContext, market, kind string, minutes int) (chartpkg.ChartType, []chartpkg.Series, error) {
	ct, err := chartpkg.ParseChartType(kind)
	if err != nil {
		return "", nil, errorx.BadRequest(err)
	}
	market = strings.TrimSpace(market)
	if market == "" {
		return "", nil, errorx.New(http.StatusBadRequest, "market is required")
	}
	series, err := svcCtx.Repo.Funding.Series(ctx, market, ct, svcCtx.WindowMinutes(minutes))
	if err != nil {
		return ct, nil, err
	}
	for i := range series {
		if series[i].Color == "" {
			series[i].Color = svcCtx.ChartConfig.ColorFor(series[i].Name)
		}
	}
	return ct, series, nil
}
