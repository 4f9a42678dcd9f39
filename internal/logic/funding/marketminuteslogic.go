package funding

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
	"perpdash-api/pkg/chart"
)

type MarketMinutesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketMinutesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketMinutesLogic {
	return &MarketMinutesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// MarketMinutes returns the annualized history of one venue, oldest first.
// Points whose timestamp or rate cannot be read are dropped.
func (l *MarketMinutesLogic) MarketMinutes(req *types.MarketMinutesRequest) (resp *types.MarketMinutesResponse, err error) {
	minutes := l.svcCtx.WindowMinutes(req.Minutes)
	points, err := l.svcCtx.Repo.Funding.MarketMinutes(l.ctx, req.Market, req.Dex, minutes)
	if err != nil {
		return nil, err
	}
	series := chart.NormalizeSeries(chart.RawSeries{Name: req.Dex, Points: points})
	data := make([]types.MinutePoint, 0, len(series.Samples))
	for _, s := range series.Samples {
		data = append(data, types.MinutePoint{Timestamp: s.Timestamp, AnnualizedRate: s.Value})
	}
	return &types.MarketMinutesResponse{Data: data}, nil
}
