package chart

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
	chartpkg "perpdash-api/pkg/chart"
)

type SeriesLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewSeriesLogic(ctx context.Context, svcCtx *svc.ServiceContext) *SeriesLogic {
	return &SeriesLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *SeriesLogic) Series(req *types.ChartSeriesRequest) (resp *types.ChartSeriesResponse, err error) {
	ct, series, err := loadSeries(l.ctx, l.svcCtx, req.Market, req.Type, req.Minutes)
	if err != nil {
		return nil, err
	}
	return &types.ChartSeriesResponse{
		Market:  req.Market,
		Type:    string(ct),
		Series:  series,
		Summary: chartpkg.Summarize(series, ct),
	}, nil
}
