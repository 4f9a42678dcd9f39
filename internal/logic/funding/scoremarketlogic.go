package funding

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

type ScoreMarketLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewScoreMarketLogic(ctx context.Context, svcCtx *svc.ServiceContext) *ScoreMarketLogic {
	return &ScoreMarketLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *ScoreMarketLogic) ScoreMarket(req *types.ScoreMarketRequest) (resp *types.ScoreMarketResponse, err error) {
	score, err := l.svcCtx.Repo.Funding.Score(l.ctx, req.Market, l.svcCtx.WindowMinutes(req.Minutes))
	if err != nil {
		return nil, err
	}
	l.Infof("score market=%s score=%.4f points=%d", score.Market, score.Score, score.DataPoints)
	return &types.ScoreMarketResponse{Data: score}, nil
}
