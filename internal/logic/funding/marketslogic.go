package funding

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

type MarketsLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewMarketsLogic(ctx context.Context, svcCtx *svc.ServiceContext) *MarketsLogic {
	return &MarketsLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *MarketsLogic) Markets() (resp *types.MarketsResponse, err error) {
	markets, err := l.svcCtx.Repo.Funding.Markets(l.ctx)
	if err != nil {
		return nil, err
	}
	if markets == nil {
		markets = []string{}
	}
	return &types.MarketsResponse{Data: markets}, nil
}
