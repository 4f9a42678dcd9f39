package funding

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

type LatestBatchLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewLatestBatchLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LatestBatchLogic {
	return &LatestBatchLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *LatestBatchLogic) LatestBatch() (resp *types.LatestBatchResponse, err error) {
	batch, err := l.svcCtx.Repo.Funding.LatestBatch(l.ctx)
	if err != nil {
		return nil, err
	}
	return &types.LatestBatchResponse{Data: batch}, nil
}
