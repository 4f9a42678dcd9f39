package funding

import (
	"context"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

type DiffLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewDiffLogic(ctx context.Context, svcCtx *svc.ServiceContext) *DiffLogic {
	return &DiffLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

func (l *DiffLogic) Diff() (resp *types.DiffResponse, err error) {
	rows, err := l.svcCtx.Repo.Funding.Diff(l.ctx)
	if err != nil {
		return nil, err
	}
	return &types.DiffResponse{Data: rows}, nil
}
