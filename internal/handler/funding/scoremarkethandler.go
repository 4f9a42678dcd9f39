package funding

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/logic/funding"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

func ScoreMarketHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ScoreMarketRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err))
			return
		}

		l := funding.NewScoreMarketLogic(r.Context(), svcCtx)
		resp, err := l.ScoreMarket(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
