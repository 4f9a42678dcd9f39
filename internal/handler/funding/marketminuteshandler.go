package funding

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/logic/funding"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

func MarketMinutesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.MarketMinutesRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err))
			return
		}

		l := funding.NewMarketMinutesLogic(r.Context(), svcCtx)
		resp, err := l.MarketMinutes(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
