package funding

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/logic/funding"
	"perpdash-api/internal/svc"
)

func LatestBatchHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := funding.NewLatestBatchLogic(r.Context(), svcCtx)
		resp, err := l.LatestBatch()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
