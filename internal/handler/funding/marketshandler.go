package funding

import (
	"net/http"

	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/logic/funding"
	"perpdash-api/internal/svc"
)

func MarketsHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l := funding.NewMarketsLogic(r.Context(), svcCtx)
		resp, err := l.Markets()
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
		} else {
			httpx.OkJsonCtx(r.Context(), w, resp)
		}
	}
}
