package chart

import (
	"net/http"
	"strconv"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/logic/chart"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

func RenderHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChartRenderRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err))
			return
		}

		l := chart.NewRenderLogic(r.Context(), svcCtx)
		png, err := l.Render(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Content-Length", strconv.Itoa(len(png)))
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(png); err != nil {
			logx.WithContext(r.Context()).Errorf("chart: write png err=%v", err)
		}
	}
}
