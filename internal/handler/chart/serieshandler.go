package chart

import (
	"net/http"
	"strings"

	"github.com/vmihailenco/msgpack/v5"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/logic/chart"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

const msgpackContentType = "application/msgpack"

func SeriesHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChartSeriesRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err))
			return
		}

		l := chart.NewSeriesLogic(r.Context(), svcCtx)
		resp, err := l.Series(&req)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		if !wantsMsgpack(r) {
			httpx.OkJsonCtx(r.Context(), w, resp)
			return
		}
		data, err := msgpack.Marshal(resp)
		if err != nil {
			httpx.ErrorCtx(r.Context(), w, err)
			return
		}
		w.Header().Set("Content-Type", msgpackContentType)
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			logx.WithContext(r.Context()).Errorf("chart: write msgpack err=%v", err)
		}
	}
}

func wantsMsgpack(r *http.Request) bool {
	for _, part := range strings.Split(r.Header.Get("Accept"), ",") {
		media := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if strings.EqualFold(media, msgpackContentType) || strings.EqualFold(media, "application/x-msgpack") {
			return true
		}
	}
	return false
}
