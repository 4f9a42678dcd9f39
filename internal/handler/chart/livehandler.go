package chart

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/rest/httpx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/logic/chart"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
)

const liveReadLimit = 4 << 10

var upgrader = websocket.Upgrader{
	ReadBufferSize:   1024,
	WriteBufferSize:  64 << 10,
	HandshakeTimeout: 10 * time.Second,
	CheckOrigin:      func(*http.Request) bool { return true },
}

func LiveHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req types.ChartLiveRequest
		if err := httpx.Parse(r, &req); err != nil {
			httpx.ErrorCtx(r.Context(), w, errorx.BadRequest(err))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.WithContext(r.Context()).Errorf("chart: live upgrade market=%s err=%v", req.Market, err)
			return
		}
		defer conn.Close()
		conn.SetReadLimit(liveReadLimit)

		l := chart.NewLiveLogic(r.Context(), svcCtx)
		if err := l.Serve(&req, conn); err != nil {
			logx.WithContext(r.Context()).Errorf("chart: live session market=%s err=%v", req.Market, err)
			return
		}
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	}
}
