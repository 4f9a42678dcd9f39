package chart

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"

	cachekeys "perpdash-api/internal/cache"
	"perpdash-api/internal/metrics"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
	chartpkg "perpdash-api/pkg/chart"
)

// FrameConn is the part of a websocket connection a live session needs.
type FrameConn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

type LiveLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext

	// refresh is how often series are reloaded; zero disables reloading.
	refresh time.Duration
}

func NewLiveLogic(ctx context.Context, svcCtx *svc.ServiceContext) *LiveLogic {
	return &LiveLogic{
		Logger:  logx.WithContext(ctx),
		ctx:     ctx,
		svcCtx:  svcCtx,
		refresh: cachekeys.FundingHistoryTTL(svcCtx.TTL),
	}
}

// WithRefresh overrides the series reload interval.
func (l *LiveLogic) WithRefresh(d time.Duration) *LiveLogic {
	l.refresh = d
	return l
}

// liveSession owns one view and serializes every event and write on mu.
type liveSession struct {
	mu      sync.Mutex
	conn    FrameConn
	bus     *chartpkg.Bus
	surface *chartpkg.RasterSurface
	werr    error
}

func (s *liveSession) publish(ev chartpkg.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bus.Publish(ev)
	return s.werr
}

// onFrame runs inside publish, so mu is held.
func (s *liveSession) onFrame(state *chartpkg.HoverState, err error) {
	if s.werr != nil {
		return
	}
	if err != nil {
		s.werr = s.writeText(types.LiveFrame{Type: "error", Error: err.Error()})
		return
	}
	var buf bytes.Buffer
	if err := s.surface.EncodePNG(&buf); err != nil {
		s.werr = s.writeText(types.LiveFrame{Type: "error", Error: err.Error()})
		return
	}
	if err := s.conn.WriteMessage(websocket.BinaryMessage, buf.Bytes()); err != nil {
		s.werr = err
		return
	}
	metrics.FramesRendered.WithLabelValues("live").Inc()
	s.werr = s.writeText(types.LiveFrame{Type: "frame", Bytes: buf.Len(), Hover: state})
}

func (s *liveSession) writeText(frame types.LiveFrame) error {
	data, err := json.Marshal(frame)
	if err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *liveSession) reject(msg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeText(types.LiveFrame{Type: "error", Error: msg})
}

// Serve renders the chart described by req onto conn and redraws it for
// every client event until the connection fails or ctx is done.
func (l *LiveLogic) Serve(req *types.ChartLiveRequest, conn FrameConn) error {
	metrics.LiveSessions.Inc()
	defer metrics.LiveSessions.Dec()

	cfg := l.svcCtx.ChartConfig
	sess := &liveSession{
		conn:    conn,
		bus:     chartpkg.NewBus(),
		surface: chartpkg.NewRasterSurface(),
	}

	ct, series, err := loadSeries(l.ctx, l.svcCtx, req.Market, req.Type, req.Minutes)
	if err != nil {
		_ = sess.reject(err.Error())
		return err
	}
	renderer := chartpkg.NewRenderer(sess.surface, chartpkg.WithStyle(cfg.Style))
	if err := renderer.Resize(cfg.Viewport(req.Width, req.Height, req.Dpr)); err != nil {
		_ = sess.reject(err.Error())
		return err
	}

	view := chartpkg.NewView(renderer, ct, series, sess.onFrame)
	sess.mu.Lock()
	release := view.Mount(sess.bus)
	werr := sess.werr
	sess.mu.Unlock()
	defer release()
	if werr != nil {
		return werr
	}

	ctx, cancel := context.WithCancel(l.ctx)
	defer cancel()
	if l.refresh > 0 {
		go l.reload(ctx, sess, req, ct)
	}

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil
		}
		var msg types.LiveMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			if err := sess.reject("malformed message"); err != nil {
				return err
			}
			continue
		}
		ev, ok := eventFor(msg, cfg)
		if !ok {
			if err := sess.reject(fmt.Sprintf("unknown message type %q", msg.Type)); err != nil {
				return err
			}
			continue
		}
		if err := sess.publish(ev); err != nil {
			return err
		}
	}
}

func eventFor(msg types.LiveMessage, cfg *chartpkg.Config) (chartpkg.Event, bool) {
	switch msg.Type {
	case "move":
		return chartpkg.Event{Kind: chartpkg.PointerMove, X: msg.X}, true
	case "leave":
		return chartpkg.Event{Kind: chartpkg.PointerLeave}, true
	case "resize":
		return chartpkg.Event{Kind: chartpkg.ResizeEvent, Viewport: cfg.Viewport(msg.Width, msg.Height, msg.Dpr)}, true
	default:
		return chartpkg.Event{}, false
	}
}

func (l *LiveLogic) reload(ctx context.Context, sess *liveSession, req *types.ChartLiveRequest, ct chartpkg.ChartType) {
	ticker := time.NewTicker(l.refresh)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_, series, err := loadSeries(ctx, l.svcCtx, req.Market, string(ct), req.Minutes)
			if err != nil {
				l.Errorf("live: reload market=%s err=%v", req.Market, err)
				continue
			}
			if err := sess.publish(chartpkg.Event{Kind: chartpkg.DataEvent, Series: series}); err != nil {
				return
			}
		}
	}
}
