package chart

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/errorx"
	"perpdash-api/internal/metrics"
	"perpdash-api/internal/svc"
	"perpdash-api/internal/types"
	chartpkg "perpdash-api/pkg/chart"
)

type RenderLogic struct {
	logx.Logger
	ctx    context.Context
	svcCtx *svc.ServiceContext
}

func NewRenderLogic(ctx context.Context, svcCtx *svc.ServiceContext) *RenderLogic {
	return &RenderLogic{
		Logger: logx.WithContext(ctx),
		ctx:    ctx,
		svcCtx: svcCtx,
	}
}

// Render draws a single PNG frame. A hover value is a CSS x coordinate
// within the requested viewport.
func (l *RenderLogic) Render(req *types.ChartRenderRequest) ([]byte, error) {
	hoverX, err := parseHover(req.Hover)
	if err != nil {
		return nil, errorx.BadRequest(err)
	}
	ct, series, err := loadSeries(l.ctx, l.svcCtx, req.Market, req.Type, req.Minutes)
	if err != nil {
		return nil, err
	}

	cfg := l.svcCtx.ChartConfig
	surface := chartpkg.NewRasterSurface()
	renderer := chartpkg.NewRenderer(surface, chartpkg.WithStyle(cfg.Style))
	if err := renderer.Resize(cfg.Viewport(req.Width, req.Height, req.Dpr)); err != nil {
		return nil, err
	}
	if _, err := renderer.Draw(series, ct, hoverX); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := surface.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("chart: encode png: %w", err)
	}
	metrics.FramesRendered.WithLabelValues("png").Inc()
	return buf.Bytes(), nil
}

func parseHover(raw string) (*float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	x, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(x) || math.IsInf(x, 0) {
		return nil, fmt.Errorf("hover must be a finite number: %q", raw)
	}
	return &x, nil
}
