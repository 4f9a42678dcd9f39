package errorx

import (
	"context"
	"errors"
	"net/http"

	"github.com/zeromicro/go-zero/core/logx"

	"perpdash-api/internal/repo"
	"perpdash-api/pkg/chart"
	"perpdash-api/pkg/funding"
	"perpdash-api/pkg/market"
)

// CodeError is an error with the HTTP status it should be reported with.
type CodeError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func (e *CodeError) Error() string {
	return e.Msg
}

func New(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

// BadRequest wraps a request parsing or validation failure.
func BadRequest(err error) *CodeError {
	return New(http.StatusBadRequest, err.Error())
}

// ErrorBody is the JSON payload of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// Handler maps domain errors to HTTP statuses for httpx.SetErrorHandlerCtx.
func Handler(ctx context.Context, err error) (int, any) {
	var ce *CodeError
	switch {
	case errors.As(err, &ce):
		return ce.Code, ErrorBody{Error: ce.Msg}
	case errors.Is(err, repo.ErrUnknownDex), errors.Is(err, market.ErrUnknownProvider):
		return http.StatusBadRequest, ErrorBody{Error: err.Error()}
	case errors.Is(err, market.ErrSymbolNotFound), errors.Is(err, funding.ErrInsufficientData):
		return http.StatusNotFound, ErrorBody{Error: err.Error()}
	case errors.Is(err, chart.ErrNoSurface):
		return http.StatusServiceUnavailable, ErrorBody{Error: err.Error()}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ErrorBody{Error: "upstream timeout"}
	default:
		logx.WithContext(ctx).Errorf("errorx: unhandled err=%v", err)
		return http.StatusBadGateway, ErrorBody{Error: "upstream unavailable"}
	}
}
