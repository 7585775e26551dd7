package api

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"rainwatch/internal/domain/models"
	drepo "rainwatch/internal/domain/repository"
	pkghttp "rainwatch/pkg/http"
	"rainwatch/pkg/logger"
	"rainwatch/pkg/util"
)

// Dashboard is the aggregator surface the HTTP layer serves.
type Dashboard interface {
	Location() models.Location
	DefaultRange() (time.Time, time.Time)
	History(ctx context.Context, start, end time.Time) (models.HistoricalSeries, error)
	Forecast(ctx context.Context, h drepo.Horizon) (models.ForecastResult, error)
	Live(ctx context.Context) (models.LiveConditions, error)
	RiskSites(ctx context.Context, h drepo.Horizon) ([]models.ScoredSite, error)
}

// DashboardHandler exposes the dashboard data paths over HTTP.
type DashboardHandler struct {
	dashboard Dashboard
	stream    *LiveStream
	log       *logger.Logger
}

// NewDashboardHandler builds the handler. stream may be nil to disable
// the websocket endpoint.
func NewDashboardHandler(dashboard Dashboard, stream *LiveStream, log *logger.Logger) *DashboardHandler {
	return &DashboardHandler{dashboard: dashboard, stream: stream, log: log}
}

// RegisterRoutes attaches the API routes.
func (h *DashboardHandler) RegisterRoutes(e *echo.Echo) {
	api := e.Group("/api")
	api.GET("/history", h.History)
	api.GET("/forecast", h.Forecast)
	api.GET("/live", h.Live)
	api.GET("/risk/sites", h.RiskSites)
	if h.stream != nil {
		api.GET("/live/stream", h.stream.Serve)
	}
	e.GET("/healthz", h.Health)
}

// History serves the daily observation series.
func (h *DashboardHandler) History(c echo.Context) error {
	req := new(models.HistoryRequest)
	if verr := pkghttp.ReadAndValidateRequest(c, req); verr != nil {
		return pkghttp.BadRequestResponse(c, verr)
	}

	defStart, defEnd := h.dashboard.DefaultRange()
	start := util.ParseDateDefault(req.Start, defStart)
	end := util.ParseDateDefault(req.End, defEnd)

	series, err := h.dashboard.History(c.Request().Context(), start, end)
	if err != nil {
		return h.fail(c, err)
	}
	return pkghttp.SuccessResponse(c, echo.Map{
		"location": h.dashboard.Location(),
		"start":    util.FormatDate(start),
		"end":      util.FormatDate(end),
		"count":    len(series),
		"series":   series,
	})
}

// Forecast serves the rainfall forecast for the requested horizon.
func (h *DashboardHandler) Forecast(c echo.Context) error {
	req := new(models.ForecastRequest)
	if verr := pkghttp.ReadAndValidateRequest(c, req); verr != nil {
		return pkghttp.BadRequestResponse(c, verr)
	}

	result, err := h.dashboard.Forecast(c.Request().Context(), drepo.NormalizeHorizon(req.Horizon))
	if err != nil {
		return h.fail(c, err)
	}
	return pkghttp.SuccessResponse(c, result)
}

// Live serves current conditions, cached within the TTL.
func (h *DashboardHandler) Live(c echo.Context) error {
	conditions, err := h.dashboard.Live(c.Request().Context())
	if err != nil {
		return h.fail(c, err)
	}
	return pkghttp.SuccessResponse(c, conditions)
}

// RiskSites serves the forecast-adjusted hotspot scores.
func (h *DashboardHandler) RiskSites(c echo.Context) error {
	req := new(models.ForecastRequest)
	if verr := pkghttp.ReadAndValidateRequest(c, req); verr != nil {
		return pkghttp.BadRequestResponse(c, verr)
	}

	sites, err := h.dashboard.RiskSites(c.Request().Context(), drepo.NormalizeHorizon(req.Horizon))
	if err != nil {
		return h.fail(c, err)
	}
	return pkghttp.SuccessResponse(c, echo.Map{"sites": sites})
}

// Health reports liveness.
func (h *DashboardHandler) Health(c echo.Context) error {
	return pkghttp.SuccessResponse(c, echo.Map{"status": "ok"})
}

// fail maps domain failures onto HTTP statuses.
func (h *DashboardHandler) fail(c echo.Context, err error) error {
	h.log.Error("request failed",
		logger.String("path", c.Path()),
		logger.Error(err))

	var appErr *pkghttp.AppError
	switch {
	case errors.Is(err, models.ErrInvalidRange):
		appErr = pkghttp.BadRequestError(err.Error())
	case errors.Is(err, models.ErrInsufficientHistory):
		appErr = pkghttp.UnprocessableError("ERR_INSUFFICIENT_HISTORY", err.Error())
	case errors.Is(err, models.ErrDataUnavailable):
		appErr = pkghttp.NotFoundError(err.Error())
	case errors.Is(err, models.ErrTransport):
		appErr = pkghttp.UpstreamError(err.Error())
	case errors.Is(err, models.ErrModelFit):
		appErr = pkghttp.InternalError(err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		appErr = pkghttp.UpstreamError("upstream timeout")
	default:
		appErr = pkghttp.InternalError("unexpected failure")
	}
	return pkghttp.AppErrorResponse(c, appErr.WithError(err))
}
