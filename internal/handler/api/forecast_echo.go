package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"StalkPull/internal/domain/models"
	domrepo "StalkPull/internal/domain/repository"
	"StalkPull/internal/forecast"
	"StalkPull/internal/service/live"
	"StalkPull/internal/service/ratelimit"
	"StalkPull/internal/usecase"
	xhttp "StalkPull/pkg/http"
	xlogger "StalkPull/pkg/logger"
	"StalkPull/pkg/util"
)

const maxIslandLen = 64

// ForecastEchoHandler exposes the prediction engine over HTTP: stateless
// predictions, report submission, stored weeks, and a live WebSocket feed.
type ForecastEchoHandler struct {
	logger      *xlogger.Logger
	forecaster  *usecase.Forecaster
	hub         *live.Hub
	limiter     *ratelimit.Limiter
	reportRate  float64
	reportBurst float64
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecaster *usecase.Forecaster,
	hub *live.Hub,
	limiter *ratelimit.Limiter,
	reportRate float64,
	reportBurst int,
) *ForecastEchoHandler {
	return &ForecastEchoHandler{
		logger:      logger,
		forecaster:  forecaster,
		hub:         hub,
		limiter:     limiter,
		reportRate:  reportRate,
		reportBurst: float64(reportBurst),
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)

	g := e.Group("/api/v1")
	g.POST("/predict", h.Predict)
	g.POST("/islands/:island/reports", h.SubmitReport)
	g.GET("/islands/:island/week", h.Week)
	g.GET("/islands/:island/weeks", h.Weeks)
	g.GET("/islands/:island/live", h.Live)
}

func (h *ForecastEchoHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	prices := make([]int, len(req.Prices))
	for i, p := range req.Prices {
		if p != nil {
			prices[i] = *p
		}
	}

	pred, err := h.forecaster.Predict(c.Request().Context(), usecase.PredictParams{
		BasePrice: req.BasePrice,
		Prices:    prices,
		LastWeek:  req.LastWeek,
	})
	if err != nil {
		return h.forecastError(c, err)
	}
	return xhttp.SuccessResponse(c, pred)
}

func (h *ForecastEchoHandler) SubmitReport(c echo.Context) error {
	island, ok := islandParam(c)
	if !ok {
		return badIsland(c)
	}
	if !h.limiter.Allow(island, h.reportBurst, h.reportRate) {
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("report rate exceeded for island"))
	}

	req := &models.ReportRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	report, appErr := reportFromRequest(island, req)
	if appErr != nil {
		return xhttp.AppErrorResponse(c, appErr)
	}

	pred, err := h.forecaster.SubmitReport(c.Request().Context(), report)
	if err != nil {
		return h.forecastError(c, err)
	}
	return xhttp.CreatedResponse(c, pred)
}

func (h *ForecastEchoHandler) Week(c echo.Context) error {
	island, ok := islandParam(c)
	if !ok {
		return badIsland(c)
	}
	req := &models.WeekQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	weekStart := xhttp.ParseWeekStartDefault(req.WeekStart, util.WeekStart(time.Now().UTC()))

	view, err := h.forecaster.GetWeek(c.Request().Context(), island, weekStart)
	if err != nil {
		return h.forecastError(c, err)
	}
	return xhttp.SuccessResponse(c, view)
}

func (h *ForecastEchoHandler) Weeks(c echo.Context) error {
	island, ok := islandParam(c)
	if !ok {
		return badIsland(c)
	}
	req := &models.WeeksQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	weeks, err := h.forecaster.LatestWeeks(c.Request().Context(), island, req.Limit)
	if err != nil {
		return h.forecastError(c, err)
	}
	return xhttp.ListResponse(c, weeks, int64(len(weeks)))
}

// Live upgrades to a WebSocket and streams every recomputed prediction for
// the island until the client disconnects.
func (h *ForecastEchoHandler) Live(c echo.Context) error {
	island, ok := islandParam(c)
	if !ok {
		return badIsland(c)
	}
	if err := h.hub.Subscribe(c.Response(), c.Request(), island); err != nil {
		h.logger.Error("websocket subscribe", xlogger.Error(err), xlogger.String("island", island))
		return err
	}
	return nil
}

func (h *ForecastEchoHandler) Health(c echo.Context) error {
	if err := h.forecaster.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check", xlogger.Error(err))
		return xhttp.DataResponse(c, 503, map[string]string{"status": "degraded"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"status": "ok"})
}

func (h *ForecastEchoHandler) forecastError(c echo.Context, err error) error {
	var appErr *xhttp.AppError
	switch {
	case errors.As(err, &appErr):
	case errors.Is(err, forecast.ErrInvalidInput):
		appErr = xhttp.BadRequestError(err.Error())
	case errors.Is(err, forecast.ErrInconsistent):
		appErr = xhttp.UnprocessableError("prices do not match any known pattern").WithError(err)
	case errors.Is(err, usecase.ErrNoBasePrice):
		appErr = xhttp.UnprocessableError("base price not reported yet").WithError(err)
	case errors.Is(err, domrepo.ErrWeekNotFound):
		appErr = xhttp.NotFoundError("no reports stored for that week").WithError(err)
	default:
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		appErr = xhttp.InternalError("internal error").WithError(err)
	}
	return xhttp.AppErrorResponse(c, appErr)
}

// reportFromRequest folds the two request shapes into one report: a slot
// price when half_day is set, the week's base price otherwise.
func reportFromRequest(island string, req *models.ReportRequest) (*models.PriceReport, *xhttp.AppError) {
	r := &models.PriceReport{
		Island:   island,
		HalfDay:  req.HalfDay,
		LastWeek: req.LastWeek,
	}
	if req.WeekStart != "" {
		ws, err := util.ParseWeekStart(req.WeekStart)
		if err != nil {
			return nil, xhttp.BadRequestError("week_start must be a YYYY-MM-DD date").WithError(err)
		}
		r.WeekStart = ws
	}

	switch {
	case req.HalfDay != "":
		if req.Price <= 0 {
			return nil, xhttp.BadRequestError("price is required with half_day")
		}
		if req.BasePrice != 0 {
			return nil, xhttp.BadRequestError("base_price cannot accompany a half_day report")
		}
		r.Price = req.Price
	default:
		if req.BasePrice <= 0 {
			return nil, xhttp.BadRequestError("either half_day with price or base_price is required")
		}
		if req.Price != 0 {
			return nil, xhttp.BadRequestError("price needs a half_day; use base_price for Sunday")
		}
		r.Price = req.BasePrice
	}
	return r, nil
}

func islandParam(c echo.Context) (string, bool) {
	island := c.Param("island")
	if island == "" || len(island) > maxIslandLen {
		return "", false
	}
	return island, true
}

func badIsland(c echo.Context) error {
	return xhttp.AppErrorResponse(c, xhttp.BadRequestError("island must be 1..64 characters"))
}
