package api

import (
	"errors"
	"net/http"
	"time"

	models "GridCast/internal/domain/models"
	domrepo "GridCast/internal/domain/repository"
	fmetrics "GridCast/internal/service/metrics"
	"GridCast/internal/service/ratelimit"
	"GridCast/internal/usecase"
	xhttp "GridCast/pkg/http"
	xlogger "GridCast/pkg/logger"

	"github.com/labstack/echo/v4"
)

// Per-client budget for the forecast endpoints.
const (
	rateCapacity  = 10
	rateRefillSec = 2
)

// ForecastEchoHandler exposes the forecast pipeline over HTTP.
type ForecastEchoHandler struct {
	logger    *xlogger.Logger
	forecast  *usecase.ForecastOrchestrator
	anomaly   *usecase.AnomalyDetector
	limiter   *ratelimit.Limiter
	store     domrepo.PriceStore      // nil when not configured
	collector *usecase.PriceCollector // nil when ingest disabled
}

func NewForecastEchoHandler(
	logger *xlogger.Logger,
	forecast *usecase.ForecastOrchestrator,
	anomaly *usecase.AnomalyDetector,
	limiter *ratelimit.Limiter,
	store domrepo.PriceStore,
	collector *usecase.PriceCollector,
) *ForecastEchoHandler {
	fmetrics.Register()
	return &ForecastEchoHandler{
		logger:    logger,
		forecast:  forecast,
		anomaly:   anomaly,
		limiter:   limiter,
		store:     store,
		collector: collector,
	}
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	g := e.Group("/api")
	g.POST("/timegpt/forecast", h.Forecast)
	g.POST("/timegpt/anomaly-detection", h.AnomalyDetection)
	g.GET("/health", h.Health)
}

// Root is the liveness probe the dashboard polls.
func (h *ForecastEchoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "TimeGPT Forecast API is running!",
	})
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	start := time.Now()
	defer func() {
		fmetrics.ForecastLatency.WithLabelValues("forecast").Observe(time.Since(start).Seconds())
	}()

	if !h.allow(c) {
		fmetrics.ForecastErrors.WithLabelValues("forecast").Inc()
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	}

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		fmetrics.ForecastErrors.WithLabelValues("forecast").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.forecast.Generate(c.Request().Context(), req)
	if err != nil {
		// the cascade absorbs tier failures; reaching here is catastrophic
		h.logger.Error("forecast usecase error", xlogger.Error(err))
		fmetrics.ForecastErrors.WithLabelValues("forecast").Inc()
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *ForecastEchoHandler) AnomalyDetection(c echo.Context) error {
	start := time.Now()
	defer func() {
		fmetrics.ForecastLatency.WithLabelValues("anomaly").Observe(time.Since(start).Seconds())
	}()

	if !h.allow(c) {
		fmetrics.ForecastErrors.WithLabelValues("anomaly").Inc()
		return c.JSON(http.StatusTooManyRequests, map[string]string{"error": "rate limit exceeded"})
	}

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		fmetrics.ForecastErrors.WithLabelValues("anomaly").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	report, err := h.anomaly.Detect(c.Request().Context(), req)
	if err != nil {
		fmetrics.ForecastErrors.WithLabelValues("anomaly").Inc()
		if errors.Is(err, models.ErrSchema) {
			return xhttp.BadRequestResponse(c, err.Error())
		}
		h.logger.Error("anomaly usecase error", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	return c.JSON(http.StatusOK, report)
}

// Health reports the state of the optional backends.
func (h *ForecastEchoHandler) Health(c echo.Context) error {
	out := map[string]interface{}{"status": "ok"}

	if h.store != nil {
		if err := h.store.Health(c.Request().Context()); err != nil {
			out["store"] = "unavailable"
			out["status"] = "degraded"
		} else {
			out["store"] = "ok"
		}
	}
	if h.collector != nil {
		if h.collector.IsConnected() {
			out["stream"] = "connected"
		} else {
			out["stream"] = "disconnected"
		}
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ForecastEchoHandler) allow(c echo.Context) bool {
	if h.limiter == nil {
		return true
	}
	return h.limiter.Allow(c.RealIP(), rateCapacity, rateRefillSec)
}
