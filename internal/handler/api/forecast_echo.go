package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"AgriChain/internal/domain/models"
	domsvc "AgriChain/internal/domain/service"
	icache "AgriChain/internal/service/cache"
	svcmetrics "AgriChain/internal/service/metrics"
	"AgriChain/internal/service/ratelimit"
	"AgriChain/internal/usecase"
	xhttp "AgriChain/pkg/http"
	xlogger "AgriChain/pkg/logger"
	"AgriChain/pkg/util"

	"github.com/labstack/echo/v4"
)

const responsePrefix = "forecast:"

// Catalog lists what can be forecast.
type Catalog interface {
	Commodities(ctx context.Context) ([]string, error)
	Markets(ctx context.Context, commodity string, recent int) ([]models.MarketQuote, error)
	MarketNames(ctx context.Context, commodity string) ([]string, error)
}

// ForecastEchoHandler serves forecasts and the commodity catalog.
type ForecastEchoHandler struct {
	logger   *xlogger.Logger
	svc      domsvc.PriceForecaster
	catalog  Catalog
	cache    icache.BytesCache
	cacheTTL time.Duration
	limiter  *ratelimit.Limiter

	// default and maximum horizon in days
	defaultDays int
	maxDays     int
}

type HandlerOption func(*ForecastEchoHandler)

// WithResponseCache caches rendered forecasts for ttl.
func WithResponseCache(c icache.BytesCache, ttl time.Duration) HandlerOption {
	return func(h *ForecastEchoHandler) {
		h.cache = c
		h.cacheTTL = ttl
	}
}

// WithHorizon sets the horizon used when days is omitted and the largest
// one accepted.
func WithHorizon(defaultDays, maxDays int) HandlerOption {
	return func(h *ForecastEchoHandler) {
		h.defaultDays = defaultDays
		h.maxDays = maxDays
	}
}

// WithRateLimit limits forecast requests per client IP.
func WithRateLimit(l *ratelimit.Limiter) HandlerOption {
	return func(h *ForecastEchoHandler) { h.limiter = l }
}

func NewForecastEchoHandler(logger *xlogger.Logger, svc domsvc.PriceForecaster, catalog Catalog, opts ...HandlerOption) *ForecastEchoHandler {
	h := &ForecastEchoHandler{
		logger:      logger,
		svc:         svc,
		catalog:     catalog,
		cache:       icache.Noop{},
		defaultDays: 30,
		maxDays:     90,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

func (h *ForecastEchoHandler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/forecast", h.Forecast)
	g.DELETE("/forecast/cache", h.Evict)
	g.GET("/commodities", h.Commodities)
	g.GET("/markets", h.Markets)
}

func responseKey(commodity, market string, days int) string {
	return responsePrefix + models.ModelKey{
		Commodity: util.NormalizeName(commodity),
		Market:    util.NormalizeName(market),
	}.String() + "|" + strconv.Itoa(days)
}

func (h *ForecastEchoHandler) Forecast(c echo.Context) error {
	const endpoint = "forecast"
	start := time.Now()
	defer func() { svcmetrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds()) }()

	if h.limiter != nil && !h.limiter.Allow(c.RealIP()) {
		svcmetrics.APIRateLimited.WithLabelValues(endpoint).Inc()
		return h.fail(c, endpoint, xhttp.TooManyRequestsError("too many forecast requests"))
	}

	req := &models.ForecastRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	if req.Days == 0 {
		req.Days = h.defaultDays
	}
	if req.Days > h.maxDays {
		return h.fail(c, endpoint, xhttp.NewAppError("ERR_LTE", "days",
			fmt.Sprintf("days must be less than or equal to %d", h.maxDays), http.StatusBadRequest).
			WithParam("max", h.maxDays))
	}

	ctx := c.Request().Context()
	key := responseKey(req.Commodity, req.Market, req.Days)
	if b, ok, err := h.cache.GetBytes(ctx, key); err != nil {
		h.logger.Warn("response cache read failed", xlogger.String("key", key), xlogger.Error(err))
	} else if ok {
		return xhttp.SuccessResponse(c, json.RawMessage(b))
	}

	res, err := h.svc.PredictFuturePrices(ctx, req.Commodity, req.Market, req.Days)
	if err != nil {
		if errors.Is(err, usecase.ErrInvalidArgument) {
			return h.fail(c, endpoint, xhttp.BadRequestError(err.Error()))
		}
		if ctx.Err() != nil {
			// client went away; training carries on for other callers
			return h.fail(c, endpoint, xhttp.NewAppError("ERR_CANCELED", "", "request canceled", 499))
		}
		h.logger.Error("forecast usecase error", xlogger.Error(err),
			xlogger.String("commodity", req.Commodity), xlogger.String("market", req.Market))
		return h.fail(c, endpoint, xhttp.InternalError("forecast failed").WithError(err))
	}
	if res == nil {
		appErr := xhttp.InsufficientDataError(models.InsufficientDataMessage(req.Commodity, req.Market)).
			WithParam("min_rows", models.MinHistoryRows)
		// point the caller at markets that do trade the commodity
		if names, err := h.catalog.MarketNames(ctx, req.Commodity); err != nil {
			h.logger.Warn("market names lookup failed", xlogger.String("commodity", req.Commodity), xlogger.Error(err))
		} else if len(names) > 0 {
			appErr.WithParam("markets", names)
		}
		return h.fail(c, endpoint, appErr)
	}

	b, err := json.Marshal(models.NewForecastResponse(res))
	if err != nil {
		return h.fail(c, endpoint, xhttp.InternalError("encode forecast"))
	}
	if err := h.cache.SetBytes(ctx, key, b, h.cacheTTL); err != nil {
		h.logger.Warn("response cache write failed", xlogger.String("key", key), xlogger.Error(err))
	}
	return xhttp.SuccessResponse(c, json.RawMessage(b))
}

// Evict drops one pair's model and responses, or everything when no
// commodity is given.
func (h *ForecastEchoHandler) Evict(c echo.Context) error {
	const endpoint = "evict"
	req := &models.EvictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}

	prefix := responsePrefix
	if req.Commodity == "" {
		h.svc.EvictAll()
	} else {
		h.svc.Evict(req.Commodity, req.Market)
		prefix = responsePrefix + models.ModelKey{
			Commodity: util.NormalizeName(req.Commodity),
			Market:    util.NormalizeName(req.Market),
		}.String() + "|"
	}
	if err := h.cache.DeletePrefix(c.Request().Context(), prefix); err != nil {
		h.logger.Warn("response cache evict failed", xlogger.String("prefix", prefix), xlogger.Error(err))
	}
	h.logger.Info("forecast cache evicted", xlogger.String("commodity", req.Commodity), xlogger.String("market", req.Market))
	return xhttp.SuccessResponse(c, map[string]string{"commodity": req.Commodity, "market": req.Market})
}

func (h *ForecastEchoHandler) Commodities(c echo.Context) error {
	out, err := h.catalog.Commodities(c.Request().Context())
	if err != nil {
		h.logger.Error("commodities usecase error", xlogger.Error(err))
		return h.fail(c, "commodities", xhttp.InternalError("list commodities"))
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ForecastEchoHandler) Markets(c echo.Context) error {
	const endpoint = "markets"
	req := &models.MarketsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		svcmetrics.APIErrors.WithLabelValues(endpoint, "ERR_VALIDATION").Inc()
		return xhttp.BadRequestResponse(c, verr)
	}
	out, err := h.catalog.Markets(c.Request().Context(), req.Commodity, req.Recent)
	if err != nil {
		h.logger.Error("markets usecase error", xlogger.Error(err))
		return h.fail(c, endpoint, xhttp.InternalError("list markets"))
	}
	return xhttp.SuccessResponse(c, out)
}

func (h *ForecastEchoHandler) fail(c echo.Context, endpoint string, err *xhttp.AppError) error {
	svcmetrics.APIErrors.WithLabelValues(endpoint, err.Code).Inc()
	return xhttp.AppErrorResponse(c, err)
}
