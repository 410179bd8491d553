package server

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"AgriChain/internal/domain/models"
	"AgriChain/internal/service/ratelimit"
	"AgriChain/internal/usecase"
	"AgriChain/pkg/config"
	xhttp "AgriChain/pkg/http"
	applogger "AgriChain/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	l          *applogger.Logger
	svc        *usecase.PriceForecastService
	httpServer *xhttp.Server
	limiter    *ratelimit.Limiter
}

// New creates a new App instance. limiter may be nil.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	svc *usecase.PriceForecastService,
	httpServer *xhttp.Server,
	limiter *ratelimit.Limiter,
) *App {
	return &App{
		cfg:        cfg,
		l:          l,
		svc:        svc,
		httpServer: httpServer,
		limiter:    limiter,
	}
}

// Run warms the configured pairs, serves HTTP and blocks until ctx is
// cancelled or SIGINT/SIGTERM arrives. Stores, caches and publishers are
// released by the injector's cleanup, not here.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pairs := make([]models.ModelKey, 0, len(a.cfg.Forecast.Warm))
	for _, p := range a.cfg.Forecast.Warm {
		pairs = append(pairs, models.ModelKey{Commodity: p.Commodity, Market: p.Market})
	}
	warmStart := time.Now()
	if err := a.svc.Warm(ctx, pairs...); err != nil {
		a.l.Error("warm up failed", applogger.Error(err))
		return err
	}
	a.l.Info("models warmed",
		applogger.Int("pairs", len(pairs)),
		applogger.Int("cached", a.svc.CachedModels()),
		applogger.Duration("took", time.Since(warmStart)),
	)

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}
	a.l.Info("agrichain started",
		applogger.String("env", a.cfg.Environment),
		applogger.Int("port", a.cfg.Server.Port),
		applogger.String("history", a.cfg.History.Backend),
	)

	if a.limiter != nil {
		go a.sweep(ctx)
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")
	return a.shutdown()
}

func (a *App) sweep(ctx context.Context) {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := a.limiter.Sweep(); n > 0 {
				a.l.Debug("rate limiter swept", applogger.Int("dropped", n), applogger.Int("remaining", a.limiter.Len()))
			}
		}
	}
}

// shutdown drains in-flight requests.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}
	a.l.Info("shutdown complete", applogger.Int64("trainings", a.svc.Trainings()))
	return nil
}
