package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	domsvc "AgriChain/internal/domain/service"
	applogger "AgriChain/pkg/logger"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrInvalidArgument is returned for empty names or an out-of-range horizon.
var ErrInvalidArgument = errors.New("invalid argument")

var _ domsvc.PriceForecaster = (*PriceForecastService)(nil)

// PriceForecastService owns the model cache. Its lifecycle is construct,
// Warm, any number of PredictFuturePrices calls, and Evict/EvictAll.
type PriceForecastService struct {
	store      domrepo.HistoryStore
	trainer    domsvc.ModelTrainer
	forecaster domsvc.Forecaster
	summarizer domsvc.Summarizer
	models     domrepo.ModelCache
	publisher  domrepo.ForecastPublisher
	metrics    domrepo.Metrics
	l          *applogger.Logger

	maxDays   int
	group     singleflight.Group
	trainings atomic.Int64
	newID     func() string
}

type PriceForecastDeps struct {
	Store      domrepo.HistoryStore
	Trainer    domsvc.ModelTrainer
	Forecaster domsvc.Forecaster
	Summarizer domsvc.Summarizer
	Models     domrepo.ModelCache
	Publisher  domrepo.ForecastPublisher
	Metrics    domrepo.Metrics
	Logger     *applogger.Logger
	// MaxDays caps daysAhead; 0 leaves it unbounded.
	MaxDays int
}

func NewPriceForecastService(d PriceForecastDeps) *PriceForecastService {
	return &PriceForecastService{
		store:      d.Store,
		trainer:    d.Trainer,
		forecaster: d.Forecaster,
		summarizer: d.Summarizer,
		models:     d.Models,
		publisher:  d.Publisher,
		metrics:    d.Metrics,
		l:          d.Logger,
		maxDays:    d.MaxDays,
		newID:      uuid.NewString,
	}
}

// Warm loads the price history and pre-trains the given pairs. Pairs without
// enough history are skipped.
func (s *PriceForecastService) Warm(ctx context.Context, pairs ...models.ModelKey) error {
	if err := s.store.Load(ctx); err != nil {
		return fmt.Errorf("warm: %w", err)
	}
	for _, p := range pairs {
		if _, err := s.model(ctx, p.Commodity, p.Market); err != nil && !errors.Is(err, models.ErrInsufficientData) {
			return fmt.Errorf("warm %s: %w", p, err)
		}
	}
	return nil
}

// PredictFuturePrices forecasts daysAhead days for one pair. A pair without
// enough history yields (nil, nil).
func (s *PriceForecastService) PredictFuturePrices(ctx context.Context, commodity, market string, daysAhead int) (*models.ForecastResult, error) {
	commodity = strings.TrimSpace(commodity)
	market = strings.TrimSpace(market)
	if commodity == "" || market == "" {
		return nil, fmt.Errorf("%w: commodity and market are required", ErrInvalidArgument)
	}
	if daysAhead < 1 {
		return nil, fmt.Errorf("%w: days ahead must be at least 1, got %d", ErrInvalidArgument, daysAhead)
	}
	if s.maxDays > 0 && daysAhead > s.maxDays {
		return nil, fmt.Errorf("%w: days ahead must be at most %d, got %d", ErrInvalidArgument, s.maxDays, daysAhead)
	}

	start := time.Now()
	m, err := s.model(ctx, commodity, market)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			s.metrics.RecordInsufficientData(commodity)
			s.l.Debug("insufficient price history",
				applogger.String("commodity", commodity),
				applogger.String("market", market),
			)
			return nil, nil
		}
		if ctx.Err() == nil {
			s.metrics.RecordError("train")
		}
		return nil, fmt.Errorf("predict future prices: %w", err)
	}

	dates, means, stds := s.forecaster.Forecast(m, daysAhead)
	res := s.summarizer.Summarize(m, dates, means, stds)
	if res == nil {
		return nil, nil
	}
	s.metrics.RecordForecast(commodity, daysAhead, time.Since(start))

	if err := s.publisher.PublishForecast(ctx, res.Event(s.newID())); err != nil {
		s.metrics.RecordError("publish")
		s.l.Warn("forecast publish failed",
			applogger.String("commodity", commodity),
			applogger.String("market", market),
			applogger.Error(err),
		)
	}
	return res, nil
}

// model returns the cached model for a pair, training it at most once even
// when several requests for the same pair arrive together. The shared
// training ignores the cancellation of whichever caller started it; each
// caller stops waiting when its own ctx ends.
func (s *PriceForecastService) model(ctx context.Context, commodity, market string) (*models.TrainedModel, error) {
	key := models.ModelKey{Commodity: commodity, Market: market}
	if m, ok := s.models.Get(key); ok {
		s.metrics.RecordCacheHit("model", true)
		return m, nil
	}
	s.metrics.RecordCacheHit("model", false)

	trainCtx := context.WithoutCancel(ctx)
	flightKey := strings.ToLower(key.String())
	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		if m, ok := s.models.Get(key); ok {
			return m, nil
		}
		m, err := s.trainer.Train(trainCtx, commodity, market)
		if err != nil {
			return nil, err
		}
		s.trainings.Add(1)
		s.models.Set(key, m)
		return m, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.(*models.TrainedModel), nil
	}
}

// Evict drops one pair's cached model so the next query retrains it.
func (s *PriceForecastService) Evict(commodity, market string) {
	s.models.Delete(models.ModelKey{Commodity: commodity, Market: market})
	s.l.Info("model evicted", applogger.String("commodity", commodity), applogger.String("market", market))
}

func (s *PriceForecastService) EvictAll() {
	n := s.models.Len()
	s.models.Flush()
	s.l.Info("model cache cleared", applogger.Int("models", n))
}

// Trainings counts models trained since construction.
func (s *PriceForecastService) Trainings() int64 {
	return s.trainings.Load()
}

// CachedModels reports how many models are currently cached.
func (s *PriceForecastService) CachedModels() int {
	return s.models.Len()
}
