package service

import (
	"context"
	"time"

	"AgriChain/internal/domain/models"
)

// ModelTrainer fits a model for one (commodity, market) pair.
type ModelTrainer interface {
	Train(ctx context.Context, commodity, market string) (*models.TrainedModel, error)
}

// Forecaster walks a trained model forward day by day.
type Forecaster interface {
	Forecast(m *models.TrainedModel, daysAhead int) (dates []time.Time, means, stds []float64)
}

// Summarizer turns raw per-day predictions into a ForecastResult.
type Summarizer interface {
	Summarize(m *models.TrainedModel, dates []time.Time, means, stds []float64) *models.ForecastResult
}

// PriceForecaster is the query surface used by the HTTP and CLI front ends.
type PriceForecaster interface {
	PredictFuturePrices(ctx context.Context, commodity, market string, daysAhead int) (*models.ForecastResult, error)
	Evict(commodity, market string)
	EvictAll()
}
