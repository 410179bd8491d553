package repository

import (
	"context"
	"time"

	"AgriChain/internal/domain/models"
)

// HistoryStore serves cleaned price history.
type HistoryStore interface {
	// Load (re)reads the source table. A missing or unreadable source is an error.
	Load(ctx context.Context) error
	// Series returns the date-ordered observations of one pair, or
	// models.ErrInsufficientData when fewer than models.MinHistoryRows exist.
	Series(ctx context.Context, commodity, market string) ([]models.PricePoint, error)
	Commodities(ctx context.Context) ([]string, error)
	Markets(ctx context.Context, commodity string) ([]string, error)
	// Quotes summarizes each market of commodity from its latest rows.
	Quotes(ctx context.Context, commodity string, recent int) ([]models.MarketQuote, error)
	Close() error
}

// ModelCache holds trained models keyed by (commodity, market).
type ModelCache interface {
	Get(key models.ModelKey) (*models.TrainedModel, bool)
	Set(key models.ModelKey, m *models.TrainedModel)
	Delete(key models.ModelKey)
	Flush()
	Len() int
}

// ForecastPublisher emits forecast summaries to downstream consumers.
type ForecastPublisher interface {
	PublishForecast(ctx context.Context, ev models.ForecastEvent) error
	Close() error
}

type Metrics interface {
	RecordTraining(commodity string, rows int, d time.Duration)
	RecordForecast(commodity string, days int, d time.Duration)
	RecordInsufficientData(commodity string)
	RecordCacheHit(cache string, hit bool)
	RecordError(kind string)
}
