package models

import "time"

type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ForecastPoint is one predicted day with its uncertainty band.
type ForecastPoint struct {
	Date  time.Time
	Price float64
	Low   float64
	High  float64
}

// HistoryPoint is an observed price shown next to the forecast.
type HistoryPoint struct {
	Date  time.Time
	Price float64
}

type ForecastResult struct {
	Commodity    string
	Market       string
	CurrentPrice float64
	Predictions  []ForecastPoint
	Price7d      float64
	Price14d     float64
	Price30d     float64
	Trend        Trend
	Confidence   float64
	History      []HistoryPoint
	// DataPoints is the tail length the confidence is scored on;
	// TrainingRows is every feature row the forest was fitted on.
	DataPoints   int
	TrainingRows int
	GeneratedAt  time.Time
}

// ForecastEvent is the compact summary published after each forecast.
type ForecastEvent struct {
	ID           string    `json:"id"`
	Commodity    string    `json:"commodity"`
	Market       string    `json:"market"`
	CurrentPrice float64   `json:"current_price"`
	Price7d      float64   `json:"price_7d"`
	Price14d     float64   `json:"price_14d"`
	Price30d     float64   `json:"price_30d"`
	Trend        Trend     `json:"trend"`
	Confidence   float64   `json:"confidence"`
	Days         int       `json:"days"`
	GeneratedAt  time.Time `json:"generated_at"`
}

// Event builds the published summary of a result.
func (r *ForecastResult) Event(id string) ForecastEvent {
	return ForecastEvent{
		ID:           id,
		Commodity:    r.Commodity,
		Market:       r.Market,
		CurrentPrice: r.CurrentPrice,
		Price7d:      r.Price7d,
		Price14d:     r.Price14d,
		Price30d:     r.Price30d,
		Trend:        r.Trend,
		Confidence:   r.Confidence,
		Days:         len(r.Predictions),
		GeneratedAt:  r.GeneratedAt,
	}
}
