package models

import (
	"fmt"
	"math"
)

// Requests for forecast HTTP endpoints.

type ForecastRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Market    string `query:"market" json:"market" validate:"required"`
	// Days of zero means the configured default horizon.
	Days int `query:"days" json:"days" validate:"omitempty,gte=1"`
}

type EvictRequest struct {
	Commodity string `query:"commodity" json:"commodity"`
	Market    string `query:"market" json:"market" validate:"required_with=Commodity"`
}

type MarketsRequest struct {
	Commodity string `query:"commodity" json:"commodity" validate:"required"`
	Recent    int    `query:"recent" json:"recent" default:"7" validate:"gte=1,lte=365"`
}

// InsufficientDataMessage is shown when a pair cannot be forecast.
func InsufficientDataMessage(commodity, market string) string {
	return fmt.Sprintf("not enough price history for %s at %s: at least %d records are required",
		commodity, market, MinHistoryRows)
}

type ForecastPointDTO struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
	Low   float64 `json:"low"`
	High  float64 `json:"high"`
}

type HistoryPointDTO struct {
	Date  string  `json:"date"`
	Price float64 `json:"price"`
}

type ForecastResponse struct {
	Commodity    string             `json:"commodity"`
	Market       string             `json:"market"`
	CurrentPrice float64            `json:"current_price"`
	Predictions  []ForecastPointDTO `json:"predictions"`
	Price7d      float64            `json:"price_7d"`
	Price14d     float64            `json:"price_14d"`
	Price30d     float64            `json:"price_30d"`
	Trend        Trend              `json:"trend"`
	Confidence   float64            `json:"confidence"`
	History      []HistoryPointDTO  `json:"history"`
	DataPoints   int                `json:"data_points"`
	TrainingRows int                `json:"training_rows"`
}

// NewForecastResponse renders a result the way the dashboard displays it:
// whole currency units, "Jan 02, 2006" forecast dates and "Jan 02" history dates.
func NewForecastResponse(r *ForecastResult) *ForecastResponse {
	out := &ForecastResponse{
		Commodity:    r.Commodity,
		Market:       r.Market,
		CurrentPrice: math.Round(r.CurrentPrice),
		Predictions:  make([]ForecastPointDTO, 0, len(r.Predictions)),
		Price7d:      math.Round(r.Price7d),
		Price14d:     math.Round(r.Price14d),
		Price30d:     math.Round(r.Price30d),
		Trend:        r.Trend,
		Confidence:   r.Confidence,
		History:      make([]HistoryPointDTO, 0, len(r.History)),
		DataPoints:   r.DataPoints,
		TrainingRows: r.TrainingRows,
	}
	for _, p := range r.Predictions {
		out.Predictions = append(out.Predictions, ForecastPointDTO{
			Date:  p.Date.Format("Jan 02, 2006"),
			Price: math.Round(p.Price),
			Low:   math.Round(p.Low),
			High:  math.Round(p.High),
		})
	}
	for _, h := range r.History {
		out.History = append(out.History, HistoryPointDTO{
			Date:  h.Date.Format("Jan 02"),
			Price: math.Round(h.Price),
		})
	}
	return out
}
