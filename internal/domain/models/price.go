package models

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

// MinHistoryRows is the fewest observations a (commodity, market) pair needs
// before a model is trained for it.
const MinHistoryRows = 30

// MinFeatureRows is the fewest fully-featured rows the trainer accepts.
const MinFeatureRows = 20

// ErrInsufficientData marks a pair without enough history to forecast.
// It is a recoverable state, never a failure.
var ErrInsufficientData = errors.New("insufficient price history")

// PriceRecord is one cleaned row of the mandi price table.
type PriceRecord struct {
	Commodity string
	Market    string
	Date      time.Time
	Price     decimal.Decimal
	MinPrice  decimal.NullDecimal
	MaxPrice  decimal.NullDecimal
}

// Spread is max - min when both bounds were reported.
func (r PriceRecord) Spread() (float64, bool) {
	if !r.MinPrice.Valid || !r.MaxPrice.Valid {
		return 0, false
	}
	return r.MaxPrice.Decimal.Sub(r.MinPrice.Decimal).InexactFloat64(), true
}

// Point converts the record into the float form the model works on.
func (r PriceRecord) Point() PricePoint {
	spread, ok := r.Spread()
	return PricePoint{
		Date:      r.Date,
		Price:     r.Price.InexactFloat64(),
		Spread:    spread,
		HasSpread: ok,
	}
}

// PricePoint is one observation of a single commodity/market series.
type PricePoint struct {
	Date      time.Time
	Price     float64
	Spread    float64
	HasSpread bool
}

// MarketQuote summarizes a market's recent prices for catalog listings.
type MarketQuote struct {
	Market       string  `json:"market"`
	LatestPrice  float64 `json:"latest_price"`
	AveragePrice float64 `json:"average_price"`
	LatestDate   string  `json:"latest_date"`
	Rows         int     `json:"rows"`
}
