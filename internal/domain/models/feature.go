package models

import (
	"time"

	"AgriChain/pkg/forest"
)

// Feature column positions. The order is part of the model contract:
// the scaler and every tree index features by these positions.
const (
	FeatDayOfYear = iota
	FeatMonth
	FeatDayOfWeek
	FeatWeekOfYear
	FeatTrend
	FeatLag7
	FeatLag14
	FeatLag30
	FeatRollMean7
	FeatRollStd7
	FeatRollMean14
	FeatRollMean30
	FeatMomentum7
	FeatMomentum14
	FeatPriceSpread

	FeatureCount
)

var FeatureNames = [FeatureCount]string{
	"day_of_year", "month", "day_of_week", "week_of_year", "trend",
	"lag_7", "lag_14", "lag_30",
	"roll_mean_7", "roll_std_7", "roll_mean_14", "roll_mean_30",
	"momentum_7", "momentum_14", "price_spread",
}

// FeatureRow is a fully-populated training row; rows with any undefined lag
// or window are never materialized.
type FeatureRow struct {
	Date   time.Time
	Price  float64
	Values [FeatureCount]float64
}

// TrainedModel is everything needed to forecast one (commodity, market) pair.
type TrainedModel struct {
	Commodity    string
	Market       string
	Scaler       *forest.StandardScaler
	Forest       *forest.Forest
	Tail         []FeatureRow
	TrainingRows int
	TrainedAt    time.Time
}

// LastRow is the most recent tail row.
func (m *TrainedModel) LastRow() FeatureRow {
	return m.Tail[len(m.Tail)-1]
}

// ModelKey identifies a cached model. Names are compared case-insensitively.
type ModelKey struct {
	Commodity string
	Market    string
}

func (k ModelKey) String() string {
	return k.Commodity + "|" + k.Market
}
