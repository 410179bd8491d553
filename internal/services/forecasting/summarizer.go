package forecasting

import (
	"math"
	"time"

	"AgriChain/internal/domain/models"
	domsvc "AgriChain/internal/domain/service"
	"AgriChain/internal/services/features"
	"AgriChain/pkg/forest"
)

const (
	bandZ          = 1.96
	trendThreshold = 0.02
	historyWindow  = 30
	minConfidence  = 50.0
	maxConfidence  = 99.0
)

var _ domsvc.Summarizer = (*Summarizer)(nil)

type Summarizer struct {
	now func() time.Time
}

func NewSummarizer(now func() time.Time) *Summarizer {
	if now == nil {
		now = time.Now
	}
	return &Summarizer{now: now}
}

// Summarize returns nil for a nil model.
func (s *Summarizer) Summarize(m *models.TrainedModel, dates []time.Time, means, stds []float64) *models.ForecastResult {
	if m == nil || len(m.Tail) == 0 {
		return nil
	}

	current := m.LastRow().Price
	res := &models.ForecastResult{
		Commodity:    m.Commodity,
		Market:       m.Market,
		CurrentPrice: current,
		Predictions:  make([]models.ForecastPoint, len(means)),
		Confidence:   Confidence(m),
		DataPoints:   len(m.Tail),
		TrainingRows: m.TrainingRows,
		GeneratedAt:  s.now(),
	}

	for i, mean := range means {
		res.Predictions[i] = models.ForecastPoint{
			Date:  dates[i],
			Price: mean,
			Low:   math.Max(mean-bandZ*stds[i], 0),
			High:  mean + bandZ*stds[i],
		}
	}

	res.Price7d = horizon(means, 7, current)
	res.Price14d = horizon(means, 14, current)
	res.Price30d = horizon(means, 30, current)
	res.Trend = TrendOf(current, res.Price7d)

	hist := m.Tail[max(0, len(m.Tail)-historyWindow):]
	res.History = make([]models.HistoryPoint, len(hist))
	for i, r := range hist {
		res.History[i] = models.HistoryPoint{Date: r.Date, Price: r.Price}
	}
	return res
}

// horizon picks the prediction for day n, or the last one when the forecast
// is shorter than n days.
func horizon(means []float64, n int, fallback float64) float64 {
	if len(means) == 0 {
		return fallback
	}
	return means[min(n-1, len(means)-1)]
}

// TrendOf labels the move from current to the day-7 price with a 2% band.
func TrendOf(current, price7d float64) models.Trend {
	switch {
	case price7d > current*(1+trendThreshold):
		return models.TrendUp
	case price7d < current*(1-trendThreshold):
		return models.TrendDown
	default:
		return models.TrendStable
	}
}

// Confidence is the forest's R² on its own tail rows, as a percentage clamped
// to [50, 99] and rounded to one decimal. It is an in-sample fit score, not a
// measure of forecast accuracy.
func Confidence(m *models.TrainedModel) float64 {
	X, y := features.Matrix(m.Tail)
	pred := m.Forest.PredictAll(m.Scaler.TransformAll(X))
	c := forest.R2(y, pred) * 100
	c = math.Min(math.Max(c, minConfidence), maxConfidence)
	return math.Round(c*10) / 10
}
