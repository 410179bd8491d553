package forecasting

import (
	"time"

	"AgriChain/internal/domain/models"
	domsvc "AgriChain/internal/domain/service"
	"AgriChain/internal/services/features"
	"AgriChain/pkg/util"
)

var _ domsvc.Forecaster = Forecaster{}

// Forecaster produces day-by-day predictions, feeding each day's ensemble
// mean back into the price buffer used for the next day's features.
type Forecaster struct{}

// forecastDay is one step of the walk: the features fed to the forest and
// the ensemble's answer.
type forecastDay struct {
	date      time.Time
	x         [models.FeatureCount]float64
	mean, std float64
}

func (f Forecaster) Forecast(m *models.TrainedModel, daysAhead int) ([]time.Time, []float64, []float64) {
	steps := f.walk(m, daysAhead)
	if len(steps) == 0 {
		return nil, nil, nil
	}
	dates := make([]time.Time, len(steps))
	means := make([]float64, len(steps))
	stds := make([]float64, len(steps))
	for i, s := range steps {
		dates[i], means[i], stds[i] = s.date, s.mean, s.std
	}
	return dates, means, stds
}

func (Forecaster) walk(m *models.TrainedModel, daysAhead int) []forecastDay {
	if m == nil || len(m.Tail) == 0 || daysAhead <= 0 {
		return nil
	}

	last := m.LastRow()
	buf := make([]float64, 0, len(m.Tail)+daysAhead)
	for _, r := range m.Tail {
		buf = append(buf, r.Price)
	}
	trend := last.Values[models.FeatTrend]
	// no future min/max is known, so the last observed spread is held
	spread := last.Values[models.FeatPriceSpread]

	out := make([]forecastDay, 0, daysAhead)
	for i := 1; i <= daysAhead; i++ {
		d := util.AddDays(last.Date, i)
		x := features.Step(buf, d, trend+float64(i), spread)
		mean, std := m.Forest.PredictSpread(m.Scaler.Transform(x[:]))

		out = append(out, forecastDay{date: d, x: x, mean: mean, std: std})
		buf = append(buf, mean)
	}
	return out
}
