package forecasting

import (
	"context"
	"testing"

	"AgriChain/internal/domain/models"
	"AgriChain/internal/services/features"
	applogger "AgriChain/pkg/logger"
	"AgriChain/pkg/metrics"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTrainer(store *fakeStore) *Trainer {
	return NewTrainer(store, metrics.Nop{}, applogger.NewNop())
}

func forecast(t *testing.T, store *fakeStore, commodity, market string, days int) (*models.TrainedModel, *models.ForecastResult) {
	t.Helper()
	m, err := newTrainer(store).Train(context.Background(), commodity, market)
	require.NoError(t, err)
	dates, means, stds := Forecaster{}.Forecast(m, days)
	return m, NewSummarizer(nil).Summarize(m, dates, means, stds)
}

func TestTrainInsufficientData(t *testing.T) {
	store := newFakeStore()
	store.add("Wheat", "Pune", rising(10, 100, 0.01))
	store.add("Rice", "Pune", rising(40, 100, 0.01))

	for _, c := range []string{"Wheat", "Rice", "Maize"} {
		t.Run(c, func(t *testing.T) {
			m, err := newTrainer(store).Train(context.Background(), c, "Pune")
			assert.ErrorIs(t, err, models.ErrInsufficientData)
			assert.Nil(t, m)
		})
	}
}

func TestTrainKeepsTail(t *testing.T) {
	store := newFakeStore()
	store.add("Onion", "Lasalgaon", rising(120, 1000, 0.002))

	m, err := newTrainer(store).Train(context.Background(), "Onion", "Lasalgaon")
	require.NoError(t, err)
	assert.Equal(t, 90, m.TrainingRows)
	require.Len(t, m.Tail, DefaultTailSize)
	assert.Equal(t, day0.AddDate(0, 0, 119), m.LastRow().Date)
	assert.Equal(t, 119.0, m.LastRow().Values[models.FeatTrend])
	assert.Equal(t, models.FeatureCount, m.Forest.NumFeatures())
}

func TestTrainWithFewRowsKeepsAllAsTail(t *testing.T) {
	store := newFakeStore()
	store.add("Onion", "Pune", rising(55, 1000, 0.002))

	m, err := newTrainer(store).Train(context.Background(), "Onion", "Pune")
	require.NoError(t, err)
	assert.Len(t, m.Tail, 25)
}

func TestForecastShapeAndBands(t *testing.T) {
	store := newFakeStore()
	store.add("Tomato", "Kolar", rising(100, 800, 0.005))

	_, res := forecast(t, store, "Tomato", "Kolar", 30)
	require.NotNil(t, res)
	require.Len(t, res.Predictions, 30)

	last := day0.AddDate(0, 0, 99)
	for i, p := range res.Predictions {
		assert.Equal(t, last.AddDate(0, 0, i+1), p.Date)
		assert.LessOrEqual(t, p.Low, p.Price)
		assert.LessOrEqual(t, p.Price, p.High)
		assert.GreaterOrEqual(t, p.Low, 0.0)
	}
	assert.Equal(t, res.Predictions[6].Price, res.Price7d)
	assert.Equal(t, res.Predictions[13].Price, res.Price14d)
	assert.Equal(t, res.Predictions[29].Price, res.Price30d)
	assert.Len(t, res.History, 30)
	assert.Equal(t, 60, res.DataPoints)
	assert.Equal(t, 70, res.TrainingRows)
	assert.GreaterOrEqual(t, res.Confidence, 50.0)
	assert.LessOrEqual(t, res.Confidence, 99.0)
}

func TestForecastZeroDays(t *testing.T) {
	store := newFakeStore()
	store.add("Tomato", "Kolar", rising(80, 800, 0.005))
	m, err := newTrainer(store).Train(context.Background(), "Tomato", "Kolar")
	require.NoError(t, err)

	dates, means, stds := Forecaster{}.Forecast(m, 0)
	assert.Empty(t, dates)
	assert.Empty(t, means)
	assert.Empty(t, stds)
}

func TestForecastFirstDayUsesObservedLags(t *testing.T) {
	store := newFakeStore()
	store.add("Potato", "Agra", rising(90, 500, 0.003))
	m, err := newTrainer(store).Train(context.Background(), "Potato", "Agra")
	require.NoError(t, err)

	_, means, stds := Forecaster{}.Forecast(m, 1)
	require.Len(t, means, 1)

	prices := make([]float64, len(m.Tail))
	for i, r := range m.Tail {
		prices[i] = r.Price
	}
	last := m.LastRow()
	x := features.Step(prices, last.Date.AddDate(0, 0, 1), last.Values[models.FeatTrend]+1, 0)
	assert.Equal(t, prices[len(prices)-7], x[models.FeatLag7])
	assert.Equal(t, prices[len(prices)-30], x[models.FeatLag30])

	mean, std := m.Forest.PredictSpread(m.Scaler.Transform(x[:]))
	assert.Equal(t, mean, means[0])
	assert.Equal(t, std, stds[0])
}

func TestForecastFeedsMeansBackAndHoldsSpread(t *testing.T) {
	store := newFakeStore()
	prices := rising(90, 500, 0.003)
	spreads := make([]float64, len(prices))
	for i := range spreads {
		spreads[i] = 40 + float64(i%5)*10
	}
	store.addWithSpread("Onion", "Lasalgaon", prices, spreads)
	m, err := newTrainer(store).Train(context.Background(), "Onion", "Lasalgaon")
	require.NoError(t, err)

	last := m.LastRow()
	lastSpread := last.Values[models.FeatPriceSpread]
	require.Equal(t, spreads[len(spreads)-1], lastSpread)
	require.NotZero(t, lastSpread)

	tailPrices := make([]float64, len(m.Tail))
	for i, r := range m.Tail {
		tailPrices[i] = r.Price
	}

	const days = 10
	steps := Forecaster{}.walk(m, days)
	require.Len(t, steps, days)
	means := make([]float64, days)
	for i, s := range steps {
		means[i] = s.mean
	}

	for i, s := range steps {
		buf := append(append([]float64(nil), tailPrices...), means[:i]...)
		want := features.Step(buf, last.Date.AddDate(0, 0, i+1), last.Values[models.FeatTrend]+float64(i+1), lastSpread)
		assert.Equal(t, want, s.x, "day %d features", i+1)
		assert.Equal(t, lastSpread, s.x[models.FeatPriceSpread], "day %d spread", i+1)

		mean, std := m.Forest.PredictSpread(m.Scaler.Transform(want[:]))
		assert.Equal(t, mean, s.mean, "day %d mean", i+1)
		assert.Equal(t, std, s.std, "day %d std", i+1)
	}

	// day 2 rolls over the first prediction
	n := len(tailPrices)
	window := append(append([]float64(nil), tailPrices[n-6:]...), means[0])
	var sum float64
	for _, p := range window {
		sum += p
	}
	assert.InDelta(t, sum/7, steps[1].x[models.FeatRollMean7], 1e-9)
	assert.InDelta(t, means[0]-sum/7, steps[1].x[models.FeatMomentum7], 1e-9)
	// day 8 looks back seven positions to the first prediction
	assert.Equal(t, means[0], steps[7].x[models.FeatLag7])

	_, fm, fs := Forecaster{}.Forecast(m, days)
	assert.Equal(t, means, fm)
	for i, s := range steps {
		assert.Equal(t, s.std, fs[i])
	}
}

func TestForecastIsRepeatable(t *testing.T) {
	store := newFakeStore()
	store.add("Soyabean", "Indore", rising(100, 4000, 0.004))

	m1, err := newTrainer(store).Train(context.Background(), "Soyabean", "Indore")
	require.NoError(t, err)
	m2, err := newTrainer(store).Train(context.Background(), "Soyabean", "Indore")
	require.NoError(t, err)

	_, a, _ := Forecaster{}.Forecast(m1, 14)
	_, b, _ := Forecaster{}.Forecast(m1, 14)
	_, c, _ := Forecaster{}.Forecast(m2, 14)
	assert.Equal(t, a, b)
	assert.Equal(t, a, c)
}

func TestFlatHistoryIsStable(t *testing.T) {
	store := newFakeStore()
	store.add("Wheat", "Pune", flat(80, 100))

	_, res := forecast(t, store, "Wheat", "Pune", 30)
	assert.Equal(t, models.TrendStable, res.Trend)
	assert.Equal(t, 99.0, res.Confidence)
	for _, p := range res.Predictions {
		assert.Equal(t, 100.0, p.Price)
		assert.Equal(t, 100.0, p.Low)
		assert.Equal(t, 100.0, p.High)
	}
}

func TestRisingHistoryNeverForecastsAboveCurrent(t *testing.T) {
	store := newFakeStore()
	store.add("Wheat", "Pune", rising(90, 100, 0.01))

	_, res := forecast(t, store, "Wheat", "Pune", 7)
	for _, p := range res.Predictions {
		assert.LessOrEqual(t, p.Price, res.CurrentPrice*(1+1e-9))
	}
	assert.NotEqual(t, models.TrendUp, res.Trend)
}

func TestSharpDipForecastsRecovery(t *testing.T) {
	store := newFakeStore()
	store.add("Wheat", "Pune", dip(80))

	_, res := forecast(t, store, "Wheat", "Pune", 7)
	require.Len(t, res.Predictions, 7)
	assert.Equal(t, 80.0, res.CurrentPrice)
	assert.Equal(t, models.TrendUp, res.Trend)
	assert.GreaterOrEqual(t, res.Confidence, 50.0)
	assert.LessOrEqual(t, res.Confidence, 99.0)
	for i := 1; i < len(res.Predictions); i++ {
		assert.True(t, res.Predictions[i-1].Date.Before(res.Predictions[i].Date))
	}
}

func TestShortForecastClampsHorizons(t *testing.T) {
	store := newFakeStore()
	store.add("Wheat", "Pune", rising(70, 100, 0.002))

	_, res := forecast(t, store, "Wheat", "Pune", 3)
	require.Len(t, res.Predictions, 3)
	assert.Equal(t, res.Predictions[2].Price, res.Price7d)
	assert.Equal(t, res.Predictions[2].Price, res.Price14d)
	assert.Equal(t, res.Predictions[2].Price, res.Price30d)
}

func TestSummarizeNilModel(t *testing.T) {
	assert.Nil(t, NewSummarizer(nil).Summarize(nil, nil, nil, nil))
}

func TestTrendOf(t *testing.T) {
	cases := []struct {
		current, p7 float64
		want        models.Trend
	}{
		{100, 102.5, models.TrendUp},
		{100, 101.9, models.TrendStable},
		{100, 98.1, models.TrendStable},
		{100, 97.9, models.TrendDown},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, TrendOf(c.current, c.p7), "%v -> %v", c.current, c.p7)
	}
}
