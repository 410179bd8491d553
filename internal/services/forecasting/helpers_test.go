package forecasting

import (
	"context"
	"time"

	"AgriChain/internal/domain/models"
)

var day0 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

type fakeStore struct {
	series map[models.ModelKey][]models.PricePoint
	calls  int
}

func newFakeStore() *fakeStore {
	return &fakeStore{series: make(map[models.ModelKey][]models.PricePoint)}
}

func (s *fakeStore) add(commodity, market string, prices []float64) {
	pts := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: p}
	}
	s.series[models.ModelKey{Commodity: commodity, Market: market}] = pts
}

// addWithSpread stores a series whose rows carry a max-min spread.
func (s *fakeStore) addWithSpread(commodity, market string, prices, spreads []float64) {
	pts := make([]models.PricePoint, len(prices))
	for i, p := range prices {
		pts[i] = models.PricePoint{Date: day0.AddDate(0, 0, i), Price: p, Spread: spreads[i], HasSpread: true}
	}
	s.series[models.ModelKey{Commodity: commodity, Market: market}] = pts
}

func (s *fakeStore) Load(context.Context) error { return nil }

func (s *fakeStore) Series(_ context.Context, commodity, market string) ([]models.PricePoint, error) {
	s.calls++
	pts := s.series[models.ModelKey{Commodity: commodity, Market: market}]
	if len(pts) < models.MinHistoryRows {
		return nil, models.ErrInsufficientData
	}
	return pts, nil
}

func (s *fakeStore) Commodities(context.Context) ([]string, error)     { return nil, nil }
func (s *fakeStore) Markets(context.Context, string) ([]string, error) { return nil, nil }
func (s *fakeStore) Close() error                                      { return nil }

func (s *fakeStore) Quotes(context.Context, string, int) ([]models.MarketQuote, error) {
	return nil, nil
}

func flat(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func rising(n int, start, rate float64) []float64 {
	out := make([]float64, n)
	p := start
	for i := range out {
		out[i] = p
		p *= 1 + rate
	}
	return out
}

// dip is a long flat history that drops sharply on its final day.
func dip(n int) []float64 {
	out := flat(n, 100)
	out[n-1] = 80
	return out
}
