package repository

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"AgriChain/internal/domain/models"
	applogger "AgriChain/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "STATE,District Name,Market Name,Commodity,Min_Price,Max_Price,Modal_Price,Price Date\n"

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// rows renders n daily rows for one pair starting 01-01-2024, newest first
// to make sure the store sorts them.
func rows(market, commodity string, n int, price func(i int) float64) string {
	var b strings.Builder
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := n - 1; i >= 0; i-- {
		p := price(i)
		fmt.Fprintf(&b, "Maharashtra,Nashik, %s ,%s,%.0f,%.0f,%.2f,%s\n",
			market, commodity, p-50, p+50, p, start.AddDate(0, 0, i).Format("02-01-2006"))
	}
	return b.String()
}

func newStore(t *testing.T, body string) *CSVHistoryStore {
	t.Helper()
	s := NewCSVHistoryStore(writeCSV(t, body), DefaultColumns(), 0, applogger.NewNop())
	require.NoError(t, s.Load(context.Background()))
	return s
}

func TestSeriesExactMatch(t *testing.T) {
	s := newStore(t, header+rows("Lasalgaon", "Onion", 35, func(i int) float64 { return 1000 + float64(i) }))

	pts, err := s.Series(context.Background(), "onion", "LASALGAON")
	require.NoError(t, err)
	require.Len(t, pts, 35)
	for i := 1; i < len(pts); i++ {
		assert.True(t, pts[i-1].Date.Before(pts[i].Date))
	}
	assert.Equal(t, 1000.0, pts[0].Price)
	assert.True(t, pts[0].HasSpread)
	assert.Equal(t, 100.0, pts[0].Spread)
}

func TestSeriesFallsBackToMarketBase(t *testing.T) {
	body := header +
		rows("Lasalgaon(Niphad)", "Onion", 20, func(int) float64 { return 900 }) +
		rows("Lasalgaon(Vinchur)", "Onion", 20, func(int) float64 { return 950 })
	s := newStore(t, body)

	pts, err := s.Series(context.Background(), "Onion", "Lasalgaon(Niphad)")
	require.NoError(t, err)
	assert.Len(t, pts, 40)
}

func TestSeriesInsufficient(t *testing.T) {
	s := newStore(t, header+rows("Pune", "Wheat", 10, func(int) float64 { return 2000 }))

	_, err := s.Series(context.Background(), "Wheat", "Pune")
	assert.ErrorIs(t, err, models.ErrInsufficientData)

	_, err = s.Series(context.Background(), "Barley", "Pune")
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}

func TestLoadDropsBadRows(t *testing.T) {
	body := header +
		"MH,Pune,Pune,Wheat,1,2,abc,01-01-2024\n" +
		"MH,Pune,Pune,Wheat,1,2,,01-01-2024\n" +
		"MH,Pune,Pune,Wheat,1,2,2000,not-a-date\n" +
		"MH,Pune,Pune,Wheat,1,2,-5,02-01-2024\n" +
		"MH,Pune,Pune,Wheat,,,2100,03-01-2024\n"
	path := writeCSV(t, body)

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	recs, dropped, err := parsePriceCSV(context.Background(), f, DefaultColumns())
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, 4, dropped)
	assert.Equal(t, "2100", recs[0].Price.String())
	assert.False(t, recs[0].MinPrice.Valid)
	assert.Equal(t, time.Date(2024, time.January, 3, 0, 0, 0, 0, time.UTC), recs[0].Date)
}

func TestLoadFailsFast(t *testing.T) {
	s := NewCSVHistoryStore(filepath.Join(t.TempDir(), "missing.csv"), DefaultColumns(), 0, applogger.NewNop())
	assert.Error(t, s.Load(context.Background()))

	_, err := s.Series(context.Background(), "Wheat", "Pune")
	assert.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrInsufficientData)

	s = NewCSVHistoryStore(writeCSV(t, "Commodity,Market Name\nWheat,Pune\n"), DefaultColumns(), 0, applogger.NewNop())
	assert.ErrorContains(t, s.Load(context.Background()), "missing column")
}

func TestReloadAfterTTL(t *testing.T) {
	path := writeCSV(t, header+rows("Pune", "Wheat", 31, func(int) float64 { return 2000 }))
	now := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	s := NewCSVHistoryStore(path, DefaultColumns(), time.Hour, applogger.NewNop())
	s.now = func() time.Time { return now }

	c, err := s.Commodities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Wheat"}, c)

	require.NoError(t, os.WriteFile(path, []byte(header+rows("Pune", "Rice", 31, func(int) float64 { return 3000 })), 0o644))
	c, _ = s.Commodities(context.Background())
	assert.Equal(t, []string{"Wheat"}, c)

	now = now.Add(2 * time.Hour)
	c, _ = s.Commodities(context.Background())
	assert.Equal(t, []string{"Rice"}, c)
}

func TestCatalog(t *testing.T) {
	body := header +
		rows("Pune", "Wheat", 5, func(i int) float64 { return 2000 + float64(i)*10 }) +
		rows("Nagpur", "Wheat", 3, func(int) float64 { return 2100 }) +
		rows("Pune", "Rice", 2, func(int) float64 { return 3000 })
	s := newStore(t, body)
	ctx := context.Background()

	c, err := s.Commodities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Rice", "Wheat"}, c)

	m, err := s.Markets(ctx, "wheat")
	require.NoError(t, err)
	assert.Equal(t, []string{"Nagpur", "Pune"}, m)

	q, err := s.Quotes(ctx, "Wheat", 2)
	require.NoError(t, err)
	require.Len(t, q, 2)
	assert.Equal(t, "Pune", q[1].Market)
	assert.Equal(t, 2040.0, q[1].LatestPrice)
	assert.Equal(t, 2035.0, q[1].AveragePrice)
	assert.Equal(t, "2024-01-05", q[1].LatestDate)
	assert.Equal(t, 5, q[1].Rows)
}
