package features

import (
	"sort"
	"time"

	"AgriChain/internal/domain/models"
	"AgriChain/pkg/util"

	"gonum.org/v1/gonum/stat"
)

// Lags and windows in rows, not calendar days: a series with gaps still
// looks back a fixed number of observations.
var (
	Lags    = [...]int{7, 14, 30}
	Windows = [...]int{7, 14, 30}
)

// Warmup is how many leading rows never receive a full feature vector.
const Warmup = 30

// Build turns a price series into model rows. The series is re-sorted by date
// (stable), and exactly the first Warmup rows are dropped, so the output has
// max(0, len(series)-Warmup) rows.
func Build(series []models.PricePoint) []models.FeatureRow {
	pts := append([]models.PricePoint(nil), series...)
	sort.SliceStable(pts, func(i, j int) bool { return pts[i].Date.Before(pts[j].Date) })

	if len(pts) <= Warmup {
		return nil
	}

	prices := make([]float64, len(pts))
	for i, p := range pts {
		prices[i] = p.Price
	}

	out := make([]models.FeatureRow, 0, len(pts)-Warmup)
	for i := Warmup; i < len(pts); i++ {
		p := pts[i]
		row := models.FeatureRow{Date: p.Date, Price: p.Price}
		v := &row.Values

		setCalendar(v, p.Date, float64(i))

		v[models.FeatLag7] = prices[i-7]
		v[models.FeatLag14] = prices[i-14]
		v[models.FeatLag30] = prices[i-30]

		w7 := trailing(prices[:i+1], 7)
		v[models.FeatRollMean7] = stat.Mean(w7, nil)
		v[models.FeatRollStd7] = sampleStd(w7)
		v[models.FeatRollMean14] = stat.Mean(trailing(prices[:i+1], 14), nil)
		v[models.FeatRollMean30] = stat.Mean(trailing(prices[:i+1], 30), nil)
		v[models.FeatMomentum7] = p.Price - v[models.FeatRollMean7]
		v[models.FeatMomentum14] = p.Price - v[models.FeatRollMean14]

		if p.HasSpread {
			v[models.FeatPriceSpread] = p.Spread
		}
		out = append(out, row)
	}
	return out
}

// Step builds the feature vector for one forecast day from the running price
// buffer (observed tail prices followed by earlier predictions). Lags reach
// back by position and fall back to the latest value when the buffer is short.
// The rolling std here is the population form, zero below two values.
func Step(buf []float64, date time.Time, trend, spread float64) [models.FeatureCount]float64 {
	var v [models.FeatureCount]float64
	setCalendar(&v, date, trend)

	last := buf[len(buf)-1]
	lag := func(k int) float64 {
		if len(buf) >= k {
			return buf[len(buf)-k]
		}
		return last
	}
	v[models.FeatLag7] = lag(7)
	v[models.FeatLag14] = lag(14)
	v[models.FeatLag30] = lag(30)

	w7 := trailing(buf, 7)
	v[models.FeatRollMean7] = stat.Mean(w7, nil)
	if len(w7) >= 2 {
		_, v[models.FeatRollStd7] = stat.PopMeanStdDev(w7, nil)
	}
	v[models.FeatRollMean14] = stat.Mean(trailing(buf, 14), nil)
	v[models.FeatRollMean30] = stat.Mean(trailing(buf, 30), nil)
	v[models.FeatMomentum7] = last - v[models.FeatRollMean7]
	v[models.FeatMomentum14] = last - v[models.FeatRollMean14]
	v[models.FeatPriceSpread] = spread
	return v
}

func setCalendar(v *[models.FeatureCount]float64, d time.Time, trend float64) {
	v[models.FeatDayOfYear] = float64(d.YearDay())
	v[models.FeatMonth] = float64(d.Month())
	v[models.FeatDayOfWeek] = float64(util.WeekdayMondayFirst(d))
	v[models.FeatWeekOfYear] = float64(util.ISOWeek(d))
	v[models.FeatTrend] = trend
}

func trailing(xs []float64, w int) []float64 {
	if len(xs) <= w {
		return xs
	}
	return xs[len(xs)-w:]
}

func sampleStd(xs []float64) float64 {
	if len(xs) < 2 {
		return 0
	}
	return stat.StdDev(xs, nil)
}

// Matrix splits rows into the design matrix and target vector.
func Matrix(rows []models.FeatureRow) ([][]float64, []float64) {
	X := make([][]float64, len(rows))
	y := make([]float64, len(rows))
	for i := range rows {
		X[i] = rows[i].Values[:]
		y[i] = rows[i].Price
	}
	return X, y
}
