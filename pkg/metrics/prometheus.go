package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	trainings     *prometheus.CounterVec
	trainingRows  *prometheus.GaugeVec
	trainLatency  *prometheus.HistogramVec
	forecasts     *prometheus.CounterVec
	forecastDays  *prometheus.HistogramVec
	fcLatency     *prometheus.HistogramVec
	insufficient  *prometheus.CounterVec
	cacheRequests *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
}

// New registers the recorder's collectors with reg (the default registry when nil).
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Recorder{
		trainings: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrichain_model_trainings_total",
				Help: "Total number of models trained",
			},
			[]string{"commodity"},
		),
		trainingRows: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "agrichain_model_training_rows",
				Help: "Feature rows used by the latest training of a commodity",
			},
			[]string{"commodity"},
		),
		trainLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agrichain_model_training_seconds",
				Help:    "Duration of model training in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"commodity"},
		),
		forecasts: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrichain_forecasts_total",
				Help: "Total number of forecasts produced",
			},
			[]string{"commodity"},
		),
		forecastDays: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agrichain_forecast_days",
				Help:    "Requested forecast horizon in days",
				Buckets: []float64{1, 7, 14, 30, 60, 90},
			},
			[]string{"commodity"},
		),
		fcLatency: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agrichain_forecast_seconds",
				Help:    "Duration of forecast generation in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"commodity"},
		),
		insufficient: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrichain_insufficient_data_total",
				Help: "Forecast requests without enough history",
			},
			[]string{"commodity"},
		),
		cacheRequests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrichain_cache_requests_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
		errorsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agrichain_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
	}
}

func (r *Recorder) RecordTraining(commodity string, rows int, d time.Duration) {
	r.trainings.WithLabelValues(commodity).Inc()
	r.trainingRows.WithLabelValues(commodity).Set(float64(rows))
	r.trainLatency.WithLabelValues(commodity).Observe(d.Seconds())
}

func (r *Recorder) RecordForecast(commodity string, days int, d time.Duration) {
	r.forecasts.WithLabelValues(commodity).Inc()
	r.forecastDays.WithLabelValues(commodity).Observe(float64(days))
	r.fcLatency.WithLabelValues(commodity).Observe(d.Seconds())
}

func (r *Recorder) RecordInsufficientData(commodity string) {
	r.insufficient.WithLabelValues(commodity).Inc()
}

func (r *Recorder) RecordCacheHit(cache string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheRequests.WithLabelValues(cache, result).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordTraining(string, int, time.Duration) {}
func (Nop) RecordForecast(string, int, time.Duration) {}
func (Nop) RecordInsufficientData(string)             {}
func (Nop) RecordCacheHit(string, bool)               {}
func (Nop) RecordError(string)                        {}
