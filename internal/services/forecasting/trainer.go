package forecasting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	domsvc "AgriChain/internal/domain/service"
	"AgriChain/internal/services/features"
	"AgriChain/pkg/forest"
	applogger "AgriChain/pkg/logger"
)

// DefaultTailSize is how many of the latest feature rows a model keeps.
const DefaultTailSize = 60

var _ domsvc.ModelTrainer = (*Trainer)(nil)

// Trainer fits a scaler and a random forest on one pair's feature rows.
type Trainer struct {
	store    domrepo.HistoryStore
	forest   forest.Config
	tailSize int
	metrics  domrepo.Metrics
	l        *applogger.Logger
}

type TrainerOption func(*Trainer)

// WithForestConfig overrides the regressor hyperparameters.
func WithForestConfig(cfg forest.Config) TrainerOption {
	return func(t *Trainer) { t.forest = cfg }
}

func WithTailSize(n int) TrainerOption {
	return func(t *Trainer) {
		if n > 0 {
			t.tailSize = n
		}
	}
}

func NewTrainer(store domrepo.HistoryStore, metrics domrepo.Metrics, l *applogger.Logger, opts ...TrainerOption) *Trainer {
	t := &Trainer{
		store:    store,
		forest:   forest.DefaultConfig(),
		tailSize: DefaultTailSize,
		metrics:  metrics,
		l:        l,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Train returns models.ErrInsufficientData when the pair has fewer than
// models.MinHistoryRows observations or fewer than models.MinFeatureRows
// rows after the feature warmup.
func (t *Trainer) Train(ctx context.Context, commodity, market string) (*models.TrainedModel, error) {
	start := time.Now()

	series, err := t.store.Series(ctx, commodity, market)
	if err != nil {
		if errors.Is(err, models.ErrInsufficientData) {
			return nil, err
		}
		return nil, fmt.Errorf("load series: %w", err)
	}
	if len(series) < models.MinHistoryRows {
		return nil, models.ErrInsufficientData
	}

	rows := features.Build(series)
	if len(rows) < models.MinFeatureRows {
		t.l.Debug("too few feature rows",
			applogger.String("commodity", commodity),
			applogger.String("market", market),
			applogger.Int("series", len(series)),
			applogger.Int("rows", len(rows)),
		)
		return nil, models.ErrInsufficientData
	}

	X, y := features.Matrix(rows)
	scaler, err := forest.FitStandardScaler(X)
	if err != nil {
		return nil, fmt.Errorf("fit scaler: %w", err)
	}
	f, err := forest.Fit(ctx, scaler.TransformAll(X), y, t.forest)
	if err != nil {
		return nil, err
	}

	tailFrom := max(0, len(rows)-t.tailSize)
	tail := append([]models.FeatureRow(nil), rows[tailFrom:]...)

	elapsed := time.Since(start)
	t.metrics.RecordTraining(commodity, len(rows), elapsed)
	t.l.Info("model trained",
		applogger.String("commodity", commodity),
		applogger.String("market", market),
		applogger.Int("rows", len(rows)),
		applogger.Int("trees", f.NumTrees()),
		applogger.Duration("duration_ms", elapsed),
	)

	return &models.TrainedModel{
		Commodity:    commodity,
		Market:       market,
		Scaler:       scaler,
		Forest:       f,
		Tail:         tail,
		TrainingRows: len(rows),
		TrainedAt:    time.Now(),
	}, nil
}
