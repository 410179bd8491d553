package di

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"AgriChain/internal/domain/models"
	internalrepo "AgriChain/internal/repository"
	"AgriChain/pkg/config"
	applogger "AgriChain/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	var b strings.Builder
	b.WriteString("Market Name,Commodity,Min_Price,Max_Price,Modal_Price,Price Date\n")
	start := time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 80; i++ {
		fmt.Fprintf(&b, "Pune,Wheat,2400,2600,2500,%s\n", start.AddDate(0, 0, i).Format("02/01/2006"))
	}
	path := filepath.Join(t.TempDir(), "prices.csv")
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))

	cfg, err := config.Default()
	require.NoError(t, err)
	cfg.History.Path = path
	cfg.Logger.Level = "error"
	cfg.Model.Trees = 10
	cfg.Cache.Type = "memory"
	return cfg
}

func TestInitializeForecaster(t *testing.T) {
	svc, cleanup, err := InitializeForecaster(testConfig(t))
	require.NoError(t, err)
	defer cleanup()

	ctx := context.Background()
	require.NoError(t, svc.Warm(ctx, models.ModelKey{Commodity: "Wheat", Market: "Pune"}))
	assert.Equal(t, 1, svc.CachedModels())

	res, err := svc.PredictFuturePrices(ctx, "Wheat", "Pune", 7)
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Len(t, res.Predictions, 7)
	assert.Equal(t, models.TrendStable, res.Trend)
	assert.Equal(t, int64(1), svc.Trainings())
}

func TestInitializeApp(t *testing.T) {
	cfg := testConfig(t)
	cfg.Server.RateLimit.Enabled = true

	app, cleanup, err := InitializeApp(cfg)
	require.NoError(t, err)
	require.NotNil(t, app)
	cleanup()
}

func TestInitializeAppRejectsUnreachableRedis(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Type = "redis"
	cfg.Redis.Addr = "127.0.0.1:1"

	_, _, err := InitializeApp(cfg)
	assert.Error(t, err)
}

type pingingStore struct {
	*internalrepo.CSVHistoryStore
	err error
}

func (s pingingStore) Ping(context.Context) error { return s.err }

func TestHistoryCheck(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	csv := internalrepo.NewCSVHistoryStore(cfg.History.Path, internalrepo.DefaultColumns(), 0, applogger.NewNop())
	assert.NoError(t, historyCheck(csv)(ctx))

	missing := internalrepo.NewCSVHistoryStore(filepath.Join(t.TempDir(), "none.csv"), internalrepo.DefaultColumns(), 0, applogger.NewNop())
	assert.Error(t, historyCheck(missing)(ctx))

	down := fmt.Errorf("connection refused")
	assert.ErrorIs(t, historyCheck(pingingStore{CSVHistoryStore: csv, err: down})(ctx), down)
}
