package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.NoError(t, c.Validate())

	assert.Equal(t, 8080, c.Server.Port)
	assert.Equal(t, "csv", c.History.Backend)
	assert.Equal(t, "Modal_Price", c.History.Columns.Price)
	assert.Equal(t, 100, c.Model.Trees)
	assert.Equal(t, 12, c.Model.MaxDepth)
	assert.Equal(t, 3, c.Model.MinSamplesLeaf)
	assert.Equal(t, int64(42), c.Model.Seed)
	assert.Equal(t, 30, c.Forecast.DefaultDays)
	assert.Equal(t, time.Hour, c.Model.CacheTTL)
}

func TestParseOverridesDefaults(t *testing.T) {
	c, err := Parse([]byte(`
server:
  port: 9090
history:
  path: /data/prices.csv
model:
  trees: 50
forecast:
  warm:
    - commodity: Onion
      market: Lasalgaon
`))
	require.NoError(t, err)
	assert.Equal(t, 9090, c.Server.Port)
	assert.Equal(t, "/data/prices.csv", c.History.Path)
	assert.Equal(t, 50, c.Model.Trees)
	assert.Equal(t, 12, c.Model.MaxDepth)
	require.Len(t, c.Forecast.Warm, 1)
	assert.Equal(t, "Lasalgaon", c.Forecast.Warm[0].Market)
}

func TestParseRejectsInvalid(t *testing.T) {
	for name, doc := range map[string]string{
		"backend":     "history:\n  backend: parquet\n",
		"cache type":  "cache:\n  type: memcached\n",
		"max days":    "forecast:\n  default_days: 30\n  max_days: 7\n",
		"kafka":       "kafka:\n  enabled: true\n",
		"warm pair":   "forecast:\n  warm:\n    - commodity: Onion\n",
		"trees":       "model:\n  trees: 0\n",
		"log level":   "logger:\n  level: loud\n",
		"broken yaml": "server: [",
	} {
		_, err := Parse([]byte(doc))
		assert.Error(t, err, name)
	}
}

func TestLoadWithEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9000\n"), 0o644))

	t.Setenv("HTTP_PORT", "7070")
	t.Setenv("AGRI_DATA_PATH", "/tmp/mandi.csv")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	c, err := LoadWithEnv(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)
	assert.Equal(t, "/tmp/mandi.csv", c.History.Path)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, c.Kafka.Brokers)

	c, err = LoadWithEnv("")
	require.NoError(t, err)
	assert.Equal(t, 7070, c.Server.Port)

	_, err = LoadWithEnv(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
