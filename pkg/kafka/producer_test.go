package kafka

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewProducerRequiresBrokers(t *testing.T) {
	_, err := NewProducer()
	require.Error(t, err)
}

func TestNewProducerAppliesOptions(t *testing.T) {
	p, err := NewProducer(
		WithBrokers([]string{"localhost:9092"}),
		WithCompression("zstd"),
		WithRequiredAcks(-1),
		WithBatchTimeout(5*time.Millisecond),
		WithHashByKey(true),
	)
	require.NoError(t, err)
	defer p.Close()

	assert.Equal(t, kafka.Zstd, p.writer.Compression)
	assert.Equal(t, kafka.RequireAll, p.writer.RequiredAcks)
	assert.Equal(t, 5*time.Millisecond, p.writer.BatchTimeout)
	assert.IsType(t, &kafka.Hash{}, p.writer.Balancer)
}

func TestEncode(t *testing.T) {
	b, err := encode([]byte("raw"))
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))

	b, err = encode(map[string]int{"days": 7})
	require.NoError(t, err)
	assert.JSONEq(t, `{"days":7}`, string(b))

	_, err = encode(func() {})
	assert.Error(t, err)
}

func TestProducerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := newProducerMetrics(reg)
	m.observe("agri.forecasts", "snappy", 120, time.Millisecond, nil)
	m.observe("agri.forecasts", "snappy", 0, time.Millisecond, assert.AnError)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.messages.WithLabelValues("agri.forecasts", "snappy", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.errors.WithLabelValues("agri.forecasts")))
	assert.Equal(t, 120.0, testutil.ToFloat64(m.bytes.WithLabelValues("agri.forecasts", "snappy")))

	var nilMetrics *producerMetrics
	nilMetrics.observe("t", "c", 1, time.Millisecond, nil)
}
