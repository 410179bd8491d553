package logger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu      sync.Mutex
	topic   string
	batches [][]AggregatedLogEntry
	err     error
}

func (p *fakePublisher) PublishMessage(_ context.Context, topic string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topic = topic
	p.batches = append(p.batches, payload.([]AggregatedLogEntry))
	return p.err
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.batches)
}

func TestCollectorFoldsRepeatedEntries(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, Topic: "agri.logs", Publisher: pub})

	fields := map[string]interface{}{"commodity": "Onion", "market": "Lasalgaon"}
	c.AddLog("error", "train failed", fields, "trainer.go:90")
	c.AddLog("error", "train failed", map[string]interface{}{"market": "Lasalgaon", "commodity": "Onion"}, "trainer.go:90")
	c.AddLog("error", "train failed", map[string]interface{}{"commodity": "Tomato"}, "trainer.go:90")
	assert.Equal(t, 2, c.Pending())

	c.Close()
	require.Equal(t, 1, pub.count())
	assert.Equal(t, "agri.logs", pub.topic)

	counts := map[int]int{}
	for _, e := range pub.batches[0] {
		counts[e.Count]++
	}
	assert.Equal(t, map[int]int{2: 1, 1: 1}, counts)
}

func TestCollectorFlushesAtThreshold(t *testing.T) {
	pub := &fakePublisher{}
	c := NewLogCollector(&CollectionConfig{TimeInterval: time.Hour, CountThreshold: 2, Publisher: pub})
	defer c.Close()

	c.AddLog("error", "a", nil, "x.go:1")
	c.AddLog("error", "b", nil, "x.go:2")

	assert.Eventually(t, func() bool { return pub.count() == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, c.Pending())
}

func TestCollectorSurvivesPublishErrors(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	c := NewLogCollector(&CollectionConfig{TimeInterval: 10 * time.Millisecond, Publisher: pub})
	c.AddLog("error", "a", nil, "x.go:1")

	assert.Eventually(t, func() bool { return pub.count() >= 1 }, time.Second, 5*time.Millisecond)
	c.Close()
}

func TestLoggerFeedsCollectorOnErrorOnly(t *testing.T) {
	pub := &fakePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.Info("started")
	l.Warn("slow")
	l.Error("failed", String("commodity", "Onion"), Int("rows", 12))
	l.With(String("market", "Pune")).Error("failed again")

	l.RemoveCollector()
	require.Equal(t, 1, pub.count())
	assert.Len(t, pub.batches[0], 2)
}

func TestLoggerWithFieldsReachCollector(t *testing.T) {
	pub := &fakePublisher{}
	l := NewNop()
	l.AddCollector(&CollectionConfig{TimeInterval: time.Hour, Publisher: pub})

	l.With(String("market", "Pune")).Error("train failed", String("commodity", "Onion"), Error(errors.New("boom")))
	l.RemoveCollector()

	require.Equal(t, 1, pub.count())
	require.Len(t, pub.batches[0], 1)
	e := pub.batches[0][0]
	assert.Equal(t, "Pune", e.Fields["market"])
	assert.Equal(t, "Onion", e.Fields["commodity"])
	assert.Equal(t, "boom", e.Fields["error"])
	assert.Contains(t, e.Caller, "logger/collector_test.go:")
}
