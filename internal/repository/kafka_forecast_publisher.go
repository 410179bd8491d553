package repository

import (
	"context"
	"fmt"

	"AgriChain/internal/domain/models"
	domrepo "AgriChain/internal/domain/repository"
	applogger "AgriChain/pkg/logger"
)

// Producer is the subset of pkg/kafka.Producer the publisher needs.
type Producer interface {
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

var (
	_ domrepo.ForecastPublisher = (*KafkaForecastPublisher)(nil)
	_ applogger.Publisher       = (*KafkaForecastPublisher)(nil)
)

// KafkaForecastPublisher writes forecast summaries keyed by commodity|market,
// so every event for one pair lands on the same partition. It also carries
// aggregated log batches for the log collector.
type KafkaForecastPublisher struct {
	producer Producer
	topic    string
}

func NewKafkaForecastPublisher(producer Producer, topic string) *KafkaForecastPublisher {
	return &KafkaForecastPublisher{producer: producer, topic: topic}
}

func (p *KafkaForecastPublisher) PublishForecast(ctx context.Context, ev models.ForecastEvent) error {
	key := models.ModelKey{Commodity: ev.Commodity, Market: ev.Market}.String()
	if err := p.producer.Publish(ctx, p.topic, []byte(key), ev); err != nil {
		return fmt.Errorf("publish forecast %s: %w", key, err)
	}
	return nil
}

func (p *KafkaForecastPublisher) PublishMessage(ctx context.Context, topic string, payload interface{}) error {
	return p.producer.Publish(ctx, topic, nil, payload)
}

func (p *KafkaForecastPublisher) Close() error {
	return p.producer.Close()
}

// NoopForecastPublisher is used when Kafka is disabled.
type NoopForecastPublisher struct{}

func (NoopForecastPublisher) PublishForecast(context.Context, models.ForecastEvent) error { return nil }

func (NoopForecastPublisher) Close() error { return nil }
