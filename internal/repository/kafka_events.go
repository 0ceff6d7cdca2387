package repository

import (
	"context"
	"fmt"

	"AssetBrief/internal/domain/models"
	pkgkafka "AssetBrief/pkg/kafka"
	applogger "AssetBrief/pkg/logger"
)

// KafkaEventPublisher emits a completion event per finished request. Keyed
// by fingerprint so repeated requests land on the same partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
	l        *applogger.Logger
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string, l *applogger.Logger) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic, l: l}
}

func (p *KafkaEventPublisher) PublishCompletion(ctx context.Context, rec *models.HistoryRecord) error {
	err := p.producer.Publish(ctx, p.topic, []byte(rec.Fingerprint), rec)
	if err != nil {
		p.l.Error("kafka completion publish error",
			applogger.String("topic", p.topic),
			applogger.String("fingerprint", rec.Fingerprint),
			applogger.Error(err),
		)
		return fmt.Errorf("publish completion: %w", err)
	}
	p.l.Debug("kafka completion published",
		applogger.String("topic", p.topic),
		applogger.String("fingerprint", rec.Fingerprint),
	)
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

// NoopPublisher is used when Kafka is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishCompletion(context.Context, *models.HistoryRecord) error { return nil }

func (NoopPublisher) Close() error { return nil }
