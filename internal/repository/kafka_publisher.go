package repository

import (
	"context"
	"fmt"

	"BrentShift/internal/domain/models"
	domrepo "BrentShift/internal/domain/repository"
	pkgkafka "BrentShift/pkg/kafka"
)

// KafkaEventPublisher emits each detected change point as a JSON message,
// keyed by the resolved date so re-runs for the same series land in the
// same partition.
type KafkaEventPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaEventPublisher(producer *pkgkafka.Producer, topic string) *KafkaEventPublisher {
	return &KafkaEventPublisher{producer: producer, topic: topic}
}

func (p *KafkaEventPublisher) Publish(ctx context.Context, report *models.ChangePointReport) error {
	rec := report.Record()
	if err := p.producer.Publish(ctx, p.topic, []byte(rec.Date), rec); err != nil {
		return fmt.Errorf("publish change point: %w", err)
	}
	return nil
}

func (p *KafkaEventPublisher) Close() error {
	return p.producer.Close()
}

var _ domrepo.EventPublisher = (*KafkaEventPublisher)(nil)
