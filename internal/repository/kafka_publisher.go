package repository

import (
	"context"

	"StalkPull/internal/domain/models"
	pkgkafka "StalkPull/pkg/kafka"
)

// KafkaPublisher emits recomputed predictions to a Kafka topic, keyed by
// island so consumers see each island's predictions in order.
type KafkaPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

func NewKafkaPublisher(producer *pkgkafka.Producer, topic string) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, topic: topic}
}

func (kp *KafkaPublisher) PublishPrediction(ctx context.Context, ev *models.PredictionEvent) error {
	return kp.producer.Publish(ctx, kp.topic, []byte(ev.Island), ev)
}

// Close is a no-op; the producer is shared and closed by the app.
func (kp *KafkaPublisher) Close() error {
	return nil
}
