package repository

import (
	"context"
	"fmt"

	"GridCast/internal/domain/models"
	domrepo "GridCast/internal/domain/repository"
	pkgkafka "GridCast/pkg/kafka"
)

// KafkaTickPublisher implements TickPublisher for Kafka.
type KafkaTickPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaTickPublisher creates a Kafka tick publisher.
func NewKafkaTickPublisher(producer *pkgkafka.Producer, topic string) domrepo.TickPublisher {
	return &KafkaTickPublisher{producer: producer, topic: topic}
}

func (p *KafkaTickPublisher) Publish(ctx context.Context, t *models.PriceTick) error {
	return p.producer.Publish(ctx, p.topic, tickKey(t), tickValue(t))
}

func (p *KafkaTickPublisher) PublishBatch(ctx context.Context, ticks []*models.PriceTick) error {
	if len(ticks) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(ticks))
	for i, t := range ticks {
		msgs[i] = pkgkafka.Message{
			Key:   tickKey(t),
			Value: tickValue(t),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaTickPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

func tickKey(t *models.PriceTick) []byte {
	return []byte(fmt.Sprintf("%d", t.Timestamp))
}

func tickValue(t *models.PriceTick) map[string]interface{} {
	return map[string]interface{}{
		"t":            t.Timestamp,
		"energy_price": t.Energy,
		"hash_price":   t.Hash,
		"token_price":  t.Token,
	}
}

// KafkaAlertPublisher implements AlertPublisher for Kafka.
type KafkaAlertPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaAlertPublisher creates a Kafka alert publisher.
func NewKafkaAlertPublisher(producer *pkgkafka.Producer, topic string) domrepo.AlertPublisher {
	return &KafkaAlertPublisher{producer: producer, topic: topic}
}

func (p *KafkaAlertPublisher) PublishAlert(ctx context.Context, a *models.ArbitrageAlert) error {
	return p.producer.Publish(ctx, p.topic, []byte(a.Model), a)
}

func (p *KafkaAlertPublisher) Close() error {
	// producer is shared with the tick publisher, closed there
	return nil
}
