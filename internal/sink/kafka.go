package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/confluentinc/confluent-kafka-go/kafka"
	"github.com/spacesedan/tweetflow/internal/models"
)

const KAFKA_FLUSH_TIMEOUT_MS = 5000

// KafkaProducer is the subset of *kafka.Producer used by KafkaSink.
type KafkaProducer interface {
	Produce(msg *kafka.Message, deliveryChan chan kafka.Event) error
	Flush(timeoutMs int) int
	Close()
}

// KafkaSink publishes one JSON message per record to <prefix><topic>, keyed
// by record id. Append returns once every message of the batch has a
// delivery report.
type KafkaSink struct {
	producer KafkaProducer
	prefix   string
}

func NewKafkaSink(producer KafkaProducer, prefix string) *KafkaSink {
	return &KafkaSink{producer: producer, prefix: prefix}
}

func (s *KafkaSink) TopicName(topic string) string {
	return s.prefix + topic
}

func (s *KafkaSink) Append(ctx context.Context, topic string, records []models.Record) error {
	if err := validateBatch(topic, records); err != nil {
		return err
	}
	kafkaTopic := s.TopicName(topic)
	deliveries := make(chan kafka.Event, len(records))

	produced := 0
	var firstErr error
	for _, record := range records {
		payload, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("[KafkaSink] Failed to marshal record %s: %w", record.ID, err)
		}

		msg := &kafka.Message{
			TopicPartition: kafka.TopicPartition{Topic: &kafkaTopic, Partition: kafka.PartitionAny},
			Key:            []byte(record.ID),
			Value:          payload,
		}
		if err := s.producer.Produce(msg, deliveries); err != nil {
			slog.Warn("[KafkaSink] Failed to produce message",
				slog.String("topic", kafkaTopic),
				slog.String("id", record.ID),
				slog.String("error", err.Error()))
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		produced++
	}

	delivered := 0
	for awaited := 0; awaited < produced; {
		select {
		case <-ctx.Done():
			return partialWrite(delivered, len(records), ctx.Err())
		case ev := <-deliveries:
			m, ok := ev.(*kafka.Message)
			if !ok {
				slog.Warn("[KafkaSink] Unexpected delivery event",
					slog.String("topic", kafkaTopic),
					slog.String("event", ev.String()))
				continue
			}
			awaited++
			if m.TopicPartition.Error != nil {
				if firstErr == nil {
					firstErr = m.TopicPartition.Error
				}
				continue
			}
			delivered++
		}
	}

	if failed := len(records) - delivered; failed > 0 {
		return partialWrite(delivered, len(records),
			fmt.Errorf("[KafkaSink] %d of %d messages not delivered to %s: %w", failed, len(records), kafkaTopic, firstErr))
	}

	slog.Info("[KafkaSink] Published records",
		slog.String("topic", kafkaTopic),
		slog.Int("records", len(records)))
	return nil
}

func (s *KafkaSink) Close(context.Context) error {
	slog.Info("[KafkaSink] Flushing Kafka producer before shutdown...")
	if remaining := s.producer.Flush(KAFKA_FLUSH_TIMEOUT_MS); remaining > 0 {
		slog.Warn("[KafkaSink] Not all messages were delivered before shutdown",
			slog.Int("remaining", remaining))
	}
	s.producer.Close()
	return nil
}
