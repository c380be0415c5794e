// Package kafka publishes outbox messages to a Kafka topic.
package kafka

import (
	"context"
	"errors"
	"fmt"
	"time"

	"marketplace/config"
	"marketplace/domain/shared"
	"marketplace/pkg/logger"

	"github.com/avast/retry-go"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Header keys carried on every record.
const (
	HeaderMessageID     = "message-id"
	HeaderEventType     = "event-type"
	HeaderAggregateType = "aggregate-type"
	HeaderOccurredAt    = "occurred-at"
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Publisher writes one record per outbox message, keyed by aggregate id so
// that the events of an aggregate stay on one partition and keep their order.
type Publisher struct {
	writer     messageWriter
	topic      string
	attempts   uint
	retryDelay time.Duration
}

// NewPublisher builds a synchronous writer from cfg.
func NewPublisher(cfg config.KafkaConfig) (*Publisher, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}

	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequiredAcks(cfg.RequiredAcks),
		WriteTimeout: cfg.WriteTimeout,
		BatchTimeout: 10 * time.Millisecond,
	}
	return newPublisher(w, cfg), nil
}

func newPublisher(w messageWriter, cfg config.KafkaConfig) *Publisher {
	attempts := cfg.PublishAttempts
	if attempts == 0 {
		attempts = 1
	}
	return &Publisher{
		writer:     w,
		topic:      cfg.Topic,
		attempts:   attempts,
		retryDelay: cfg.RetryDelay,
	}
}

// Publish writes msg and retries transient failures a bounded number of times.
func (p *Publisher) Publish(ctx context.Context, msg shared.OutboxMessage) error {
	record := ToRecord(msg)

	err := retry.Do(
		func() error {
			return p.writer.WriteMessages(ctx, record)
		},
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.FromContext(ctx).Warn("Retrying kafka publish",
				zap.String("message_id", msg.ID),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
		retry.DelayType(retry.FixedDelay),
		retry.Delay(p.retryDelay),
		retry.Attempts(p.attempts),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s to %s: %w", msg.ID, p.topic, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	return p.writer.Close()
}

// ToRecord maps an outbox message onto a Kafka record.
func ToRecord(msg shared.OutboxMessage) kafkago.Message {
	return kafkago.Message{
		Key:   []byte(msg.AggregateID),
		Value: []byte(msg.Content),
		Time:  msg.OccurredAtUTC,
		Headers: []kafkago.Header{
			{Key: HeaderMessageID, Value: []byte(msg.ID)},
			{Key: HeaderEventType, Value: []byte(msg.Type)},
			{Key: HeaderAggregateType, Value: []byte(msg.AggregateType)},
			{Key: HeaderOccurredAt, Value: []byte(msg.OccurredAtUTC.Format(time.RFC3339Nano))},
		},
	}
}
