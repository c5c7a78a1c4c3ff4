package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"mybooks/internal/models"
)

//go:generate mockgen -destination=../../mocks/message_writer.go -package=mocks mybooks/internal/kafka MessageWriter
//go:generate mockgen -destination=../../mocks/notification_publisher.go -package=mocks mybooks/internal/kafka NotificationPublisher

// NotificationPublisher publishes screen notifications.
type NotificationPublisher interface {
	PublishNotification(ctx context.Context, n models.Notification) error
}

// MessageWriter abstracts kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Producer wraps a Kafka writer for publishing notifications.
type Producer struct {
	writer MessageWriter
}

// NewProducer creates a Kafka producer for the given broker and topic.
func NewProducer(broker, topic string) *Producer {
	return &Producer{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(broker),
			Topic:                  topic,
			Balancer:               &kafka.Hash{},
			AllowAutoTopicCreation: false,
		},
	}
}

// NewProducerWithWriter builds a producer using a custom writer (tests).
func NewProducerWithWriter(writer MessageWriter) *Producer {
	return &Producer{writer: writer}
}

// Close shuts down the underlying writer.
func (p *Producer) Close() error {
	return p.writer.Close()
}

// PublishNotification writes n keyed by its session so one session's
// notifications stay ordered on a single partition.
func (p *Producer) PublishNotification(ctx context.Context, n models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(n.SessionID),
		Value: payload,
		Time:  n.CreatedAt,
	}

	return p.writer.WriteMessages(ctx, msg)
}
