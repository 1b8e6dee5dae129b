package notify

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/segmentio/kafka-go"

	"codebrick-site/backend/internal/submission/domain"
)

// messageWriter is the subset of *kafka.Writer used by KafkaPublisher.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher implements Notifier by queueing quotes on a Kafka topic for cmd/worker.
type KafkaPublisher struct {
	writer messageWriter
	topic  string
}

// NewKafkaPublisher creates a publisher writing to topic. brokers and topic must be non-empty.
// Call Close when shutting down.
func NewKafkaPublisher(brokers []string, topic string) (*KafkaPublisher, error) {
	if len(brokers) == 0 || topic == "" {
		return nil, errors.New("notify: kafka brokers and topic are required")
	}
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           50 * time.Millisecond,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: writer, topic: topic}, nil
}

// Notify serializes q as a QuoteEvent keyed by quote id.
func (p *KafkaPublisher) Notify(ctx context.Context, q *domain.QuoteRequest) error {
	if p == nil || p.writer == nil || q == nil {
		return nil
	}
	payload, err := json.Marshal(eventFromQuote(q))
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(q.ID, 10)),
		Value: payload,
	})
}

// Close closes the Kafka writer. Safe to call on a nil publisher.
func (p *KafkaPublisher) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
