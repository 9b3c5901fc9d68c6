package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"rental-location/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of *kafka.Writer the producer uses
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	Writer MessageWriter
}

func NewProducer(brokers []string, topic string) *Producer {
	writer := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &Producer{Writer: writer}
}

// PublishRentalChange streams a rental log change to the audit topic. Messages are
// keyed by work date so the changes of one day stay ordered.
func (p *Producer) PublishRentalChange(ctx context.Context, change models.RentalLogChange) error {
	msgBytes, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal rental change: %w", err)
	}

	return p.Writer.WriteMessages(ctx,
		kafka.Message{
			Key:   []byte(change.WorkDate),
			Value: msgBytes,
			Headers: []kafka.Header{
				{Key: "action", Value: []byte(change.Action)},
			},
		},
	)
}

func (p *Producer) Close() error {
	return p.Writer.Close()
}
