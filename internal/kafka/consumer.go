package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"rental-location/internal/logger"
	"rental-location/internal/models"

	"github.com/segmentio/kafka-go"
)

// MessageReader is the part of *kafka.Reader the consumer uses
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type Consumer struct {
	reader MessageReader
	log    *logger.Logger
}

// NewConsumer creates a new Kafka consumer for the given topic and group
func NewConsumer(brokers []string, topic, groupID string, log *logger.Logger) *Consumer {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})
	return &Consumer{reader: reader, log: log}
}

func NewConsumerWithReader(reader MessageReader, log *logger.Logger) *Consumer {
	return &Consumer{reader: reader, log: log}
}

// DecodeRentalChange parses one audit message
func DecodeRentalChange(msg kafka.Message) (models.RentalLogChange, error) {
	var change models.RentalLogChange
	if err := json.Unmarshal(msg.Value, &change); err != nil {
		return change, fmt.Errorf("failed to unmarshal rental change: %w", err)
	}
	if change.WorkDate == "" {
		change.WorkDate = string(msg.Key)
	}
	return change, nil
}

// Start consumes rental changes until ctx is done. Malformed messages are skipped.
func (c *Consumer) Start(ctx context.Context, handler func(models.RentalLogChange)) error {
	c.log.LogKafka("CONSUME", "", "Kafka consumer started")

	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return nil
			}
			c.log.Error("KAFKA", fmt.Sprintf("Error reading message: %v", err))
			return err
		}

		change, err := DecodeRentalChange(msg)
		if err != nil {
			c.log.Warn("KAFKA", err.Error())
			continue
		}
		handler(change)
	}
}

// Close gracefully shuts down the Kafka reader
func (c *Consumer) Close() error {
	return c.reader.Close()
}
