package live

import (
	"context"
	"encoding/json"
	"fmt"
	"rental-location/internal/models"

	"github.com/go-redis/redis/v8"
)

// DefaultChannel is the Redis channel carrying rental log change notices
const DefaultChannel = "rental_logs.changed"

// Notifier publishes change notices so every instance's Hub can refresh its subscribers
type Notifier struct {
	Client  *redis.Client
	Channel string
}

func NewNotifier(client *redis.Client, channel string) *Notifier {
	if channel == "" {
		channel = DefaultChannel
	}
	return &Notifier{Client: client, Channel: channel}
}

func (n *Notifier) Publish(ctx context.Context, change models.RentalLogChange) error {
	if n.Client == nil {
		return fmt.Errorf("redis client not initialized")
	}

	// Subscribers re-fetch the snapshot, the log body is not needed on the wire
	change.Log = nil
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("failed to marshal change notice: %w", err)
	}
	if err := n.Client.Publish(ctx, n.Channel, payload).Err(); err != nil {
		return fmt.Errorf("failed to publish change notice: %w", err)
	}
	return nil
}
