package live

import (
	"context"
	"encoding/json"
	"fmt"
	"rental-location/internal/logger"
	"rental-location/internal/models"
	"sync"

	"github.com/go-redis/redis/v8"
)

// SnapshotSource loads the full set of logs of a work date
type SnapshotSource interface {
	QueryEventsByDate(ctx context.Context, workDate string) []models.RentalLog
}

// Hub fans change notices out to per-date subscribers
type Hub struct {
	source SnapshotSource
	log    *logger.Logger

	clients     map[string][]chan models.RentalLogChange
	clientMutex sync.RWMutex
}

func NewHub(source SnapshotSource, log *logger.Logger) *Hub {
	return &Hub{
		source:  source,
		log:     log,
		clients: make(map[string][]chan models.RentalLogChange),
	}
}

// Run listens on the Redis channel until ctx is done and emits every notice it receives.
func (h *Hub) Run(ctx context.Context, client *redis.Client, channel string) error {
	if channel == "" {
		channel = DefaultChannel
	}
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Wait for the subscription to be confirmed
	if _, err := pubsub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}
	h.log.Info("LIVE", fmt.Sprintf("Listening for rental log changes on %s", channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var change models.RentalLogChange
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				h.log.Warn("LIVE", fmt.Sprintf("Dropping malformed change notice: %v", err))
				continue
			}
			h.Emit(change)
		}
	}
}

// Publish emits locally. It lets a single instance run without Redis.
func (h *Hub) Publish(_ context.Context, change models.RentalLogChange) error {
	h.Emit(change)
	return nil
}

// Subscribe registers a channel for the notices of one work date. The channel is
// closed once ctx is done.
func (h *Hub) Subscribe(ctx context.Context, workDate string) <-chan models.RentalLogChange {
	clientChan := make(chan models.RentalLogChange, 10)

	h.clientMutex.Lock()
	h.clients[workDate] = append(h.clients[workDate], clientChan)
	h.clientMutex.Unlock()

	go func() {
		<-ctx.Done()
		h.removeClient(workDate, clientChan)
	}()

	return clientChan
}

// Emit broadcasts a notice to the subscribers of its work date
func (h *Hub) Emit(change models.RentalLogChange) {
	h.clientMutex.RLock()
	defer h.clientMutex.RUnlock()

	for _, clientChan := range h.clients[change.WorkDate] {
		// Slow clients miss a notice, the next snapshot catches them up
		select {
		case clientChan <- change:
		default:
		}
	}
}

func (h *Hub) removeClient(workDate string, clientChan chan models.RentalLogChange) {
	h.clientMutex.Lock()
	defer h.clientMutex.Unlock()

	clients := h.clients[workDate]
	for i, ch := range clients {
		if ch == clientChan {
			h.clients[workDate] = append(clients[:i], clients[i+1:]...)
			close(clientChan)
			break
		}
	}

	if len(h.clients[workDate]) == 0 {
		delete(h.clients, workDate)
	}
}

// ClientCount returns the number of subscribers of a work date
func (h *Hub) ClientCount(workDate string) int {
	h.clientMutex.RLock()
	defer h.clientMutex.RUnlock()
	return len(h.clients[workDate])
}

// SubscribeEventsByDate calls onChange with the full snapshot of workDate once
// on start and again after every change to that date. Calls are sequential.
// The returned function stops delivery and may be called more than once.
func (h *Hub) SubscribeEventsByDate(ctx context.Context, workDate string, onChange func([]models.RentalLog)) func() {
	ctx, cancel := context.WithCancel(ctx)
	notices := h.Subscribe(ctx, workDate)

	go func() {
		h.log.LogLive(workDate, "Subscriber attached")
		defer h.log.LogLive(workDate, "Subscriber detached")

		deliver := func() {
			logs := h.source.QueryEventsByDate(ctx, workDate)
			if ctx.Err() != nil {
				return
			}
			onChange(logs)
		}

		deliver()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-notices:
				if !ok {
					return
				}
				drain(notices)
				deliver()
			}
		}
	}()

	return cancel
}

// drain discards queued notices, one snapshot covers all of them
func drain(notices <-chan models.RentalLogChange) {
	for {
		select {
		case _, ok := <-notices:
			if !ok {
				return
			}
		default:
			return
		}
	}
}
