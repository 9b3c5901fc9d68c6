package live

import (
	"context"
	"rental-location/internal/models"
	"sync"
)

// Subscriber is implemented by Hub
type Subscriber interface {
	SubscribeEventsByDate(ctx context.Context, workDate string, onChange func([]models.RentalLog)) func()
}

// Subscription holds at most one active date subscription. Start replaces the
// running one, Stop ends it.
type Subscription struct {
	hub Subscriber

	mu       sync.Mutex
	stop     func()
	workDate string
}

func NewSubscription(hub Subscriber) *Subscription {
	return &Subscription{hub: hub}
}

// Start stops any running subscription, then subscribes to workDate.
func (s *Subscription) Start(ctx context.Context, workDate string, onChange func([]models.RentalLog)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.stop()
	}
	s.stop = s.hub.SubscribeEventsByDate(ctx, workDate, onChange)
	s.workDate = workDate
}

// Stop is a no-op when nothing is running
func (s *Subscription) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stop != nil {
		s.stop()
		s.stop = nil
	}
	s.workDate = ""
}

// Active reports the subscribed work date, or false when stopped
func (s *Subscription) Active() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.workDate, s.stop != nil
}
