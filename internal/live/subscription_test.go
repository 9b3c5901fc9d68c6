package live_test

import (
	"context"
	"rental-location/internal/live"
	"rental-location/internal/models"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSubscriptionReplacesRunningSubscription(t *testing.T) {
	source := newFakeSource()
	source.add(models.RentalLog{ID: "a", WorkDate: "2024-01-01"})
	source.add(models.RentalLog{ID: "b", WorkDate: "2024-01-02"})
	source.add(models.RentalLog{ID: "c", WorkDate: "2024-01-02"})
	hub := live.NewHub(source, testLogger())
	sub := live.NewSubscription(hub)

	first := newSnapshots()
	sub.Start(context.Background(), "2024-01-01", first.onChange)
	assert.Len(t, first.next(t), 1)

	second := newSnapshots()
	sub.Start(context.Background(), "2024-01-02", second.onChange)
	assert.Len(t, second.next(t), 2)

	date, active := sub.Active()
	assert.True(t, active)
	assert.Equal(t, "2024-01-02", date)

	// Test case: the replaced subscription no longer receives changes
	hub.Emit(models.RentalLogChange{WorkDate: "2024-01-01"})
	first.none(t)

	sub.Stop()
	sub.Stop()
	_, active = sub.Active()
	assert.False(t, active)

	hub.Emit(models.RentalLogChange{WorkDate: "2024-01-02"})
	second.none(t)
}

func TestSubscriptionStopWithoutStart(t *testing.T) {
	sub := live.NewSubscription(live.NewHub(newFakeSource(), testLogger()))
	assert.NotPanics(t, sub.Stop)
}
