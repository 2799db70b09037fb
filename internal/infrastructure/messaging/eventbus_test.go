package messaging

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coaching-hub/attendance-hub/internal/domain/shared"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = false
	return NewInMemoryEventBus(cfg)
}

func TestEventBusPublishToTypedSubscriber(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	var got []shared.EventType
	require.NoError(t, bus.Subscribe(shared.EventMarkingCommitted, func(e shared.Event) error {
		got = append(got, e.EventType())
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventMarkingCommitted, "ses-1")))
	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventSessionsReloaded, "2026-08-28")))

	require.Len(t, got, 1)
	assert.Equal(t, shared.EventMarkingCommitted, got[0])
}

func TestEventBusSubscribeAllSeesEverything(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		count++
		return nil
	}))

	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventMarkingCommitted, "ses-1")))
	require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventStatisticsRefreshed, "attendance")))
	assert.Equal(t, 2, count)
}

func TestEventBusHandlerErrorDoesNotReachPublisher(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		return errors.New("handler exploded")
	}))

	assert.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventMarkingCommitted, "ses-1")))
}

func TestEventBusAsyncDelivery(t *testing.T) {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.AsyncMode = true
	cfg.WorkerPoolSize = 2
	bus := NewInMemoryEventBus(cfg)

	var mu sync.Mutex
	count := 0
	require.NoError(t, bus.SubscribeAll(func(e shared.Event) error {
		mu.Lock()
		count++
		mu.Unlock()
		return nil
	}))

	for i := 0; i < 10; i++ {
		require.NoError(t, bus.Publish(shared.NewBaseEvent(shared.EventMarkingCommitted, "ses-1")))
	}

	// Close waits for pending handlers.
	require.NoError(t, bus.Close())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 10, count)
}

func TestEventBusRejectsAfterClose(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())

	err := bus.Publish(shared.NewBaseEvent(shared.EventMarkingCommitted, "ses-1"))
	assert.ErrorIs(t, err, ErrEventBusClosed)

	err = bus.Subscribe(shared.EventMarkingCommitted, func(e shared.Event) error { return nil })
	assert.ErrorIs(t, err, ErrEventBusClosed)

	// Closing twice is a no-op.
	assert.NoError(t, bus.Close())
}

func TestEventBusRejectsNilInput(t *testing.T) {
	bus := newSyncBus()
	defer bus.Close()

	assert.Error(t, bus.Publish(nil))
	assert.Error(t, bus.Subscribe(shared.EventMarkingCommitted, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
