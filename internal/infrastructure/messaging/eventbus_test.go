package messaging

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alem-hub/study-progress-core/internal/domain/shared"
	"github.com/alem-hub/study-progress-core/pkg/logger"
)

func newSyncBus() *InMemoryEventBus {
	cfg := DefaultInMemoryEventBusConfig()
	cfg.Logger = logger.Nop()
	return NewInMemoryEventBus(cfg)
}

func activityEvent() shared.Event {
	return shared.NewActivityLoggedEvent("u1", time.Now(), 1, 1, 0, 0, time.Now())
}

func TestPublish_SyncDeliversInOrder(t *testing.T) {
	bus := newSyncBus()
	var order []string

	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(_ context.Context, _ shared.Event) error {
		order = append(order, "typed")
		return nil
	}))
	require.NoError(t, bus.SubscribeAll(func(_ context.Context, _ shared.Event) error {
		order = append(order, "global")
		return nil
	}))
	require.NoError(t, bus.Subscribe(shared.EventAttemptStarted, func(_ context.Context, _ shared.Event) error {
		order = append(order, "other")
		return nil
	}))

	require.NoError(t, bus.Publish(context.Background(), activityEvent()))
	assert.Equal(t, []string{"typed", "global"}, order)

	snap := bus.Metrics().Snapshot()
	assert.Equal(t, int64(1), snap.TotalPublished)
	assert.Equal(t, int64(2), snap.HandlerExecutions)
	assert.Equal(t, int64(0), snap.HandlerFailures)
}

func TestPublish_SyncReturnsHandlerErrors(t *testing.T) {
	bus := newSyncBus()
	boom := errors.New("projection failed")
	var secondRan bool

	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(context.Context, shared.Event) error { return boom }))
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(context.Context, shared.Event) error {
		secondRan = true
		return nil
	}))

	err := bus.Publish(context.Background(), activityEvent())
	assert.ErrorIs(t, err, boom)
	assert.True(t, secondRan, "a failing handler does not stop the others")
	assert.Equal(t, int64(1), bus.Metrics().Snapshot().HandlerFailures)
}

func TestPublish_RecoversPanics(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(context.Context, shared.Event) error {
		panic("nil map")
	}))

	err := bus.Publish(context.Background(), activityEvent())
	assert.ErrorIs(t, err, ErrHandlerPanic)
}

func TestPublish_Async(t *testing.T) {
	bus := NewInMemoryEventBus(InMemoryEventBusConfig{AsyncMode: true, WorkerPoolSize: 2, Logger: logger.Nop()})
	var calls atomic.Int32

	for i := 0; i < 3; i++ {
		require.NoError(t, bus.Subscribe(shared.EventActivityLogged, func(context.Context, shared.Event) error {
			calls.Add(1)
			return errors.New("ignored in async mode")
		}))
	}

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.Publish(ctx, activityEvent()))
	cancel()

	require.Eventually(t, func() bool { return calls.Load() == 3 }, time.Second, 5*time.Millisecond)
	require.NoError(t, bus.Close())
}

func TestClosedBus(t *testing.T) {
	bus := newSyncBus()
	require.NoError(t, bus.Close())
	require.NoError(t, bus.Close())

	assert.ErrorIs(t, bus.Publish(context.Background(), activityEvent()), ErrEventBusClosed)
	assert.ErrorIs(t, bus.Subscribe(shared.EventActivityLogged, func(context.Context, shared.Event) error { return nil }), ErrEventBusClosed)
}

func TestNilArguments(t *testing.T) {
	bus := newSyncBus()
	assert.Error(t, bus.Publish(context.Background(), nil))
	assert.Error(t, bus.Subscribe(shared.EventActivityLogged, nil))
	assert.Error(t, bus.SubscribeAll(nil))
}
