package infrastructure

import (
	"context"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
	"github.com/stretchr/testify/require"
)

func TestChannelEventBus_DeliversByType(t *testing.T) {
	bus := NewChannelEventBus(10, discardLogger())
	defer bus.Close()

	var mu sync.Mutex
	var started []domain.PlaybackStartedEvent
	var closed []domain.SessionClosedEvent

	require.NoError(t, bus.Subscribe(
		reflect.TypeOf(domain.PlaybackStartedEvent{}),
		func(_ context.Context, e domain.Event) {
			mu.Lock()
			defer mu.Unlock()
			started = append(started, e.(domain.PlaybackStartedEvent))
		},
	))
	require.NoError(t, bus.Subscribe(
		reflect.TypeOf(domain.SessionClosedEvent{}),
		func(_ context.Context, e domain.Event) {
			mu.Lock()
			defer mu.Unlock()
			closed = append(closed, e.(domain.SessionClosedEvent))
		},
	))

	require.NoError(t, bus.Publish(domain.PlaybackStartedEvent{GuildID: snowflake.ID(1), Title: "A"}))
	require.NoError(t, bus.Publish(domain.PlaybackStartedEvent{GuildID: snowflake.ID(1), Title: "B"}))
	require.NoError(t, bus.Publish(domain.SessionClosedEvent{GuildID: snowflake.ID(1)}))
	// No subscriber for this type.
	require.NoError(t, bus.Publish(domain.ResolutionFailedEvent{GuildID: snowflake.ID(1)}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(started) == 2 && len(closed) == 1
	}, time.Second, 5*time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, "A", started[0].Title)
	require.Equal(t, "B", started[1].Title)
}

func TestChannelEventBus_CloseDrainsQueuedEvents(t *testing.T) {
	bus := NewChannelEventBus(10, discardLogger())

	var mu sync.Mutex
	var delivered int
	require.NoError(t, bus.Subscribe(
		reflect.TypeOf(domain.SessionClosedEvent{}),
		func(context.Context, domain.Event) {
			mu.Lock()
			delivered++
			mu.Unlock()
		},
	))

	for range 5 {
		require.NoError(t, bus.Publish(domain.SessionClosedEvent{GuildID: snowflake.ID(1)}))
	}
	bus.Close()

	mu.Lock()
	require.Equal(t, 5, delivered)
	mu.Unlock()

	require.ErrorIs(t, bus.Publish(domain.SessionClosedEvent{}), ErrBusClosed)
	require.ErrorIs(t, bus.Subscribe(
		reflect.TypeOf(domain.SessionClosedEvent{}),
		func(context.Context, domain.Event) {},
	), ErrBusClosed)

	// Closing twice is a no-op.
	bus.Close()
}

func TestChannelEventBus_DropsWhenFull(t *testing.T) {
	bus := NewChannelEventBus(1, discardLogger())
	defer bus.Close()

	release := make(chan struct{})
	entered := make(chan struct{}, 1)
	require.NoError(t, bus.Subscribe(
		reflect.TypeOf(domain.SessionClosedEvent{}),
		func(context.Context, domain.Event) {
			select {
			case entered <- struct{}{}:
			default:
			}
			<-release
		},
	))

	// The first event blocks the dispatcher, the second fills the buffer.
	require.NoError(t, bus.Publish(domain.SessionClosedEvent{}))
	<-entered
	require.NoError(t, bus.Publish(domain.SessionClosedEvent{}))
	require.ErrorIs(t, bus.Publish(domain.SessionClosedEvent{}), ErrBufferFull)

	close(release)
}
