package infrastructure

import (
	"context"
	"errors"
	"log/slog"
	"reflect"
	"sync"

	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// DefaultEventBufferSize is the default buffer size of the event channel.
const DefaultEventBufferSize = 100

var (
	// ErrBusClosed is returned when publishing or subscribing after Close.
	ErrBusClosed = errors.New("event bus is closed")
	// ErrBufferFull is returned when an event is dropped because the buffer is full.
	ErrBufferFull = errors.New("event buffer is full")
)

var (
	_ ports.EventPublisher  = (*ChannelEventBus)(nil)
	_ ports.EventSubscriber = (*ChannelEventBus)(nil)
)

type eventHandler func(context.Context, domain.Event)

// ChannelEventBus delivers events to handlers registered by concrete event type.
// Publishing never blocks; one dispatcher goroutine runs handlers in publish order.
type ChannelEventBus struct {
	events   chan domain.Event
	handlers map[reflect.Type][]eventHandler
	logger   *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	closed bool
	mu     sync.RWMutex
}

// NewChannelEventBus creates a new ChannelEventBus and starts its dispatcher.
func NewChannelEventBus(bufferSize int, logger *slog.Logger) *ChannelEventBus {
	if bufferSize <= 0 {
		bufferSize = DefaultEventBufferSize
	}
	if logger == nil {
		logger = slog.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())
	bus := &ChannelEventBus{
		events:   make(chan domain.Event, bufferSize),
		handlers: make(map[reflect.Type][]eventHandler),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}

	bus.wg.Add(1)
	go bus.dispatch()
	return bus
}

func (b *ChannelEventBus) dispatch() {
	defer b.wg.Done()

	// Drains what was published before Close, then exits when the channel closes.
	for event := range b.events {
		b.mu.RLock()
		handlers := b.handlers[reflect.TypeOf(event)]
		b.mu.RUnlock()

		for _, handler := range handlers {
			handler(b.ctx, event)
		}
	}
}

// Publish queues event for its subscribers.
func (b *ChannelEventBus) Publish(event domain.Event) error {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.closed {
		return ErrBusClosed
	}

	select {
	case b.events <- event:
		b.logger.Debug("published event", "type", reflect.TypeOf(event).Name(), "guild", event.Guild())
		return nil
	default:
		b.logger.Warn("event buffer full, dropping event", "type", reflect.TypeOf(event).Name())
		return ErrBufferFull
	}
}

// Subscribe registers handler for events whose dynamic type is eventType.
func (b *ChannelEventBus) Subscribe(
	eventType reflect.Type,
	handler func(context.Context, domain.Event),
) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrBusClosed
	}
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

// Close stops accepting events, delivers the ones already queued and waits for
// the dispatcher to exit.
func (b *ChannelEventBus) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	close(b.events)
	b.mu.Unlock()

	b.wg.Wait()
	b.cancel()

	b.logger.Debug("channel event bus closed")
}
