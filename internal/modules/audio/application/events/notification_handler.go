package events

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"sync"

	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/domain"
)

// NotificationHandler posts session events to the text channel where each
// guild last used a playback command.
type NotificationHandler struct {
	notifier   ports.NotificationSender
	subscriber ports.EventSubscriber
	logger     *slog.Logger

	mu       sync.RWMutex
	channels map[snowflake.ID]snowflake.ID
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(
	notifier ports.NotificationSender,
	subscriber ports.EventSubscriber,
	logger *slog.Logger,
) *NotificationHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &NotificationHandler{
		notifier:   notifier,
		subscriber: subscriber,
		logger:     logger,
		channels:   make(map[snowflake.ID]snowflake.ID),
	}
}

// Start registers the handler's subscriptions.
func (h *NotificationHandler) Start() error {
	subscriptions := []struct {
		event   domain.Event
		handler func(context.Context, domain.Event)
	}{
		{domain.PlaybackStartedEvent{}, h.handlePlaybackStarted},
		{domain.ResolutionFailedEvent{}, h.handleResolutionFailed},
		{domain.SessionClosedEvent{}, h.handleSessionClosed},
	}

	for _, s := range subscriptions {
		if err := h.subscriber.Subscribe(reflect.TypeOf(s.event), s.handler); err != nil {
			return fmt.Errorf("failed to subscribe to %T: %w", s.event, err)
		}
	}

	h.logger.Debug("notification handler started")
	return nil
}

// SetChannel records where notifications for the guild go.
func (h *NotificationHandler) SetChannel(guildID, channelID snowflake.ID) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.channels[guildID] = channelID
}

func (h *NotificationHandler) channel(guildID snowflake.ID) (snowflake.ID, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	channelID, ok := h.channels[guildID]
	return channelID, ok
}

func (h *NotificationHandler) handlePlaybackStarted(_ context.Context, e domain.Event) {
	event := e.(domain.PlaybackStartedEvent)

	channelID, ok := h.channel(event.GuildID)
	if !ok {
		return
	}

	if err := h.notifier.SendNowPlaying(channelID, &ports.NowPlayingInfo{
		ItemID:   event.ItemID.String(),
		Title:    event.Title,
		Upcoming: event.Upcoming,
	}); err != nil {
		h.logger.Error("failed to send now playing notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationHandler) handleResolutionFailed(_ context.Context, e domain.Event) {
	event := e.(domain.ResolutionFailedEvent)

	channelID, ok := h.channel(event.GuildID)
	if !ok {
		return
	}

	if err := h.notifier.SendError(channelID, failureMessage(event)); err != nil {
		h.logger.Error("failed to send error notification",
			"guild", event.GuildID,
			"error", err,
		)
	}
}

func (h *NotificationHandler) handleSessionClosed(_ context.Context, e domain.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()

	delete(h.channels, e.Guild())
}

func failureMessage(event domain.ResolutionFailedEvent) string {
	switch {
	case errors.Is(event.Err, ports.ErrNoResults), errors.Is(event.Err, ports.ErrNotFound):
		return fmt.Sprintf("No results found for: `%s`", event.Query)
	case errors.Is(event.Err, ports.ErrCatalogUnavailable):
		return "Spotify links are not available on this bot."
	default:
		return fmt.Sprintf("Failed to load audio for: `%s`", event.Query)
	}
}
