package discord

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/usecases"
)

// Stopper stops a guild's playback session.
type Stopper interface {
	Stop(ctx context.Context, input usecases.StopInput) error
}

// EventHandlers handles Discord gateway events for the audio module.
type EventHandlers struct {
	botID  snowflake.ID
	player Stopper
}

// NewEventHandlers creates a new EventHandlers.
func NewEventHandlers(botID snowflake.ID, player Stopper) *EventHandlers {
	return &EventHandlers{
		botID:  botID,
		player: player,
	}
}

// HandleVoiceStateUpdate stops the guild's session when the bot is
// disconnected from voice by someone else.
func (h *EventHandlers) HandleVoiceStateUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	// Only handle updates for the bot itself
	if event.VoiceState == nil || event.UserID != h.botID.String() {
		return
	}
	if event.ChannelID != "" {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		slog.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// Our own /stop also ends here, after the session is already gone.
	err = h.player.Stop(context.Background(), usecases.StopInput{GuildID: guildID})
	if err != nil && !errors.Is(err, usecases.ErrNotConnected) {
		slog.Error("failed to stop session after voice disconnect", "guild", guildID, "error", err)
		return
	}
	if err == nil {
		slog.Info("stopped session after voice disconnect", "guild", guildID)
	}
}
