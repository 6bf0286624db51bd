package ports

import (
	"context"

	"github.com/disgoorg/snowflake/v2"
)

// VoiceStateProvider defines the interface for getting Discord voice state information.
type VoiceStateProvider interface {
	// GetUserVoiceChannel returns the voice channel ID the user is currently in.
	// Returns 0 if the user is not in a voice channel.
	GetUserVoiceChannel(guildID, userID snowflake.ID) (snowflake.ID, error)
}

// VoiceConnector joins a voice channel and returns a sink bound to it.
type VoiceConnector interface {
	Connect(ctx context.Context, guildID, channelID snowflake.ID) (OutputSink, error)
}
