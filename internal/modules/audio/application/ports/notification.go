package ports

import "github.com/disgoorg/snowflake/v2"

// NowPlayingInfo contains what the "Now Playing" notice shows.
type NowPlayingInfo struct {
	ItemID   string // empty if the item carries no identifier
	Title    string
	Upcoming int
}

// NotificationSender posts playback notices to a text channel.
type NotificationSender interface {
	SendNowPlaying(channelID snowflake.ID, info *NowPlayingInfo) error
	SendError(channelID snowflake.ID, message string) error
}
