package domain

import (
	"github.com/disgoorg/snowflake/v2"
)

// Event is a session lifecycle notification published on the event bus.
type Event interface {
	Guild() snowflake.ID
}

// PlaybackStartedEvent is published when an item starts playing in the sink.
type PlaybackStartedEvent struct {
	GuildID snowflake.ID
	ItemID  ItemID
	Title   string
	// Upcoming is the number of items queued behind the one that started.
	Upcoming int
}

// ResolutionFailedEvent is published when the worker gives up on a query.
type ResolutionFailedEvent struct {
	GuildID snowflake.ID
	Query   string
	Err     error
}

// SessionClosedEvent is published after a session has been stopped and removed.
type SessionClosedEvent struct {
	GuildID snowflake.ID
}

// Guild returns the guild the event belongs to.
func (e PlaybackStartedEvent) Guild() snowflake.ID { return e.GuildID }

// Guild returns the guild the event belongs to.
func (e ResolutionFailedEvent) Guild() snowflake.ID { return e.GuildID }

// Guild returns the guild the event belongs to.
func (e SessionClosedEvent) Guild() snowflake.ID { return e.GuildID }
