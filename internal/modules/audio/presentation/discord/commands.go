package discord

import "github.com/bwmarrin/discordgo"

// Commands returns all slash commands for the audio module.
func Commands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        "play",
			Description: "Queue audio from a YouTube or Spotify link, or search YouTube",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        "query",
					Description: "URL or search term",
					Required:    true,
				},
			},
		},
		{
			Name:        "skip",
			Description: "Skip the current item",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "amount",
					Description: "Number of items to skip, the current one included",
					Required:    false,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "stop",
			Description: "Stop playback and leave the voice channel",
		},
		{
			Name:        "pause",
			Description: "Pause playback",
		},
		{
			Name:        "resume",
			Description: "Resume playback",
		},
		{
			Name:        "queue",
			Description: "Show the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "page",
					Description: "Page number",
					Required:    false,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "shuffle",
			Description: "Shuffle the upcoming items",
		},
		{
			Name:        "remove",
			Description: "Remove an upcoming item from the queue",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionInteger,
					Name:        "position",
					Description: "Position of the item to remove, as shown in /queue",
					Required:    true,
					MinValue:    floatPtr(1),
				},
			},
		},
		{
			Name:        "clear",
			Description: "Clear the queue and stop the current item",
		},
	}
}

func floatPtr(f float64) *float64 {
	return &f
}
