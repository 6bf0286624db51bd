package discord

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/bot"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/application/usecases"
)

// Embed colors.
const (
	colorSuccess = 0x08c404
	colorError   = 0xE74C3C
)

// Player is the playback surface the command handlers drive.
type Player interface {
	Play(ctx context.Context, input usecases.PlayInput) (*usecases.PlayOutput, error)
	Skip(ctx context.Context, input usecases.SkipInput) (*usecases.SkipOutput, error)
	Stop(ctx context.Context, input usecases.StopInput) error
	Pause(ctx context.Context, input usecases.PauseInput) error
	Resume(ctx context.Context, input usecases.ResumeInput) error
	Shuffle(ctx context.Context, input usecases.ShuffleInput) error
	Remove(ctx context.Context, input usecases.RemoveInput) (*usecases.RemoveOutput, error)
	Clear(ctx context.Context, input usecases.ClearInput) (*usecases.ClearOutput, error)
	QueueState(
		ctx context.Context,
		input usecases.QueueStateInput,
	) (*usecases.QueueStateOutput, error)
}

var _ Player = (*usecases.PlayerService)(nil)

// NotificationChannels remembers where a guild's notifications should go.
type NotificationChannels interface {
	SetChannel(guildID, channelID snowflake.ID)
}

// CommandHandlers holds all the command handlers.
type CommandHandlers struct {
	player        Player
	voiceState    ports.VoiceStateProvider
	connector     ports.VoiceConnector
	notifications NotificationChannels
	pageSize      int
}

// NewCommandHandlers creates new CommandHandlers.
func NewCommandHandlers(
	player Player,
	voiceState ports.VoiceStateProvider,
	connector ports.VoiceConnector,
	notifications NotificationChannels,
	pageSize int,
) *CommandHandlers {
	if pageSize <= 0 {
		pageSize = usecases.DefaultPageSize
	}
	return &CommandHandlers{
		player:        player,
		voiceState:    voiceState,
		connector:     connector,
		notifications: notifications,
		pageSize:      pageSize,
	}
}

// HandlePlay handles the /play command.
func (h *CommandHandlers) HandlePlay(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if i.Member == nil || i.Member.User == nil {
		return respondError(r, "Invalid user")
	}
	userID, err := snowflake.Parse(i.Member.User.ID)
	if err != nil {
		return respondError(r, "Invalid user")
	}

	var query string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "query" {
			query = strings.TrimSpace(opt.StringValue())
		}
	}

	voiceChannelID, err := h.voiceState.GetUserVoiceChannel(guildID, userID)
	if err != nil {
		return fmt.Errorf("failed to get user voice channel: %w", err)
	}
	if voiceChannelID == 0 {
		return respondError(r, usecases.ErrUserNotInVoice.Error())
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	_, err = h.player.Play(ctx, usecases.PlayInput{
		GuildID: guildID,
		Query:   query,
		Connect: func(ctx context.Context) (ports.OutputSink, error) {
			return h.connector.Connect(ctx, guildID, voiceChannelID)
		},
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Queueing audio for query: `%s`", query))
}

// HandleSkip handles the /skip command.
func (h *CommandHandlers) HandleSkip(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	count := 1
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "amount" {
			count = int(opt.IntValue())
		}
	}

	output, err := h.player.Skip(ctx, usecases.SkipInput{GuildID: guildID, Count: count})
	if err != nil {
		return respondFailure(r, err)
	}

	// "Now Playing" for the next item is sent by the notification handler
	if output.Skipped == 1 {
		return respondSuccess(r, "Skipped.")
	}
	return respondSuccess(r, fmt.Sprintf("Skipped %d items.", output.Skipped))
}

// HandleStop handles the /stop command.
func (h *CommandHandlers) HandleStop(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	if err := h.player.Stop(ctx, usecases.StopInput{GuildID: guildID}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Stopped playback.")
}

// HandlePause handles the /pause command.
func (h *CommandHandlers) HandlePause(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	if err := h.player.Pause(ctx, usecases.PauseInput{GuildID: guildID}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Paused playback.")
}

// HandleResume handles the /resume command.
func (h *CommandHandlers) HandleResume(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	if err := h.player.Resume(ctx, usecases.ResumeInput{GuildID: guildID}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Resumed playback.")
}

// HandleQueue handles the /queue command.
func (h *CommandHandlers) HandleQueue(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	var page int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "page" {
			page = int(opt.IntValue())
		}
	}

	output, err := h.player.QueueState(ctx, usecases.QueueStateInput{
		GuildID:  guildID,
		Page:     page,
		PageSize: h.pageSize,
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{queueEmbed(output)},
		},
	})
}

// HandleShuffle handles the /shuffle command.
func (h *CommandHandlers) HandleShuffle(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	if err := h.player.Shuffle(ctx, usecases.ShuffleInput{GuildID: guildID}); err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, "Shuffled the queue.")
}

// HandleRemove handles the /remove command.
func (h *CommandHandlers) HandleRemove(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	var position int
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "position" {
			position = int(opt.IntValue())
		}
	}

	output, err := h.player.Remove(ctx, usecases.RemoveInput{
		GuildID:  guildID,
		Position: position,
	})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Removed **%s** from the queue.", output.Title))
}

// HandleClear handles the /clear command.
func (h *CommandHandlers) HandleClear(
	_ *discordgo.Session,
	i *discordgo.InteractionCreate,
	r bot.Responder,
) error {
	ctx := context.Background()

	guildID, err := snowflake.Parse(i.GuildID)
	if err != nil {
		return respondError(r, "Invalid guild")
	}

	h.setNotificationChannel(guildID, i.ChannelID)

	output, err := h.player.Clear(ctx, usecases.ClearInput{GuildID: guildID})
	if err != nil {
		return respondFailure(r, err)
	}

	return respondSuccess(r, fmt.Sprintf("Cleared %d items from the queue.", output.Cleared))
}

// setNotificationChannel is best-effort; an unparsable channel keeps the old one.
func (h *CommandHandlers) setNotificationChannel(guildID snowflake.ID, rawChannelID string) {
	channelID, err := snowflake.Parse(rawChannelID)
	if err != nil {
		return
	}
	h.notifications.SetChannel(guildID, channelID)
}

func queueEmbed(output *usecases.QueueStateOutput) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: "Queue",
		Footer: &discordgo.MessageEmbedFooter{
			Text: fmt.Sprintf("Page %d/%d", output.CurrentPage, output.TotalPages),
		},
	}

	if output.Current == "" && output.TotalUpcoming == 0 {
		embed.Description = "Queue is empty."
		return embed
	}

	var sb strings.Builder
	if output.Current != "" {
		sb.WriteString("### Now Playing\n")
		if output.Paused {
			fmt.Fprintf(&sb, "**%s** (paused)\n", output.Current)
		} else {
			fmt.Fprintf(&sb, "**%s**\n", output.Current)
		}
	}

	if len(output.Upcoming) > 0 {
		sb.WriteString("### Up Next\n")
		for idx, title := range output.Upcoming {
			fmt.Fprintf(&sb, "%d\\. %s\n", output.Offset+idx+1, title)
		}
	}

	embed.Description = sb.String()
	if output.TotalUpcoming > 0 {
		embed.Footer.Text += fmt.Sprintf(" • %d upcoming", output.TotalUpcoming)
	}
	return embed
}

// controlErrors are shown to the user as-is. Anything else is returned to the
// bot, which logs it and answers with a generic error.
var controlErrors = []error{
	usecases.ErrNotConnected,
	usecases.ErrUserNotInVoice,
	usecases.ErrEmptyQuery,
	usecases.ErrNotPlaying,
	usecases.ErrAlreadyPaused,
	usecases.ErrNotPaused,
	usecases.ErrQueueEmpty,
	usecases.ErrInvalidSkipCount,
	usecases.ErrInvalidPosition,
	usecases.ErrSessionClosed,
	usecases.ErrShuttingDown,
}

func respondFailure(r bot.Responder, err error) error {
	for _, target := range controlErrors {
		if errors.Is(err, target) {
			return respondError(r, err.Error())
		}
	}
	return err
}

func respondSuccess(r bot.Responder, description string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Description: description,
					Color:       colorSuccess,
				},
			},
		},
	})
}

func respondError(r bot.Responder, message string) error {
	return r.Respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Embeds: []*discordgo.MessageEmbed{
				{
					Title:       "Error",
					Description: message,
					Color:       colorError,
				},
			},
		},
	})
}
