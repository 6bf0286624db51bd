package infrastructure

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
)

// Embed colors.
const (
	colorRed     = 0xE74C3C
	colorYouTube = 0xFF0000
)

// thumbnailTimeout bounds the HEAD requests used to pick a thumbnail.
const thumbnailTimeout = 5 * time.Second

// Notifier sends notifications to Discord channels.
type Notifier struct {
	session    *discordgo.Session
	httpClient *http.Client
}

// NewNotifier creates a new Notifier.
func NewNotifier(session *discordgo.Session) *Notifier {
	return &Notifier{
		session: session,
		httpClient: &http.Client{
			Timeout: thumbnailTimeout,
		},
	}
}

// SendNowPlaying sends a "Now Playing" embed to the channel.
func (n *Notifier) SendNowPlaying(channelID snowflake.ID, info *ports.NowPlayingInfo) error {
	embed := nowPlayingEmbed(info)

	if info.ItemID != "" {
		if url := n.youTubeThumbnail(info.ItemID); url != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
		}
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

func nowPlayingEmbed(info *ports.NowPlayingInfo) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name: "Now Playing",
		},
		Title: info.Title,
		Color: colorYouTube,
		Footer: &discordgo.MessageEmbedFooter{
			Text: upcomingText(info.Upcoming),
		},
	}
	if info.ItemID != "" {
		embed.URL = "https://www.youtube.com/watch?v=" + info.ItemID
	}
	return embed
}

func upcomingText(n int) string {
	switch n {
	case 0:
		return "Nothing else queued"
	case 1:
		return "1 more in queue"
	default:
		return fmt.Sprintf("%d more in queue", n)
	}
}

// SendError sends an error message embed to the channel.
func (n *Notifier) SendError(channelID snowflake.ID, message string) error {
	embed := &discordgo.MessageEmbed{
		Description: message,
		Color:       colorRed,
	}

	_, err := n.session.ChannelMessageSendEmbed(channelID.String(), embed)
	return err
}

// youTubeThumbnail returns the highest quality thumbnail that exists for the video.
func (n *Notifier) youTubeThumbnail(videoID string) string {
	qualities := []string{"maxresdefault", "sddefault", "hqdefault"}

	ctx, cancel := context.WithTimeout(context.Background(), 2*thumbnailTimeout)
	defer cancel()

	for _, quality := range qualities {
		url := fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", videoID, quality)
		if n.urlExists(ctx, url) {
			return url
		}
	}
	return ""
}

// urlExists checks if a URL returns a successful response using a HEAD request.
func (n *Notifier) urlExists(ctx context.Context, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return false
	}

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return false
	}
	defer func() { _ = resp.Body.Close() }()

	return resp.StatusCode == http.StatusOK
}

var _ ports.NotificationSender = (*Notifier)(nil)
