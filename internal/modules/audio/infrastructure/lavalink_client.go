package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/disgoorg/disgolink/v3/disgolink"
	"github.com/disgoorg/disgolink/v3/lavalink"
	"github.com/disgoorg/snowflake/v2"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
)

// voiceConnectionTimeout is the maximum time to wait for voice connection to be established.
const voiceConnectionTimeout = 10 * time.Second

// pendingVoiceConnection is closed once both voice events for a join arrived.
type pendingVoiceConnection struct {
	mu             sync.Mutex
	hasVoiceState  bool
	hasVoiceServer bool
	ready          chan struct{}
}

func newPendingVoiceConnection() *pendingVoiceConnection {
	return &pendingVoiceConnection{ready: make(chan struct{})}
}

func (p *pendingVoiceConnection) onEvent(isVoiceState bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if isVoiceState {
		p.hasVoiceState = true
	} else {
		p.hasVoiceServer = true
	}

	if p.hasVoiceState && p.hasVoiceServer {
		select {
		case <-p.ready:
		default:
			close(p.ready)
		}
	}
}

// voiceEventBuffer holds one VoiceStateUpdate and one VoiceServerUpdate until
// both are present, so Lavalink never sees a partial voice state.
type voiceEventBuffer struct {
	mu sync.Mutex

	hasVoiceState bool
	channelID     *snowflake.ID
	sessionID     string

	hasVoiceServer bool
	token          string
	endpoint       string
}

func (b *voiceEventBuffer) setVoiceState(channelID *snowflake.ID, sessionID string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceState = true
	b.channelID = channelID
	b.sessionID = sessionID
	return b.hasVoiceServer
}

func (b *voiceEventBuffer) setVoiceServer(token, endpoint string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.hasVoiceServer = true
	b.token = token
	b.endpoint = endpoint
	return b.hasVoiceState
}

// take returns the buffered data and resets the buffer.
func (b *voiceEventBuffer) take() (channelID *snowflake.ID, sessionID, token, endpoint string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	channelID, sessionID, token, endpoint = b.channelID, b.sessionID, b.token, b.endpoint

	b.hasVoiceState = false
	b.hasVoiceServer = false
	b.channelID = nil
	b.sessionID = ""
	b.token = ""
	b.endpoint = ""
	return
}

// playback is the completion callback of the file a guild's player was last
// told to play.
type playback struct {
	encoded    string
	onFinished func(error)
}

// LavalinkConfig contains Lavalink connection configuration.
type LavalinkConfig struct {
	Address  string
	Password string
	Secure   bool
}

var _ ports.VoiceConnector = (*LavalinkAdapter)(nil)

// LavalinkAdapter joins voice channels through the Discord gateway and streams
// cached audio files through a Lavalink node.
type LavalinkAdapter struct {
	link    disgolink.Client
	session *discordgo.Session
	botID   snowflake.ID
	logger  *slog.Logger

	pendingMu sync.Mutex
	pending   map[snowflake.ID]*pendingVoiceConnection

	voiceBufferMu sync.Mutex
	voiceBuffers  map[snowflake.ID]*voiceEventBuffer

	playbackMu sync.Mutex
	playbacks  map[snowflake.ID]*playback
}

// NewLavalinkAdapter creates a LavalinkAdapter and connects it to its node.
func NewLavalinkAdapter(
	ctx context.Context,
	session *discordgo.Session,
	config LavalinkConfig,
	logger *slog.Logger,
) (*LavalinkAdapter, error) {
	botID, err := snowflake.Parse(session.State.User.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to parse bot ID: %w", err)
	}

	adapter := &LavalinkAdapter{
		session:      session,
		botID:        botID,
		logger:       logger,
		pending:      make(map[snowflake.ID]*pendingVoiceConnection),
		voiceBuffers: make(map[snowflake.ID]*voiceEventBuffer),
		playbacks:    make(map[snowflake.ID]*playback),
	}

	adapter.link = disgolink.New(botID,
		disgolink.WithListenerFunc(adapter.onTrackEnd),
		disgolink.WithListenerFunc(adapter.onTrackException),
		disgolink.WithListenerFunc(adapter.onTrackStuck),
	)

	node, err := adapter.link.AddNode(ctx, disgolink.NodeConfig{
		Name:     "main",
		Address:  config.Address,
		Password: config.Password,
		Secure:   config.Secure,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add Lavalink node: %w", err)
	}

	logger.Info("connected to Lavalink", "node", node.Config().Name, "address", config.Address)
	return adapter, nil
}

// BotID returns the bot's user ID.
func (c *LavalinkAdapter) BotID() snowflake.ID {
	return c.botID
}

// Close disconnects from every Lavalink node.
func (c *LavalinkAdapter) Close() {
	c.link.Close()
}

// Connect joins the voice channel and returns a sink playing into it.
// It waits for both VoiceStateUpdate and VoiceServerUpdate before returning.
func (c *LavalinkAdapter) Connect(
	ctx context.Context,
	guildID, channelID snowflake.ID,
) (ports.OutputSink, error) {
	pending := newPendingVoiceConnection()

	c.pendingMu.Lock()
	c.pending[guildID] = pending
	c.pendingMu.Unlock()

	defer func() {
		c.pendingMu.Lock()
		delete(c.pending, guildID)
		c.pendingMu.Unlock()
	}()

	err := c.session.ChannelVoiceJoinManual(guildID.String(), channelID.String(), false, false)
	if err != nil {
		return nil, fmt.Errorf("failed to join voice channel: %w", err)
	}

	select {
	case <-pending.ready:
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled while waiting for voice connection: %w", ctx.Err())
	case <-time.After(voiceConnectionTimeout):
		return nil, errors.New("timeout waiting for voice connection")
	}

	return &lavalinkSink{adapter: c, guildID: guildID}, nil
}

func (c *LavalinkAdapter) leave(ctx context.Context, guildID snowflake.ID) error {
	c.takePlayback(guildID)

	if player := c.link.ExistingPlayer(guildID); player != nil {
		if err := player.Destroy(ctx); err != nil {
			c.logger.Warn("failed to destroy player", "guild", guildID, "error", err)
		}
	}

	if err := c.session.ChannelVoiceJoinManual(guildID.String(), "", false, false); err != nil {
		return fmt.Errorf("failed to leave voice channel: %w", err)
	}
	return nil
}

// loadFile resolves a local file into an encoded Lavalink track.
func (c *LavalinkAdapter) loadFile(ctx context.Context, path string) (string, error) {
	node := c.link.BestNode()
	if node == nil {
		return "", errors.New("no available Lavalink node")
	}

	result, err := node.LoadTracks(ctx, path)
	if err != nil {
		return "", fmt.Errorf("failed to load %s: %w", path, err)
	}
	return encodedTrack(path, result)
}

func encodedTrack(path string, result *lavalink.LoadResult) (string, error) {
	switch data := result.Data.(type) {
	case lavalink.Track:
		return data.Encoded, nil
	case lavalink.Exception:
		return "", fmt.Errorf("failed to load %s: %s", path, data.Message)
	default:
		return "", fmt.Errorf("failed to load %s: unexpected load type %s", path, result.LoadType)
	}
}

// swapPlayback installs pb as the guild's playback and returns the one it replaced.
func (c *LavalinkAdapter) swapPlayback(guildID snowflake.ID, pb *playback) *playback {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()

	prev := c.playbacks[guildID]
	c.playbacks[guildID] = pb
	return prev
}

// takePlayback removes and returns the guild's playback.
func (c *LavalinkAdapter) takePlayback(guildID snowflake.ID) *playback {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()

	pb := c.playbacks[guildID]
	delete(c.playbacks, guildID)
	return pb
}

// finishPlayback removes the guild's playback if it is still for encoded.
func (c *LavalinkAdapter) finishPlayback(guildID snowflake.ID, encoded string) *playback {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()

	pb, ok := c.playbacks[guildID]
	if !ok || pb.encoded != encoded {
		return nil
	}
	delete(c.playbacks, guildID)
	return pb
}

// dropPlayback removes pb if it is still installed.
func (c *LavalinkAdapter) dropPlayback(guildID snowflake.ID, pb *playback) {
	c.playbackMu.Lock()
	defer c.playbackMu.Unlock()

	if c.playbacks[guildID] == pb {
		delete(c.playbacks, guildID)
	}
}

func (pb *playback) finish(err error) {
	if pb != nil && pb.onFinished != nil {
		pb.onFinished(err)
	}
}

// OnVoiceServerUpdate handles Discord voice server updates.
func (c *LavalinkAdapter) OnVoiceServerUpdate(event *discordgo.VoiceServerUpdate) {
	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		c.logger.Error("failed to parse guild ID in voice server update", "error", err)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceServer(event.Token, event.Endpoint) {
		c.forwardVoiceEvents(guildID, buffer)
	}
	c.signalPending(guildID, false)
}

// OnVoiceStateUpdate handles the bot's own Discord voice state updates.
func (c *LavalinkAdapter) OnVoiceStateUpdate(event *discordgo.VoiceStateUpdate) {
	if event.UserID != c.botID.String() {
		return
	}

	guildID, err := snowflake.Parse(event.GuildID)
	if err != nil {
		c.logger.Error("failed to parse guild ID in voice state update", "error", err)
		return
	}

	// An empty channel means the bot left; no server update follows.
	if event.ChannelID == "" {
		c.link.OnVoiceStateUpdate(context.Background(), guildID, nil, event.SessionID)
		c.voiceBufferMu.Lock()
		delete(c.voiceBuffers, guildID)
		c.voiceBufferMu.Unlock()
		return
	}

	channelID, err := snowflake.Parse(event.ChannelID)
	if err != nil {
		c.logger.Error("failed to parse channel ID in voice state update", "error", err)
		return
	}

	buffer := c.voiceBuffer(guildID)
	if buffer.setVoiceState(&channelID, event.SessionID) {
		c.forwardVoiceEvents(guildID, buffer)
	}
	c.signalPending(guildID, true)
}

func (c *LavalinkAdapter) signalPending(guildID snowflake.ID, isVoiceState bool) {
	c.pendingMu.Lock()
	pending := c.pending[guildID]
	c.pendingMu.Unlock()

	if pending != nil {
		pending.onEvent(isVoiceState)
	}
}

func (c *LavalinkAdapter) voiceBuffer(guildID snowflake.ID) *voiceEventBuffer {
	c.voiceBufferMu.Lock()
	defer c.voiceBufferMu.Unlock()

	buffer, ok := c.voiceBuffers[guildID]
	if !ok {
		buffer = &voiceEventBuffer{}
		c.voiceBuffers[guildID] = buffer
	}
	return buffer
}

func (c *LavalinkAdapter) forwardVoiceEvents(guildID snowflake.ID, buffer *voiceEventBuffer) {
	channelID, sessionID, token, endpoint := buffer.take()

	c.logger.Debug("forwarding buffered voice events to Lavalink",
		"guild", guildID,
		"channel", channelID,
		"hasSessionID", sessionID != "",
	)

	c.link.OnVoiceStateUpdate(context.Background(), guildID, channelID, sessionID)
	c.link.OnVoiceServerUpdate(context.Background(), guildID, token, endpoint)
}

func (c *LavalinkAdapter) onTrackEnd(player disgolink.Player, event lavalink.TrackEndEvent) {
	guildID := player.GuildID()
	c.logger.Debug("track ended", "guild", guildID, "reason", event.Reason)

	// The replacing Play call already completed the old callback.
	if event.Reason == lavalink.TrackEndReasonReplaced {
		return
	}

	pb := c.finishPlayback(guildID, event.Track.Encoded)
	pb.finish(endReasonError(event.Reason))
}

func (c *LavalinkAdapter) onTrackException(
	player disgolink.Player,
	event lavalink.TrackExceptionEvent,
) {
	c.logger.Warn("track exception", "guild", player.GuildID(), "error", event.Exception.Message)
}

func (c *LavalinkAdapter) onTrackStuck(player disgolink.Player, event lavalink.TrackStuckEvent) {
	c.logger.Warn("track stuck", "guild", player.GuildID(), "threshold", event.Threshold)
}

var errLoadFailed = errors.New("track failed to load")

// endReasonError maps a Lavalink end reason to a completion error.
func endReasonError(reason lavalink.TrackEndReason) error {
	switch reason {
	case lavalink.TrackEndReasonFinished, lavalink.TrackEndReasonStopped:
		return nil
	case lavalink.TrackEndReasonLoadFailed:
		return errLoadFailed
	default:
		return fmt.Errorf("track ended: %s", reason)
	}
}

var _ ports.OutputSink = (*lavalinkSink)(nil)

// lavalinkSink is the output sink of one guild's voice connection.
type lavalinkSink struct {
	adapter *LavalinkAdapter
	guildID snowflake.ID
}

func (s *lavalinkSink) Play(ctx context.Context, path string, onFinished func(error)) error {
	encoded, err := s.adapter.loadFile(ctx, path)
	if err != nil {
		return err
	}

	// Installed before the update so a short track cannot end unobserved.
	pb := &playback{encoded: encoded, onFinished: onFinished}
	if prev := s.adapter.swapPlayback(s.guildID, pb); prev != nil {
		go prev.finish(ports.ErrPlaybackReplaced)
	}

	player := s.adapter.link.Player(s.guildID)
	if err := player.Update(ctx,
		lavalink.WithEncodedTrack(encoded),
		lavalink.WithPaused(false),
	); err != nil {
		s.adapter.dropPlayback(s.guildID, pb)
		return fmt.Errorf("failed to play %s: %w", path, err)
	}
	return nil
}

func (s *lavalinkSink) Pause(ctx context.Context) error {
	player := s.adapter.link.Player(s.guildID)
	if err := player.Update(ctx, lavalink.WithPaused(true)); err != nil {
		return fmt.Errorf("failed to pause playback: %w", err)
	}
	return nil
}

func (s *lavalinkSink) Resume(ctx context.Context) error {
	player := s.adapter.link.Player(s.guildID)
	if err := player.Update(ctx, lavalink.WithPaused(false)); err != nil {
		return fmt.Errorf("failed to resume playback: %w", err)
	}
	return nil
}

func (s *lavalinkSink) Stop(ctx context.Context) error {
	player := s.adapter.link.Player(s.guildID)
	if err := player.Update(ctx, lavalink.WithNullTrack()); err != nil {
		return fmt.Errorf("failed to stop playback: %w", err)
	}
	return nil
}

func (s *lavalinkSink) Disconnect(ctx context.Context) error {
	return s.adapter.leave(ctx, s.guildID)
}
