package audio

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/kcbot/kcbot/internal/bot"
	"github.com/kcbot/kcbot/internal/modules/audio/application/events"
	"github.com/kcbot/kcbot/internal/modules/audio/application/ports"
	"github.com/kcbot/kcbot/internal/modules/audio/application/usecases"
	"github.com/kcbot/kcbot/internal/modules/audio/infrastructure"
	"github.com/kcbot/kcbot/internal/modules/audio/presentation/discord"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	moduleName = "audio"

	lavalinkConnectTimeout = 15 * time.Second
	shutdownTimeout        = 30 * time.Second
)

func init() {
	bot.Register(&AudioModule{})
}

// Compile-time interface checks.
var _ bot.ConfigurableModule = (*AudioModule)(nil)

// AudioModule plays audio from YouTube and Spotify links in voice channels.
type AudioModule struct {
	config          *Config
	logger          *slog.Logger
	commandHandlers *discord.CommandHandlers
	eventHandlers   *discord.EventHandlers
	lavalinkAdapter *infrastructure.LavalinkAdapter
	registry        *usecases.SessionRegistry

	eventBus            *infrastructure.ChannelEventBus
	notificationHandler *events.NotificationHandler
}

// Name returns the module name.
func (m *AudioModule) Name() string {
	return moduleName
}

// Commands returns the slash commands for this module.
func (m *AudioModule) Commands() []*discordgo.ApplicationCommand {
	return discord.Commands()
}

// CommandHandlers returns the command handlers for this module.
func (m *AudioModule) CommandHandlers() map[string]bot.InteractionHandler {
	return map[string]bot.InteractionHandler{
		"play":    m.commandHandlers.HandlePlay,
		"skip":    m.commandHandlers.HandleSkip,
		"stop":    m.commandHandlers.HandleStop,
		"pause":   m.commandHandlers.HandlePause,
		"resume":  m.commandHandlers.HandleResume,
		"queue":   m.commandHandlers.HandleQueue,
		"shuffle": m.commandHandlers.HandleShuffle,
		"remove":  m.commandHandlers.HandleRemove,
		"clear":   m.commandHandlers.HandleClear,
	}
}

// EventHandlers returns the event handlers for this module.
func (m *AudioModule) EventHandlers() []bot.EventHandler {
	return []bot.EventHandler{
		func(s *discordgo.Session, event *discordgo.VoiceServerUpdate) {
			m.handleVoiceServerUpdate(s, event)
		},
		func(s *discordgo.Session, event *discordgo.VoiceStateUpdate) {
			m.handleVoiceStateUpdate(s, event)
		},
	}
}

// LoadConfig loads module-specific configuration from environment variables.
func (m *AudioModule) LoadConfig() error {
	cfg, err := parseConfig()
	if err != nil {
		return err
	}
	m.config = cfg
	return nil
}

// Init initializes the module.
func (m *AudioModule) Init(deps bot.ModuleDependencies) error {
	if deps.Session == nil {
		return errors.New("audio module requires a Discord session")
	}
	if m.config == nil {
		if err := m.LoadConfig(); err != nil {
			return err
		}
	}
	m.logger = slog.Default().With("module", moduleName)

	metrics, err := infrastructure.NewMetrics(prometheus.DefaultRegisterer)
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	cache, err := infrastructure.NewFileCache(
		m.config.CacheDir,
		m.config.CacheMaxBytes,
		metrics,
		m.logger,
	)
	if err != nil {
		return err
	}

	ytdlp := infrastructure.NewYtdlp(m.logger)
	search := infrastructure.NewYouTubeSearch(ytdlp, m.logger)

	// Leave the interface nil, not a typed nil, when Spotify is off
	var catalog ports.CatalogProvider
	if m.config.SpotifyEnabled() {
		catalog = infrastructure.NewSpotifyCatalog(
			context.Background(),
			m.config.SpotifyClientID,
			m.config.SpotifyClientSecret,
		)
	} else {
		m.logger.Warn("spotify credentials not set, spotify links are disabled")
	}

	resolver := usecases.NewResolver(catalog, search, ytdlp, cache, metrics, m.logger)

	ctx, cancel := context.WithTimeout(context.Background(), lavalinkConnectTimeout)
	defer cancel()

	m.lavalinkAdapter, err = infrastructure.NewLavalinkAdapter(
		ctx,
		deps.Session,
		infrastructure.LavalinkConfig{
			Address:  m.config.LavalinkAddress,
			Password: m.config.LavalinkPassword,
			Secure:   m.config.LavalinkSecure,
		},
		m.logger,
	)
	if err != nil {
		return err
	}

	m.eventBus = infrastructure.NewChannelEventBus(infrastructure.DefaultEventBufferSize, m.logger)
	m.registry = usecases.NewSessionRegistry(usecases.SessionConfig{
		Resolver:     resolver,
		Publisher:    m.eventBus,
		Metrics:      metrics,
		Logger:       m.logger,
		GreetingPath: m.greetingPath(),
	})

	notifier := infrastructure.NewNotifier(deps.Session)
	m.notificationHandler = events.NewNotificationHandler(notifier, m.eventBus, m.logger)
	if err := m.notificationHandler.Start(); err != nil {
		return err
	}

	player := usecases.NewPlayerService(m.registry)
	voiceState := infrastructure.NewVoiceStateProvider(deps.Session.State)

	m.commandHandlers = discord.NewCommandHandlers(
		player,
		voiceState,
		m.lavalinkAdapter,
		m.notificationHandler,
		m.config.QueuePageSize,
	)
	m.eventHandlers = discord.NewEventHandlers(m.lavalinkAdapter.BotID(), player)

	m.logger.Info("initialized audio module",
		"cache_dir", cache.Dir(),
		"cache_max_bytes", m.config.CacheMaxBytes,
		"spotify", catalog != nil,
	)

	return nil
}

// greetingPath returns the absolute greeting path, or "" when the greeting is
// disabled or the file is missing. Lavalink loads local files by absolute path.
func (m *AudioModule) greetingPath() string {
	if !m.config.GreetingEnabled() {
		return ""
	}

	path, err := filepath.Abs(m.config.GreetingPath)
	if err != nil {
		m.logger.Warn("failed to resolve greeting path", "path", m.config.GreetingPath, "error", err)
		return ""
	}
	if _, err := os.Stat(path); err != nil {
		m.logger.Warn("greeting clip not found, greeting is disabled", "path", path, "error", err)
		return ""
	}
	return path
}

// Shutdown stops every session, then closes the event bus and Lavalink.
func (m *AudioModule) Shutdown() error {
	var errs []error

	if m.registry != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := m.registry.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	// After the registry so SessionClosed events are still delivered
	if m.eventBus != nil {
		m.eventBus.Close()
	}

	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.Close()
	}

	return errors.Join(errs...)
}

// Event handlers.

func (m *AudioModule) handleVoiceServerUpdate(
	_ *discordgo.Session,
	event *discordgo.VoiceServerUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceServerUpdate(event)
	}
}

func (m *AudioModule) handleVoiceStateUpdate(
	s *discordgo.Session,
	event *discordgo.VoiceStateUpdate,
) {
	if m.lavalinkAdapter != nil {
		m.lavalinkAdapter.OnVoiceStateUpdate(event)
	}
	if m.eventHandlers != nil {
		m.eventHandlers.HandleVoiceStateUpdate(s, event)
	}
}
