package bot

import "github.com/bwmarrin/discordgo"

// InteractionHandler handles a Discord interaction. It answers through r; if it
// returns an error without having answered, the bot sends a generic error reply.
type InteractionHandler func(s *discordgo.Session, i *discordgo.InteractionCreate, r Responder) error

// EventHandler is a generic handler for any Discord event.
// It should be a function matching one of discordgo's handler signatures,
// e.g., func(s *discordgo.Session, m *discordgo.MessageCreate)
type EventHandler any

// ModuleDependencies is what the bot hands each module in Init.
// Session is already open when Init is called, so State.User is populated.
type ModuleDependencies struct {
	Session *discordgo.Session
	Config  *Config
}

// Module defines the interface that all bot modules must implement.
type Module interface {
	// Name returns the unique identifier for this module.
	Name() string

	// Commands returns the slash commands that this module provides.
	Commands() []*discordgo.ApplicationCommand

	// CommandHandlers returns a map of command names to their handlers.
	CommandHandlers() map[string]InteractionHandler

	// EventHandlers returns event handlers for this module.
	// Each handler should match a discordgo handler signature.
	EventHandlers() []EventHandler

	// Init initializes the module with the provided dependencies.
	Init(deps ModuleDependencies) error

	// Shutdown releases the module's resources. The bot calls it in
	// registration order before closing the Discord session.
	Shutdown() error
}

// ConfigurableModule is implemented by modules with their own environment
// configuration. The bot calls LoadConfig on every such module before it
// connects to Discord, so a bad setting fails startup early.
type ConfigurableModule interface {
	// LoadConfig parses and validates the module's settings.
	LoadConfig() error
}
