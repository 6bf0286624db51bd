package bot

import (
	"fmt"
	"log/slog"

	"github.com/caarlos0/env/v11"
)

// Log output formats.
const (
	LogFormatJSON = "json"
	LogFormatText = "text"
)

// Config holds the bot configuration loaded from environment variables.
type Config struct {
	DiscordToken string `env:"DISCORD_TOKEN,notEmpty"`

	LogLevel  slog.Level `env:"LOG_LEVEL"  envDefault:"info"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"json"`

	// MetricsAddress is where /metrics is served. Empty disables the endpoint.
	MetricsAddress string `env:"METRICS_ADDRESS"`
}

// LoadConfig loads configuration from environment variables.
// Returns an error if required fields are missing.
func LoadConfig() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	switch cfg.LogFormat {
	case LogFormatJSON, LogFormatText:
	default:
		return nil, fmt.Errorf("invalid LOG_FORMAT %q: must be %q or %q",
			cfg.LogFormat, LogFormatJSON, LogFormatText)
	}

	return cfg, nil
}
