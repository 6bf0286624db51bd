package audio

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// greetingDisabled turns the greeting clip off when given as AUDIO_GREETING_PATH.
const greetingDisabled = "none"

// Config holds the audio module configuration.
type Config struct {
	LavalinkAddress  string `env:"LAVALINK_ADDRESS,notEmpty"`
	LavalinkPassword string `env:"LAVALINK_PASSWORD,notEmpty"`
	LavalinkSecure   bool   `env:"LAVALINK_SECURE"   envDefault:"false"`

	// Without Spotify credentials, Spotify links are rejected.
	SpotifyClientID     string `env:"SPOTIFY_CLIENT_ID"`
	SpotifyClientSecret string `env:"SPOTIFY_CLIENT_SECRET"`

	CacheDir      string `env:"AUDIO_CACHE_DIR"       envDefault:"./audio_cache"`
	CacheMaxBytes int64  `env:"AUDIO_CACHE_MAX_BYTES" envDefault:"8589934592"`
	GreetingPath  string `env:"AUDIO_GREETING_PATH"   envDefault:"assets/audio/obi_wan_hello_there.mp3"`
	QueuePageSize int    `env:"AUDIO_QUEUE_PAGE_SIZE" envDefault:"10"`
}

// ErrPartialSpotifyCredentials is returned when only one of the Spotify variables is set.
var ErrPartialSpotifyCredentials = errors.New(
	"SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together",
)

func parseConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if (c.SpotifyClientID == "") != (c.SpotifyClientSecret == "") {
		return ErrPartialSpotifyCredentials
	}
	if c.CacheMaxBytes <= 0 {
		return fmt.Errorf("AUDIO_CACHE_MAX_BYTES must be positive, got %d", c.CacheMaxBytes)
	}
	if c.QueuePageSize <= 0 {
		return fmt.Errorf("AUDIO_QUEUE_PAGE_SIZE must be positive, got %d", c.QueuePageSize)
	}
	return nil
}

// SpotifyEnabled reports whether Spotify credentials are configured.
func (c *Config) SpotifyEnabled() bool {
	return c.SpotifyClientID != "" && c.SpotifyClientSecret != ""
}

// GreetingEnabled reports whether a greeting clip should be played on connect.
func (c *Config) GreetingEnabled() bool {
	return c.GreetingPath != "" && c.GreetingPath != greetingDisabled
}
