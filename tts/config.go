package tts

import (
	"fmt"
	"time"

	gap "github.com/muesli/go-app-paths"
)

// Config contains all speech pipeline configuration options.
type Config struct {
	// Global settings
	Enabled  bool   `yaml:"enabled" env:"VOICEKIT_ENABLED" envDefault:"true"`
	Language string `yaml:"language" env:"VOICEKIT_LANGUAGE" envDefault:"en"`
	Voice    string `yaml:"voice" env:"VOICEKIT_VOICE" envDefault:""`

	// Audio settings
	SampleRate int `yaml:"sample_rate" env:"VOICEKIT_SAMPLE_RATE" envDefault:"24000"`

	// Cache settings
	CacheEnabled bool   `yaml:"cache_enabled" env:"VOICEKIT_CACHE_ENABLED" envDefault:"true"`
	CacheDir     string `yaml:"cache_dir" env:"VOICEKIT_CACHE_DIR"`

	// Remote settings
	RemoteURL     string        `yaml:"remote_url" env:"VOICEKIT_REMOTE_URL"`
	RemoteTimeout time.Duration `yaml:"remote_timeout" env:"VOICEKIT_REMOTE_TIMEOUT" envDefault:"30s"`

	// Keep-alive loops an inaudible buffer while the remote request is in
	// flight so the audio pipeline does not idle mid-request.
	KeepAlive bool `yaml:"keep_alive" env:"VOICEKIT_KEEP_ALIVE" envDefault:"true"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Enabled:       true,
		Language:      "en",
		SampleRate:    24000,
		CacheEnabled:  true,
		CacheDir:      defaultCacheDir(),
		RemoteTimeout: 30 * time.Second,
		KeepAlive:     true,
	}
}

// defaultCacheDir resolves the platform cache directory. An empty return
// disables on-disk caching rather than failing.
func defaultCacheDir() string {
	scope := gap.NewScope(gap.User, "voicekit")
	dir, err := scope.CacheDir()
	if err != nil {
		return ""
	}
	return dir
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.SampleRate < 8000 || c.SampleRate > 48000 {
		return fmt.Errorf("%w: sample rate %d outside 8000-48000", ErrInvalidSampleRate, c.SampleRate)
	}
	if c.Language == "" {
		return fmt.Errorf("%w: language must not be empty", ErrInvalidConfig)
	}
	if c.RemoteTimeout <= 0 {
		return fmt.Errorf("%w: remote timeout must be positive", ErrInvalidConfig)
	}
	return nil
}
