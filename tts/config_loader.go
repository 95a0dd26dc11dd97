package tts

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/spf13/viper"
)

// LoadConfigFromViper loads speech configuration from Viper, starting from
// defaults and applying only keys the user actually set.
func LoadConfigFromViper() (Config, error) {
	cfg := DefaultConfig()

	if viper.IsSet("speech.enabled") {
		cfg.Enabled = viper.GetBool("speech.enabled")
	}
	if viper.IsSet("speech.language") {
		cfg.Language = viper.GetString("speech.language")
	}
	if viper.IsSet("speech.voice") {
		cfg.Voice = viper.GetString("speech.voice")
	}
	if viper.IsSet("speech.sample_rate") {
		cfg.SampleRate = viper.GetInt("speech.sample_rate")
	}
	if viper.IsSet("speech.cache_enabled") {
		cfg.CacheEnabled = viper.GetBool("speech.cache_enabled")
	}
	if viper.IsSet("speech.cache_dir") {
		cfg.CacheDir = viper.GetString("speech.cache_dir")
	}
	if viper.IsSet("speech.remote_url") {
		cfg.RemoteURL = viper.GetString("speech.remote_url")
	}
	if viper.IsSet("speech.remote_timeout") {
		if d, err := time.ParseDuration(viper.GetString("speech.remote_timeout")); err == nil {
			cfg.RemoteTimeout = d
		}
	}
	if viper.IsSet("speech.keep_alive") {
		cfg.KeepAlive = viper.GetBool("speech.keep_alive")
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}

// LoadConfigFromEnv loads configuration from environment variables on top
// of the defaults.
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := env.Parse(&cfg); err != nil {
		return cfg, fmt.Errorf("parsing environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid speech configuration: %w", err)
	}
	return cfg, nil
}
