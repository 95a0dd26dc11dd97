package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"

	"github.com/charmbracelet/x/editor"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const defaultConfig = `# enable debug logging
debug: false
# append logs to this file instead of stderr
# log_file: "/tmp/voicekit.log"

# Speech pipeline configuration
speech:
  # Enable local speech playback
  enabled: true
  # Language code: en, te, hi, ta, kn
  language: "en"
  # Preferred voice name (empty uses the platform default)
  voice: ""
  # Sample rate of synthesized audio
  sample_rate: 24000
  # Cache synthesized clips on disk
  cache_enabled: true
  # cache_dir: "/path/to/cache"
  # Hosted speech proxy; leave empty to call the speech API directly
  # remote_url: "https://example.com/v1/tts"
  remote_timeout: "30s"
  # Loop an inaudible buffer while a remote request is in flight
  keep_alive: true

# Proxy server configuration (voicekit serve)
proxy:
  listen: ":8080"
  # Greeting phrase deduplicated in chat replies
  greeting: "Namaste!"
  # Map link returned for location questions
  # map_link: "https://maps.example.com/venue"
  # Requests per second; 0 disables limiting
  rate_limit: 0
`

var configCmd = &cobra.Command{
	Use:     "config",
	Short:   "Edit the voicekit config file",
	Long:    "Edit the voicekit config file. EDITOR determines which editor to use. If the config file doesn't exist, it will be created.",
	Example: "voicekit config\nvoicekit config --config path/to/config.yml",
	Args:    cobra.NoArgs,
	RunE: func(*cobra.Command, []string) error {
		if err := ensureConfigFile(); err != nil {
			return err
		}

		c, err := editor.Cmd("voicekit", configFile)
		if err != nil {
			return fmt.Errorf("unable to set config file: %w", err)
		}
		c.Stdin = os.Stdin
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		if err := c.Run(); err != nil {
			return fmt.Errorf("unable to run command: %w", err)
		}

		fmt.Println("Wrote config file to:", configFile)
		return nil
	},
}

func ensureConfigFile() error {
	if configFile == "" {
		configFile = viper.GetViper().ConfigFileUsed()
		if err := os.MkdirAll(filepath.Dir(configFile), 0o755); err != nil { //nolint:gosec
			return fmt.Errorf("could not write configuration file: %w", err)
		}
	}

	if ext := path.Ext(configFile); ext != ".yaml" && ext != ".yml" {
		return fmt.Errorf("'%s' is not a supported configuration type: use '%s' or '%s'", ext, ".yaml", ".yml")
	}

	if _, err := os.Stat(configFile); errors.Is(err, fs.ErrNotExist) {
		if err := os.MkdirAll(filepath.Dir(configFile), 0o700); err != nil {
			return fmt.Errorf("unable create directory: %w", err)
		}

		f, err := os.Create(configFile)
		if err != nil {
			return fmt.Errorf("unable to create config file: %w", err)
		}
		defer func() { _ = f.Close() }()

		if _, err := f.WriteString(defaultConfig); err != nil {
			return fmt.Errorf("unable to write config file: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("unable to stat config file: %w", err)
	}
	return nil
}
