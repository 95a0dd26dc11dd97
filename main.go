// Package main provides the entry point for the voicekit CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/dgnsrekt/voicekit/internal/genai"
	"github.com/dgnsrekt/voicekit/internal/httpapi"
	"github.com/dgnsrekt/voicekit/internal/observability"
	"github.com/dgnsrekt/voicekit/tts"
	"github.com/dgnsrekt/voicekit/tts/codec"
)

var (
	// Version as provided by goreleaser.
	Version = ""
	// CommitSHA as provided by goreleaser.
	CommitSHA = ""

	configFile string
	debug      bool

	rootCmd = &cobra.Command{
		Use:          "voicekit",
		Short:        "Speak text through cached remote synthesis with a native fallback",
		SilenceUsage: true,
	}

	speakCmd = &cobra.Command{
		Use:   "speak [TEXT]",
		Short: "Synthesize and play the given text",
		Args:  cobra.ExactArgs(1),
		RunE:  runSpeak,
	}

	serveCmd = &cobra.Command{
		Use:   "serve",
		Short: "Run the speech and chat proxy server",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
)

func runSpeak(cmd *cobra.Command, args []string) error {
	cfg, err := tts.LoadConfigFromViper()
	if err != nil {
		return err
	}
	if !cfg.Enabled {
		return errors.New("speech is disabled in the configuration")
	}

	remote, err := buildRemote(cfg)
	if err != nil {
		log.Warn("No remote synthesis available, relying on native speech", "error", err)
	}

	if out, _ := cmd.Flags().GetString("output"); out != "" {
		return writeWAV(cmd.Context(), cfg, remote, args[0], out)
	}

	ctrl, err := tts.NewDefaultController(cfg, remote)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	if err := ctrl.Unlock(); err != nil {
		log.Debug("Audio context could not be primed", "error", err)
	}

	done := make(chan struct{})
	if err := ctrl.Speak(cmd.Context(), args[0], func() { close(done) }); err != nil {
		return err
	}

	select {
	case <-done:
	case <-cmd.Context().Done():
		ctrl.Stop()
		<-done
	}
	return nil
}

// buildRemote prefers the hosted proxy when one is configured and falls
// back to calling the speech API directly with a local credential.
func buildRemote(cfg tts.Config) (tts.Remote, error) {
	if cfg.RemoteURL != "" {
		return tts.NewProxyRemote(cfg.RemoteURL), nil
	}

	key, err := genai.APIKeyFromEnv()
	if err != nil {
		return nil, err
	}
	client, err := genai.NewClient(key)
	if err != nil {
		return nil, err
	}
	return directRemote{client}, nil
}

type directRemote struct {
	client *genai.Client
}

func (d directRemote) Synthesize(ctx context.Context, text string) (string, error) {
	return d.client.SynthesizeSpeech(ctx, text)
}

// writeWAV synthesizes text and writes it as a WAV file instead of playing
// it, useful for inspecting what the remote service produced.
func writeWAV(ctx context.Context, cfg tts.Config, remote tts.Remote, text, path string) error {
	if remote == nil {
		return errors.New("writing audio requires a remote synthesis backend")
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RemoteTimeout)
	defer cancel()

	b64, err := remote.Synthesize(reqCtx, text)
	if err != nil {
		return err
	}
	pcm, err := codec.DecodeBase64(b64)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, codec.WrapWAV(pcm, cfg.SampleRate), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	log.Info("Audio written", "path", path, "duration", codec.Duration(len(pcm), cfg.SampleRate, 1))
	return nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Local .env files are a development convenience; a missing file is
	// not an error.
	_ = godotenv.Load()

	var upstream httpapi.Upstream
	if key, err := genai.APIKeyFromEnv(); err == nil {
		client, err := genai.NewClient(key)
		if err != nil {
			return err
		}
		upstream = client
	} else {
		log.Warn("No API credential configured, proxy endpoints will answer 500")
	}

	metrics := observability.NewMetrics("voicekit")
	server := httpapi.New(httpapi.Config{
		Greeting:             viper.GetString("proxy.greeting"),
		MapLink:              viper.GetString("proxy.map_link"),
		MaxRequestsPerSecond: viper.GetFloat64("proxy.rate_limit"),
	}, upstream, metrics)

	addr := viper.GetString("proxy.listen")
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           server.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("Proxy listening", "addr", addr)
		errCh <- httpServer.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.Info("Shutting down", "signal", sig)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}

func main() {
	closer, err := setupLog()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	if err := rootCmd.Execute(); err != nil {
		_ = closer()
		os.Exit(1)
	}
	_ = closer()
}

func setupLog() (func() error, error) {
	if debug || viper.GetBool("debug") {
		log.SetLevel(log.DebugLevel)
	}

	path := viper.GetString("log_file")
	if path == "" {
		return func() error { return nil }, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	log.SetOutput(f)
	log.SetReportTimestamp(true)
	return f.Close, nil
}

func init() {
	tryLoadConfigFromDefaultPlaces()
	if len(CommitSHA) >= 7 {
		vt := rootCmd.VersionTemplate()
		rootCmd.SetVersionTemplate(vt[:len(vt)-1] + " (" + CommitSHA[0:7] + ")\n")
	}
	if Version == "" {
		Version = "unknown (built from source)"
	}
	rootCmd.Version = Version
	rootCmd.InitDefaultCompletionCmd()

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", fmt.Sprintf("config file (default %s)", viper.GetViper().ConfigFileUsed()))
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	speakCmd.Flags().String("language", "en", "language code (en, te, hi, ta, kn)")
	speakCmd.Flags().String("voice", "", "preferred voice name")
	speakCmd.Flags().String("output", "", "write the synthesized audio to a WAV file instead of playing it")
	serveCmd.Flags().String("listen", ":8080", "proxy listen address")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("speech.language", speakCmd.Flags().Lookup("language"))
	_ = viper.BindPFlag("speech.voice", speakCmd.Flags().Lookup("voice"))
	_ = viper.BindPFlag("proxy.listen", serveCmd.Flags().Lookup("listen"))

	viper.SetDefault("proxy.listen", ":8080")
	viper.SetDefault("proxy.greeting", "Namaste!")
	viper.SetDefault("proxy.map_link", "")
	viper.SetDefault("proxy.rate_limit", 0)

	viper.SetDefault("speech.enabled", true)
	viper.SetDefault("speech.language", "en")
	viper.SetDefault("speech.sample_rate", 24000)
	viper.SetDefault("speech.cache_enabled", true)
	viper.SetDefault("speech.keep_alive", true)

	rootCmd.AddCommand(speakCmd, serveCmd, configCmd)
}

func tryLoadConfigFromDefaultPlaces() {
	scope := gap.NewScope(gap.User, "voicekit")
	dirs, err := scope.ConfigDirs()
	if err != nil {
		fmt.Println("Could not find configuration directory.")
		os.Exit(1)
	}

	if c := os.Getenv("XDG_CONFIG_HOME"); c != "" {
		dirs = append([]string{filepath.Join(c, "voicekit")}, dirs...)
	}
	if c := os.Getenv("VOICEKIT_CONFIG_HOME"); c != "" {
		dirs = append([]string{c}, dirs...)
	}

	for _, v := range dirs {
		viper.AddConfigPath(v)
	}

	viper.SetConfigName("voicekit")
	viper.SetConfigType("yaml")
	viper.SetEnvPrefix("voicekit")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Warn("Could not parse configuration file", "err", err)
		}
	}

	if used := viper.ConfigFileUsed(); used != "" {
		log.Debug("Using configuration file", "path", used)
		return
	}
	configFile = filepath.Join(dirs[0], "voicekit.yml")
}
