// Package tts orchestrates the speech pipeline: cached clip lookup, remote
// synthesis, local playback, and the native speech fallback.
package tts

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/dgnsrekt/voicekit/tts/cache"
	"github.com/dgnsrekt/voicekit/tts/codec"
	"github.com/dgnsrekt/voicekit/tts/player"
)

// Controller owns one speech pipeline. Starting a new request fully stops
// the previous one before any new audio starts, and every request's
// completion callback fires exactly once, success or failure.
type Controller struct {
	cfg      Config
	remote   Remote
	clips    ClipCache
	player   Player
	fallback Fallback

	mu     sync.Mutex
	closed bool
	active *speakSession
}

// speakSession identifies one in-flight Speak request so a replaced
// request can detect that it lost ownership before starting playback.
type speakSession struct {
	cancel context.CancelFunc
}

// NewController wires the pipeline. remote, clips, and fallback may each be
// nil; the controller degrades to the remaining paths.
func NewController(cfg Config, remote Remote, clips ClipCache, p Player, fallback Fallback) (*Controller, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if p == nil {
		return nil, errors.New("tts: player is required")
	}
	return &Controller{
		cfg:      cfg,
		remote:   remote,
		clips:    clips,
		player:   p,
		fallback: fallback,
	}, nil
}

// Speak schedules text for playback and returns once the previous request
// has been stopped and the new one is underway. onDone fires exactly once,
// whether playback succeeds, fails, or is replaced by a newer request.
func (c *Controller) Speak(ctx context.Context, text string, onDone func()) error {
	done := onceFunc(onDone)

	text = strings.TrimSpace(text)
	if text == "" {
		done()
		return ErrNothingToSpeak
	}

	reqCtx, cancel := context.WithCancel(ctx)
	sess := &speakSession{cancel: cancel}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		cancel()
		done()
		return ErrControllerShutdown
	}
	prev := c.active
	c.active = sess
	c.mu.Unlock()

	// The previous request winds down completely before this one starts;
	// its callback fires from Stop, not from here.
	if prev != nil {
		prev.cancel()
	}
	c.player.Stop()
	if c.fallback != nil {
		c.fallback.Stop()
	}

	go c.run(reqCtx, sess, text, done)
	return nil
}

func (c *Controller) run(ctx context.Context, sess *speakSession, text string, done func()) {
	key := cache.Key(text, c.cfg.Language, c.cfg.Voice)

	payload, hit := c.cachedClip(key)
	if !hit {
		var err error
		payload, err = c.fetchClip(ctx, key, text)
		if err != nil {
			if ctx.Err() != nil {
				done()
				return
			}
			log.Debug("Remote synthesis failed, falling back to native speech", "error", err)
			c.speakNative(ctx, text, done)
			return
		}
	}

	if ctx.Err() != nil {
		done()
		return
	}

	pcm, err := codec.DecodeBase64(string(payload))
	if err != nil || len(pcm) == 0 {
		log.Debug("Cached clip is undecodable, falling back to native speech", "key", key, "error", err)
		c.speakNative(ctx, text, done)
		return
	}

	// Ownership is rechecked under the lock right as playback starts: a
	// replacement landing after the context check above must not get its
	// stale clip on the speaker.
	c.mu.Lock()
	if c.active != sess || ctx.Err() != nil {
		c.mu.Unlock()
		done()
		return
	}
	playErr := c.player.Play(pcm, done)
	c.mu.Unlock()

	if playErr != nil {
		// The player has already fired done; an unsupported environment
		// or a transient start failure both end the request here.
		log.Debug("Playback did not start", "error", playErr)
	}
}

func (c *Controller) cachedClip(key string) ([]byte, bool) {
	if !c.cfg.CacheEnabled || c.clips == nil {
		return nil, false
	}
	return c.clips.Get(key)
}

// fetchClip synthesizes text remotely, keeping the audio pipeline warm
// while the request is in flight, and caches the result.
func (c *Controller) fetchClip(ctx context.Context, key, text string) ([]byte, error) {
	if c.remote == nil {
		return nil, ErrRemoteUnavailable
	}

	if c.cfg.KeepAlive {
		if err := c.player.StartKeepAlive(); err != nil {
			log.Debug("Keep-alive unavailable", "error", err)
		}
		defer c.player.StopKeepAlive()
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.RemoteTimeout)
	defer cancel()

	started := time.Now()
	b64, err := c.remote.Synthesize(reqCtx, text)
	if err != nil {
		return nil, err
	}
	if b64 == "" {
		return nil, ErrRemoteEmpty
	}
	log.Debug("Remote synthesis finished", "chars", len(text), "elapsed", time.Since(started))

	payload := []byte(b64)
	if c.cfg.CacheEnabled && c.clips != nil {
		c.clips.Put(key, payload)
	}
	return payload, nil
}

func (c *Controller) speakNative(ctx context.Context, text string, done func()) {
	if c.fallback == nil {
		done()
		return
	}
	if err := c.fallback.Speak(ctx, text, c.cfg.Language, done); err != nil {
		// The fallback invokes done itself even when it cannot speak.
		log.Debug("Native speech unavailable", "error", err)
	}
}

// Stop cancels the active request. Its completion callback still fires.
func (c *Controller) Stop() {
	c.mu.Lock()
	sess := c.active
	c.active = nil
	c.mu.Unlock()

	if sess != nil {
		sess.cancel()
	}
	c.player.Stop()
	if c.fallback != nil {
		c.fallback.Stop()
	}
}

// Pause suspends playback of the active clip.
func (c *Controller) Pause() { c.player.Pause() }

// Resume continues a paused clip.
func (c *Controller) Resume() error { return c.player.Resume() }

// IsPlaying reports whether a clip is audible right now.
func (c *Controller) IsPlaying() bool { return c.player.IsPlaying() }

// Unlock primes the audio context from a user gesture. Browsers and some
// desktops refuse to start audio output without one.
func (c *Controller) Unlock() error { return c.player.Unlock() }

// Close stops the pipeline and rejects further requests.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.Stop()
}

// onceFunc wraps fn so repeated calls run it a single time. A nil fn
// yields a no-op.
func onceFunc(fn func()) func() {
	var once sync.Once
	return func() {
		if fn != nil {
			once.Do(fn)
		}
	}
}

// NewDefaultController assembles the production pipeline from cfg: oto
// playback, on-disk clip cache, and the platform speech fallback.
func NewDefaultController(cfg Config, remote Remote) (*Controller, error) {
	var clips ClipCache
	if cfg.CacheEnabled && cfg.CacheDir != "" {
		clips = cache.Open(cfg.CacheDir)
	}

	// The platform supports one output context per process; reuse the
	// shared engine unless the configuration asks for a non-default rate.
	engine := player.Shared()
	if cfg.SampleRate != codec.DefaultSampleRate {
		engine = player.NewEngine(player.NewOtoContextFactory(cfg.SampleRate, 1))
	}

	var fallback Fallback
	if synth, err := speechSynthesizer(); err == nil {
		fallback = newSpeakerFallback(synth)
	} else {
		log.Debug("No native speech engine found", "error", err)
	}

	return NewController(cfg, remote, clips, engine, fallback)
}
