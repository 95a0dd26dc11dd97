package player

import (
	"bytes"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/dgnsrekt/voicekit/tts/codec"
)

// unlockBufferDuration sizes the near-silent activation buffer played
// during Unlock. Strict platforms only open the output pipeline once a
// buffer has actually been scheduled from a user gesture.
const unlockBufferDuration = 30 * time.Millisecond

// keepAliveAmplitude is the peak sample value of the keep-alive noise.
// Exact zeros are avoided: some power-saving heuristics suspend graphs
// that only ever produce silence.
const keepAliveAmplitude = 3

// Engine owns one audio output context for its lifetime and enforces the
// at-most-one-active-session invariant.
type Engine struct {
	factory      ContextFactory
	pollInterval time.Duration

	mu        sync.Mutex
	ctx       Context
	state     ContextState
	session   *session
	keepAlive Source
}

// session is the currently active buffer-backed output source.
type session struct {
	id      uuid.UUID
	source  Source
	onEnded func()
	once    sync.Once
	stop    chan struct{}

	// pausedFlag is guarded by the engine mutex.
	pausedFlag bool
}

// end invokes the completion callback exactly once.
func (s *session) end() {
	s.once.Do(func() {
		if s.onEnded != nil {
			s.onEnded()
		}
	})
}

// NewEngine creates a playback engine. The context is not constructed until
// first use.
func NewEngine(factory ContextFactory) *Engine {
	return &Engine{
		factory:      factory,
		state:        StateUninitialized,
		pollInterval: 50 * time.Millisecond,
	}
}

// NewDefaultEngine creates an engine backed by the platform audio output at
// the remote synthesis sample rate.
func NewDefaultEngine() *Engine {
	return NewEngine(NewOtoContextFactory(codec.DefaultSampleRate, 1))
}

var (
	sharedOnce   sync.Once
	sharedEngine *Engine
)

// Shared returns the process-wide playback engine. The platform audio
// library supports a single output context per process, so everything that
// plays at the default sample rate goes through this engine.
func Shared() *Engine {
	sharedOnce.Do(func() {
		sharedEngine = NewDefaultEngine()
	})
	return sharedEngine
}

// State returns the current context state.
func (e *Engine) State() ContextState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ensureContext lazily constructs the context. Callers hold e.mu.
func (e *Engine) ensureContext() error {
	if e.ctx != nil {
		return nil
	}
	ctx, state, err := e.factory()
	if err != nil {
		return err
	}
	e.ctx = ctx
	e.state = state
	return nil
}

// resumeLocked lifts a suspension. Callers hold e.mu.
func (e *Engine) resumeLocked() error {
	if e.state != StateSuspended {
		return nil
	}
	if err := e.ctx.Resume(); err != nil {
		return fmt.Errorf("%w: resume: %v", ErrTransient, err)
	}
	e.state = StateRunning
	return nil
}

// Unlock prepares the output pipeline for playback. It must be called from
// a user input path on platforms that gate audio behind a gesture: it
// constructs the context if needed, resumes a suspended one and schedules a
// short near-silent buffer to force activation.
func (e *Engine) Unlock() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.ensureContext(); err != nil {
		return err
	}
	if err := e.resumeLocked(); err != nil {
		return err
	}

	pcm := codec.QuietNoise(unlockBufferDuration, e.ctx.SampleRate(), keepAliveAmplitude)
	src, err := e.ctx.NewSource(bytes.NewReader(pcm))
	if err != nil {
		return fmt.Errorf("%w: unlock source: %v", ErrTransient, err)
	}
	src.Play()

	// The activation buffer is fire-and-forget; close it after it drains.
	go func() {
		time.Sleep(2 * unlockBufferDuration)
		src.Close()
	}()

	log.Debug("audio context unlocked", "state", e.state)
	return nil
}

// Play starts playback of raw 16-bit PCM. Any prior session is fully
// stopped first. onEnded fires exactly once: on natural completion, on
// stop, or immediately if the source cannot be constructed.
func (e *Engine) Play(pcm []byte, onEnded func()) error {
	// Stopping fully completes before the new session starts; Stop fires
	// the prior callback outside the state lock.
	e.Stop()

	e.mu.Lock()
	if err := e.ensureContext(); err != nil {
		e.mu.Unlock()
		if onEnded != nil {
			onEnded()
		}
		return err
	}
	if err := e.resumeLocked(); err != nil {
		e.mu.Unlock()
		if onEnded != nil {
			onEnded()
		}
		return err
	}

	src, err := e.ctx.NewSource(bytes.NewReader(pcm))
	if err != nil {
		e.mu.Unlock()
		log.Warn("source construction failed", "err", err)
		if onEnded != nil {
			onEnded()
		}
		return fmt.Errorf("%w: new source: %v", ErrTransient, err)
	}

	sess := &session{
		id:      uuid.New(),
		source:  src,
		onEnded: onEnded,
		stop:    make(chan struct{}),
	}
	e.session = sess
	e.mu.Unlock()

	src.Play()
	log.Debug("playback started", "session", sess.id, "bytes", len(pcm))

	go e.monitor(sess)
	return nil
}

// monitor watches the session source and fires completion when it drains.
func (e *Engine) monitor(sess *session) {
	ticker := time.NewTicker(e.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-sess.stop:
			return
		case <-ticker.C:
			if sess.source.IsPlaying() {
				continue
			}

			e.mu.Lock()
			// Paused sessions also report not-playing; only a still-current,
			// unpaused session has truly drained.
			if e.session != sess {
				e.mu.Unlock()
				return
			}
			if sess.pausedFlag {
				e.mu.Unlock()
				continue
			}
			e.session = nil
			e.mu.Unlock()

			sess.source.Close()
			sess.end()
			log.Debug("playback completed", "session", sess.id)
			return
		}
	}
}

// Stop halts the active session, if any. It is idempotent and safe to call
// with no session active. The session's completion callback still fires.
func (e *Engine) Stop() {
	e.mu.Lock()
	sess := e.session
	e.session = nil
	e.mu.Unlock()

	if sess == nil {
		return
	}

	close(sess.stop)
	sess.source.Pause()
	sess.source.Close()
	sess.end()
	log.Debug("playback stopped", "session", sess.id)
}

// Pause suspends the active session without releasing it.
func (e *Engine) Pause() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return
	}
	e.session.pausedFlag = true
	e.session.source.Pause()
}

// Resume continues a paused session, resuming the context first if the
// platform suspended it in the meantime.
func (e *Engine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session == nil {
		return nil
	}
	if err := e.resumeLocked(); err != nil {
		return err
	}
	e.session.pausedFlag = false
	e.session.source.Play()
	return nil
}

// IsPlaying reports whether a session is active and not paused.
func (e *Engine) IsPlaying() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.session != nil && !e.session.pausedFlag
}

// StartKeepAlive loops an inaudible noise buffer to keep the hardware
// pipeline from idling, typically across a network round-trip. Idempotent.
func (e *Engine) StartKeepAlive() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.keepAlive != nil {
		return nil
	}
	if err := e.ensureContext(); err != nil {
		return err
	}
	if err := e.resumeLocked(); err != nil {
		return err
	}

	noise := codec.QuietNoise(250*time.Millisecond, e.ctx.SampleRate(), keepAliveAmplitude)
	src, err := e.ctx.NewSource(&loopReader{data: noise})
	if err != nil {
		return fmt.Errorf("%w: keep-alive source: %v", ErrTransient, err)
	}
	src.Play()
	e.keepAlive = src
	log.Debug("keep-alive started")
	return nil
}

// StopKeepAlive releases the keep-alive source. Idempotent.
func (e *Engine) StopKeepAlive() {
	e.mu.Lock()
	src := e.keepAlive
	e.keepAlive = nil
	e.mu.Unlock()

	if src == nil {
		return
	}
	src.Pause()
	src.Close()
	log.Debug("keep-alive stopped")
}

// Suspend gates the output context, pausing the active session if any.
func (e *Engine) Suspend() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.ctx == nil || e.state != StateRunning {
		return nil
	}
	if e.session != nil {
		e.session.pausedFlag = true
		e.session.source.Pause()
	}
	if err := e.ctx.Suspend(); err != nil {
		return fmt.Errorf("%w: suspend: %v", ErrTransient, err)
	}
	e.state = StateSuspended
	return nil
}

// loopReader replays its buffer forever. Used for the keep-alive signal.
type loopReader struct {
	data []byte
	pos  int
}

func (r *loopReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, io.EOF
	}
	n := 0
	for n < len(p) {
		c := copy(p[n:], r.data[r.pos:])
		n += c
		r.pos = (r.pos + c) % len(r.data)
	}
	return n, nil
}
