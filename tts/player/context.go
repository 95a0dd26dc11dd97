// Package player owns the shared audio output context and the currently
// playing source. At most one playback session is active at a time.
package player

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/ebitengine/oto/v3"
)

// ContextState tracks the lifecycle of the shared output context.
type ContextState int

const (
	// StateUninitialized means no platform context exists yet.
	StateUninitialized ContextState = iota
	// StateSuspended means the context exists but output is gated until an
	// explicit unlock or resume.
	StateSuspended
	// StateRunning means the context is producing audio.
	StateRunning
)

// String returns the string representation of the state.
func (s ContextState) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	default:
		return "unknown"
	}
}

// Common playback errors.
var (
	// ErrUnsupported indicates the platform audio subsystem is absent or
	// failed to initialize. Completion callbacks still fire.
	ErrUnsupported = errors.New("audio output not supported in this environment")
	// ErrTransient indicates a source start or context resume failure.
	// Completion callbacks still fire so callers never hang.
	ErrTransient = errors.New("transient playback failure")
)

// Source is an active output source created from a Context.
type Source interface {
	Play()
	Pause()
	IsPlaying() bool
	Close() error
}

// Context abstracts the platform audio output so the engine can run against
// real hardware or a mock.
type Context interface {
	// NewSource creates an output source reading PCM from r.
	NewSource(r io.Reader) (Source, error)

	// Suspend gates output, e.g. for power saving.
	Suspend() error

	// Resume lifts a suspension.
	Resume() error

	// SampleRate returns the context's output sample rate.
	SampleRate() int
}

// ContextFactory lazily constructs a Context on first use. The returned
// state reflects the platform autoplay policy.
type ContextFactory func() (Context, ContextState, error)

// otoContext adapts an oto context to the Context interface.
type otoContext struct {
	ctx        *oto.Context
	sampleRate int
}

// NewOtoContextFactory returns the production factory backed by oto. The
// context comes up running: desktop platforms have no autoplay gate.
func NewOtoContextFactory(sampleRate, channels int) ContextFactory {
	return func() (Context, ContextState, error) {
		options := &oto.NewContextOptions{
			SampleRate:   sampleRate,
			ChannelCount: channels,
			Format:       oto.FormatSignedInt16LE,
			BufferSize:   50 * time.Millisecond,
		}

		ctx, ready, err := oto.NewContext(options)
		if err != nil {
			return nil, StateUninitialized, fmt.Errorf("%w: %v", ErrUnsupported, err)
		}

		select {
		case <-ready:
		case <-time.After(5 * time.Second):
			return nil, StateUninitialized, fmt.Errorf("%w: context initialization timeout", ErrUnsupported)
		}

		log.Debug("audio context initialized", "sample_rate", sampleRate, "channels", channels)
		return &otoContext{ctx: ctx, sampleRate: sampleRate}, StateRunning, nil
	}
}

func (c *otoContext) NewSource(r io.Reader) (Source, error) {
	return c.ctx.NewPlayer(r), nil
}

func (c *otoContext) Suspend() error { return c.ctx.Suspend() }

func (c *otoContext) Resume() error { return c.ctx.Resume() }

func (c *otoContext) SampleRate() int { return c.sampleRate }
