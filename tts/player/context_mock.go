package player

import (
	"errors"
	"io"
	"sync"
)

// MockContext implements Context for tests without touching audio hardware.
type MockContext struct {
	mu         sync.Mutex
	sources    []*MockSource
	suspends   int
	resumes    int
	sourceErr  error
	sampleRate int
}

// NewMockContext creates a mock context at the given sample rate.
func NewMockContext(sampleRate int) *MockContext {
	return &MockContext{sampleRate: sampleRate}
}

// NewMockContextFactory returns a factory producing ctx in initialState.
func NewMockContextFactory(ctx *MockContext, initialState ContextState) ContextFactory {
	return func() (Context, ContextState, error) {
		return ctx, initialState, nil
	}
}

// NewFailingContextFactory returns a factory that always fails, simulating
// an unsupported environment.
func NewFailingContextFactory() ContextFactory {
	return func() (Context, ContextState, error) {
		return nil, StateUninitialized, ErrUnsupported
	}
}

// FailNextSource makes subsequent NewSource calls fail with err.
func (c *MockContext) FailNextSource(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err == nil {
		err = errors.New("source construction failed")
	}
	c.sourceErr = err
}

func (c *MockContext) NewSource(r io.Reader) (Source, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sourceErr != nil {
		return nil, c.sourceErr
	}
	src := &MockSource{reader: r}
	c.sources = append(c.sources, src)
	return src, nil
}

func (c *MockContext) Suspend() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.suspends++
	return nil
}

func (c *MockContext) Resume() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resumes++
	return nil
}

func (c *MockContext) SampleRate() int { return c.sampleRate }

// Resumes returns how many times Resume was called.
func (c *MockContext) Resumes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.resumes
}

// Sources returns every source created so far.
func (c *MockContext) Sources() []*MockSource {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*MockSource, len(c.sources))
	copy(out, c.sources)
	return out
}

// ActiveSources counts sources that are playing and not closed.
func (c *MockContext) ActiveSources() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, src := range c.sources {
		if src.IsPlaying() {
			n++
		}
	}
	return n
}

// MockSource is a controllable Source. Playback does not advance on its
// own; tests call Finish to simulate the buffer draining.
type MockSource struct {
	mu      sync.Mutex
	reader  io.Reader
	playing bool
	closed  bool
	plays   int
	pauses  int
}

func (s *MockSource) Play() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.playing = true
	s.plays++
}

func (s *MockSource) Pause() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.pauses++
}

func (s *MockSource) IsPlaying() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.playing && !s.closed
}

func (s *MockSource) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
	s.closed = true
	return nil
}

// Finish simulates the source reaching the end of its buffer.
func (s *MockSource) Finish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.playing = false
}

// Closed reports whether the source was released.
func (s *MockSource) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
