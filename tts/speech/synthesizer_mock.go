package speech

import (
	"context"
	"sync"
)

// MockSynthesizer records Speak calls for tests. Utterances complete when
// the test calls FinishNext or immediately when AutoFinish is set.
type MockSynthesizer struct {
	mu         sync.Mutex
	voices     []Voice
	voicesErr  error
	speakErr   error
	autoFinish bool
	spoken     []string
	utterances []*MockUtterance
}

// NewMockSynthesizer returns a mock that finishes every utterance as soon
// as it starts. Use SetAutoFinish(false) to control completion manually.
func NewMockSynthesizer(voices ...Voice) *MockSynthesizer {
	return &MockSynthesizer{voices: voices, autoFinish: true}
}

func (m *MockSynthesizer) SetAutoFinish(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoFinish = v
}

func (m *MockSynthesizer) SetVoicesErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.voicesErr = err
}

func (m *MockSynthesizer) SetSpeakErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.speakErr = err
}

func (m *MockSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.voicesErr != nil {
		return nil, m.voicesErr
	}
	return m.voices, nil
}

func (m *MockSynthesizer) Speak(ctx context.Context, text string, voice Voice) (Utterance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.speakErr != nil {
		return nil, m.speakErr
	}
	u := &MockUtterance{voice: voice, done: make(chan struct{})}
	m.spoken = append(m.spoken, text)
	m.utterances = append(m.utterances, u)
	if m.autoFinish {
		u.finish(nil)
	}
	return u, nil
}

// Spoken returns the texts passed to Speak, in call order.
func (m *MockSynthesizer) Spoken() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.spoken))
	copy(out, m.spoken)
	return out
}

// Utterances returns the handles created so far, in call order.
func (m *MockSynthesizer) Utterances() []*MockUtterance {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*MockUtterance, len(m.utterances))
	copy(out, m.utterances)
	return out
}

type MockUtterance struct {
	voice Voice

	mu        sync.Mutex
	finished  bool
	cancelled bool
	err       error
	done      chan struct{}
}

func (u *MockUtterance) Wait() error {
	<-u.done
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

func (u *MockUtterance) Cancel() {
	u.mu.Lock()
	u.cancelled = true
	u.mu.Unlock()
	u.finish(context.Canceled)
}

// Finish completes the utterance with err. No-op if already done.
func (u *MockUtterance) Finish(err error) { u.finish(err) }

func (u *MockUtterance) finish(err error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.finished {
		return
	}
	u.finished = true
	u.err = err
	close(u.done)
}

func (u *MockUtterance) Cancelled() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.cancelled
}

// Voice reports the voice the utterance was started with.
func (u *MockUtterance) Voice() Voice { return u.voice }
