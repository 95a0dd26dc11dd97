package speech

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// ErrNoSynthesizer is returned when no speech command is available on the
// host system.
var ErrNoSynthesizer = errors.New("speech: no synthesizer available")

// Utterance is a single in-flight speech request. Handles must be retained
// until Wait or Cancel returns, otherwise the process may be reaped early.
type Utterance interface {
	// Wait blocks until the utterance finishes or fails.
	Wait() error

	// Cancel stops the utterance. Safe to call after completion.
	Cancel()
}

// Synthesizer speaks raw text through a platform speech facility.
type Synthesizer interface {
	// Voices lists the voices the platform offers. May be slow on first
	// call; returns an empty slice when enumeration is unsupported.
	Voices(ctx context.Context) ([]Voice, error)

	// Speak starts speaking text with voice (zero Voice means platform
	// default) and returns a handle for the in-flight utterance.
	Speak(ctx context.Context, text string, voice Voice) (Utterance, error)
}

const defaultUtteranceTimeout = 60 * time.Second

// execSynthesizer shells out to the platform speech binary: `say` on macOS,
// `espeak-ng` (or `espeak`) elsewhere. Text goes through stdin so it is
// never interpreted as a flag.
type execSynthesizer struct {
	command string
	timeout time.Duration

	voicesMu sync.Mutex
	voices   []Voice
	listed   bool
}

// NewSynthesizer probes the host for a usable speech command.
func NewSynthesizer() (Synthesizer, error) {
	for _, candidate := range platformCommands() {
		if _, err := exec.LookPath(candidate); err == nil {
			log.Debug("Speech synthesizer selected", "command", candidate)
			return &execSynthesizer{
				command: candidate,
				timeout: defaultUtteranceTimeout,
			}, nil
		}
	}
	return nil, ErrNoSynthesizer
}

func platformCommands() []string {
	if runtime.GOOS == "darwin" {
		return []string{"say"}
	}
	return []string{"espeak-ng", "espeak"}
}

func (s *execSynthesizer) Voices(ctx context.Context) ([]Voice, error) {
	s.voicesMu.Lock()
	defer s.voicesMu.Unlock()

	if s.listed {
		return s.voices, nil
	}

	// Only a successful enumeration is cached. The first caller's deadline
	// may expire mid-listing, and that must not pin every later request to
	// the platform default voice.
	voices, err := s.listVoices(ctx)
	if err != nil {
		return nil, err
	}
	s.voices = voices
	s.listed = true
	return s.voices, nil
}

func (s *execSynthesizer) listVoices(ctx context.Context) ([]Voice, error) {
	var args []string
	if s.command == "say" {
		args = []string{"-v", "?"}
	} else {
		args = []string{"--voices"}
	}

	cmd := exec.CommandContext(ctx, s.command, args...)
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("listing voices with %s: %w", s.command, err)
	}

	if s.command == "say" {
		return parseSayVoices(output), nil
	}
	return parseEspeakVoices(output), nil
}

// parseSayVoices parses `say -v ?` lines of the form
// "Samantha (Enhanced)  en_US   # Hello, my name is Samantha".
func parseSayVoices(output []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(output))
	for scanner.Scan() {
		line := scanner.Text()
		name, rest, ok := strings.Cut(line, "  ")
		if !ok {
			continue
		}
		fields := strings.Fields(rest)
		if len(fields) == 0 {
			continue
		}
		locale := strings.ReplaceAll(fields[0], "_", "-")
		name = strings.TrimSpace(name)
		voices = append(voices, Voice{ID: name, Name: name, Locale: locale})
	}
	return voices
}

// parseEspeakVoices parses `espeak-ng --voices` table rows where column two
// is the language code and column four the voice name.
func parseEspeakVoices(output []byte) []Voice {
	var voices []Voice
	scanner := bufio.NewScanner(bytes.NewReader(output))
	first := true
	for scanner.Scan() {
		if first {
			first = false // header row
			continue
		}
		fields := strings.Fields(scanner.Text())
		if len(fields) < 4 {
			continue
		}
		voices = append(voices, Voice{
			ID:     fields[1],
			Name:   fields[3],
			Locale: ResolveLocale(fields[1]),
		})
	}
	return voices
}

func (s *execSynthesizer) Speak(ctx context.Context, text string, voice Voice) (Utterance, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)

	var args []string
	if voice.ID != "" {
		args = append(args, "-v", voice.ID)
	}

	cmd := exec.CommandContext(ctx, s.command, args...)

	// Stdin must be wired up before Start to avoid racing the process.
	cmd.Stdin = strings.NewReader(text)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		cancel()
		return nil, fmt.Errorf("starting %s: %w", s.command, err)
	}

	u := &execUtterance{cancel: cancel}
	u.done = make(chan struct{})
	go func() {
		defer close(u.done)
		defer cancel()
		err := cmd.Wait()
		if err != nil && ctx.Err() == nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				err = fmt.Errorf("%s failed: %w: %s", s.command, err, msg)
			} else {
				err = fmt.Errorf("%s failed: %w", s.command, err)
			}
		}
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		u.mu.Lock()
		u.err = err
		u.mu.Unlock()
	}()
	return u, nil
}

type execUtterance struct {
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

func (u *execUtterance) Wait() error {
	<-u.done
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.err
}

func (u *execUtterance) Cancel() {
	u.cancel()
	<-u.done
}
