package speech

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// voiceListTimeout bounds how long a request waits for platform voice
// enumeration before falling back to the default voice.
const voiceListTimeout = 2 * time.Second

// Speaker reads text aloud through a platform synthesizer, chunk by chunk.
// It is the fallback path when synthesized audio cannot be produced or
// played, so it degrades rather than fails: a missing voice list or an
// unrankable locale still speaks with the platform default voice.
type Speaker struct {
	synth  Synthesizer
	ranker VoiceRanker

	mu      sync.Mutex
	current *speakRun
}

// NewSpeaker wraps synth. A nil ranker selects DefaultRanker.
func NewSpeaker(synth Synthesizer, ranker VoiceRanker) *Speaker {
	if ranker == nil {
		ranker = DefaultRanker{}
	}
	return &Speaker{synth: synth, ranker: ranker}
}

// speakRun tracks one Speak call. Utterance handles stay referenced until
// the whole sequence ends so the synthesizer cannot reap them mid-speech.
type speakRun struct {
	stopped atomic.Bool
	endOnce sync.Once
	onEnd   func()

	mu         sync.Mutex
	utterances []Utterance
}

func (r *speakRun) end() {
	if r.onEnd != nil {
		r.endOnce.Do(r.onEnd)
	}
}

func (r *speakRun) track(u Utterance) {
	r.mu.Lock()
	r.utterances = append(r.utterances, u)
	r.mu.Unlock()
}

func (r *speakRun) stop() {
	r.stopped.Store(true)
	r.mu.Lock()
	pending := r.utterances
	r.mu.Unlock()
	for _, u := range pending {
		u.Cancel()
	}
	r.end()
}

// Speak splits text into chunks and speaks them strictly in order: each
// chunk starts only after the previous one completed, successfully or not.
// onEnd fires exactly once, after the last chunk or on Stop, whichever
// comes first. Empty text fires onEnd immediately with nothing spoken.
// A new Speak stops any speech still in progress.
func (s *Speaker) Speak(ctx context.Context, text, lang string, onEnd func()) error {
	if s.synth == nil {
		if onEnd != nil {
			onEnd()
		}
		return ErrNoSynthesizer
	}

	chunks := SplitChunks(text)
	if len(chunks) == 0 {
		if onEnd != nil {
			onEnd()
		}
		return nil
	}

	run := &speakRun{onEnd: onEnd}

	s.mu.Lock()
	prev := s.current
	s.current = run
	s.mu.Unlock()
	if prev != nil {
		prev.stop()
	}

	voice := s.pickVoice(ctx, lang)

	go s.speakChunks(ctx, run, chunks, voice)
	return nil
}

// pickVoice resolves lang to a locale and selects the best-ranked voice.
// Voice listing is bounded; on timeout or error the zero Voice stands for
// the platform default.
func (s *Speaker) pickVoice(ctx context.Context, lang string) Voice {
	locale := ResolveLocale(lang)

	listCtx, cancel := context.WithTimeout(ctx, voiceListTimeout)
	defer cancel()

	voices, err := s.synth.Voices(listCtx)
	if err != nil {
		log.Debug("Voice listing unavailable, using platform default", "error", err)
		return Voice{}
	}

	v, ok := SelectVoice(voices, locale, s.ranker)
	if !ok {
		log.Debug("No voice matched locale, using platform default", "locale", locale)
		return Voice{}
	}
	log.Debug("Voice selected", "voice", v.Name, "locale", v.Locale)
	return v
}

func (s *Speaker) speakChunks(ctx context.Context, run *speakRun, chunks []string, voice Voice) {
	defer run.end()

	for i, chunk := range chunks {
		if run.stopped.Load() || ctx.Err() != nil {
			return
		}

		u, err := s.synth.Speak(ctx, chunk, voice)
		if err != nil {
			// Skipping a failed chunk keeps the sequence moving.
			log.Debug("Chunk failed to start", "index", i, "error", err)
			continue
		}
		run.track(u)

		if err := u.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			log.Debug("Chunk ended with error", "index", i, "error", err)
		}
	}
}

// Stop cancels any speech in progress. The pending onEnd callback still
// fires. Safe to call with nothing speaking.
func (s *Speaker) Stop() {
	s.mu.Lock()
	run := s.current
	s.current = nil
	s.mu.Unlock()

	if run != nil {
		run.stop()
	}
}
