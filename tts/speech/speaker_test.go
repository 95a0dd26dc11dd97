package speech

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"
	"time"
)

func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal(msg)
}

func TestSpeakTwoSentencesInOrder(t *testing.T) {
	synth := NewMockSynthesizer()
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "Hello. How are you?", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired")

	want := []string{"Hello.", "How are you?"}
	if got := synth.Spoken(); !reflect.DeepEqual(got, want) {
		t.Errorf("spoken chunks = %v, want %v", got, want)
	}
	if n := ends.Load(); n != 1 {
		t.Errorf("onEnd fired %d times, want 1", n)
	}
}

func TestSpeakEmptyTextEndsImmediately(t *testing.T) {
	synth := NewMockSynthesizer()
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "   ", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	if n := ends.Load(); n != 1 {
		t.Errorf("onEnd fired %d times, want 1 immediately", n)
	}
	if got := synth.Spoken(); len(got) != 0 {
		t.Errorf("spoke %v for empty input", got)
	}
}

func TestSpeakSequentialNotConcurrent(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetAutoFinish(false)
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "One. Two. Three.", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	waitFor(t, func() bool { return len(synth.Utterances()) == 1 }, "first chunk never started")
	if got := len(synth.Utterances()); got != 1 {
		t.Fatalf("started %d utterances before first finished, want 1", got)
	}

	synth.Utterances()[0].Finish(nil)
	waitFor(t, func() bool { return len(synth.Utterances()) == 2 }, "second chunk never started")

	synth.Utterances()[1].Finish(nil)
	waitFor(t, func() bool { return len(synth.Utterances()) == 3 }, "third chunk never started")

	synth.Utterances()[2].Finish(nil)
	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired")
}

func TestSpeakContinuesAfterChunkError(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetAutoFinish(false)
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "First. Second.", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	waitFor(t, func() bool { return len(synth.Utterances()) == 1 }, "first chunk never started")
	synth.Utterances()[0].Finish(errors.New("engine hiccup"))

	waitFor(t, func() bool { return len(synth.Utterances()) == 2 }, "second chunk never started after error")
	synth.Utterances()[1].Finish(nil)

	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired")
}

func TestStopCancelsAndFiresOnEndOnce(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetAutoFinish(false)
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "One. Two. Three.", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	waitFor(t, func() bool { return len(synth.Utterances()) == 1 }, "first chunk never started")

	sp.Stop()
	sp.Stop()

	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired after Stop")

	if !synth.Utterances()[0].Cancelled() {
		t.Error("in-flight utterance was not cancelled")
	}

	// The run is stopped; no further chunks may start.
	time.Sleep(20 * time.Millisecond)
	if got := len(synth.Utterances()); got > 1 {
		t.Errorf("started %d utterances after Stop, want 1", got)
	}
	if n := ends.Load(); n != 1 {
		t.Errorf("onEnd fired %d times, want 1", n)
	}
}

func TestNewSpeakStopsPrevious(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetAutoFinish(false)
	sp := NewSpeaker(synth, nil)

	var firstEnds, secondEnds atomic.Int32
	if err := sp.Speak(context.Background(), "Old text.", "en", func() {
		firstEnds.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	waitFor(t, func() bool { return len(synth.Utterances()) == 1 }, "first request never started")

	if err := sp.Speak(context.Background(), "New text.", "en", func() {
		secondEnds.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}

	waitFor(t, func() bool { return firstEnds.Load() == 1 }, "first onEnd never fired")
	waitFor(t, func() bool { return len(synth.Utterances()) == 2 }, "second request never started")

	synth.Utterances()[1].Finish(nil)
	waitFor(t, func() bool { return secondEnds.Load() == 1 }, "second onEnd never fired")
}

func TestSpeakUsesSelectedVoice(t *testing.T) {
	synth := NewMockSynthesizer(
		Voice{ID: "lekha", Name: "Lekha", Locale: "hi-IN"},
		Voice{ID: "sam", Name: "Samantha", Locale: "en-US"},
	)
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "Namaste.", "hi", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired")

	if got := synth.Utterances()[0].Voice().ID; got != "lekha" {
		t.Errorf("spoke with voice %q, want lekha", got)
	}
}

func TestSpeakDefaultVoiceWhenListingFails(t *testing.T) {
	synth := NewMockSynthesizer()
	synth.SetVoicesErr(errors.New("enumeration unsupported"))
	sp := NewSpeaker(synth, nil)

	var ends atomic.Int32
	if err := sp.Speak(context.Background(), "Hello.", "en", func() {
		ends.Add(1)
	}); err != nil {
		t.Fatalf("Speak: %v", err)
	}
	waitFor(t, func() bool { return ends.Load() == 1 }, "onEnd never fired")

	if got := synth.Utterances()[0].Voice(); got != (Voice{}) {
		t.Errorf("expected platform default voice, got %+v", got)
	}
}

func TestSpeakNilSynthesizer(t *testing.T) {
	sp := NewSpeaker(nil, nil)

	var ends atomic.Int32
	err := sp.Speak(context.Background(), "Hello.", "en", func() { ends.Add(1) })
	if !errors.Is(err, ErrNoSynthesizer) {
		t.Fatalf("err = %v, want ErrNoSynthesizer", err)
	}
	if ends.Load() != 1 {
		t.Error("onEnd must still fire when no synthesizer exists")
	}
}
