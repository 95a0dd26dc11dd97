package speech

import (
	"context"
	"os/exec"
	"testing"
	"time"
)

func TestParseSayVoices(t *testing.T) {
	output := []byte(`Alex                en_US    # Most people recognize me by my voice.
Lekha               hi_IN    # Hello, my name is Lekha.
Samantha (Enhanced)  en_US    # Hello, my name is Samantha.
`)
	voices := parseSayVoices(output)
	if len(voices) != 3 {
		t.Fatalf("parsed %d voices, want 3", len(voices))
	}
	if voices[1].Name != "Lekha" || voices[1].Locale != "hi-IN" {
		t.Errorf("voice[1] = %+v, want Lekha hi-IN", voices[1])
	}
	if voices[2].Name != "Samantha (Enhanced)" {
		t.Errorf("voice[2].Name = %q, want match with quality marker intact", voices[2].Name)
	}
}

func TestParseEspeakVoices(t *testing.T) {
	output := []byte(`Pty Language       Age/Gender VoiceName          File                 Other Languages
 5  en              --/M      English_(America)  gmw/en-US
 5  hi              --/M      Hindi              inc/hi
`)
	voices := parseEspeakVoices(output)
	if len(voices) != 2 {
		t.Fatalf("parsed %d voices, want 2", len(voices))
	}
	if voices[0].ID != "en" || voices[0].Locale != "en-US" {
		t.Errorf("voice[0] = %+v, want en / en-US", voices[0])
	}
	if voices[1].ID != "hi" || voices[1].Locale != "hi-IN" {
		t.Errorf("voice[1] = %+v, want hi / hi-IN", voices[1])
	}
}

func TestVoicesRetriesAfterFailedEnumeration(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not available")
	}
	s := &execSynthesizer{command: "echo", timeout: time.Second}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Voices(cancelled); err == nil {
		t.Fatal("expected an error from an expired enumeration")
	}

	// A failed listing must not be cached; the next caller gets a fresh
	// attempt.
	if _, err := s.Voices(context.Background()); err != nil {
		t.Fatalf("Voices after failed first attempt: %v", err)
	}
	if _, err := s.Voices(cancelled); err != nil {
		t.Fatalf("successful listing was not cached: %v", err)
	}
}
