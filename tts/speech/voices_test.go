package speech

import "testing"

func TestSelectVoicePreference(t *testing.T) {
	voices := []Voice{
		{ID: "a", Name: "Alice", Locale: "en-GB"},
		{ID: "b", Name: "Bob", Locale: "en-US"},
		{ID: "c", Name: "Carol (Enhanced)", Locale: "en-US"},
		{ID: "d", Name: "Devi", Locale: "hi-IN"},
	}

	tests := []struct {
		name   string
		locale string
		wantID string
		wantOK bool
	}{
		{"quality voice beats plain exact match", "en-US", "c", true},
		{"exact locale beats language prefix", "en-GB", "a", true},
		{"language prefix when no exact match", "en-AU", "c", true},
		{"no match at all", "ta-IN", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := SelectVoice(voices, tt.locale, nil)
			if ok != tt.wantOK {
				t.Fatalf("SelectVoice ok = %v, want %v", ok, tt.wantOK)
			}
			if ok && v.ID != tt.wantID {
				t.Errorf("SelectVoice = %q, want %q", v.ID, tt.wantID)
			}
		})
	}
}

func TestSelectVoiceDeterministicTie(t *testing.T) {
	voices := []Voice{
		{ID: "first", Name: "First", Locale: "en-US"},
		{ID: "second", Name: "Second", Locale: "en-US"},
	}
	v, ok := SelectVoice(voices, "en-US", nil)
	if !ok || v.ID != "first" {
		t.Errorf("SelectVoice = %q, %v; want first voice on tie", v.ID, ok)
	}
}

func TestSelectVoiceEmptyList(t *testing.T) {
	if _, ok := SelectVoice(nil, "en-US", nil); ok {
		t.Error("SelectVoice on empty list should report no match")
	}
}

func TestDefaultRankerQualityKeywords(t *testing.T) {
	r := DefaultRanker{}
	for _, name := range []string{"Ava (Premium)", "NEURAL voice", "Tom Enhanced", "Natural Reader"} {
		v := Voice{Name: name, Locale: "en-US"}
		if got := r.Rank(v, "en-US"); got != 3 {
			t.Errorf("Rank(%q) = %d, want 3", name, got)
		}
	}
	plain := Voice{Name: "Plain", Locale: "en-US"}
	if got := r.Rank(plain, "en-US"); got != 2 {
		t.Errorf("Rank(plain exact) = %d, want 2", got)
	}
}
