package speech

import "testing"

func TestResolveLocale(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"en", "en-US"},
		{"te", "te-IN"},
		{"hi", "hi-IN"},
		{"ta", "ta-IN"},
		{"kn", "kn-IN"},
		{"EN", "en-US"},
		{"en-GB", "en-GB"},
		{"hi-IN", "hi-IN"},
		{"", DefaultLocale},
		{"zz", DefaultLocale},
		{"not a tag", DefaultLocale},
	}

	for _, tt := range tests {
		if got := ResolveLocale(tt.code); got != tt.want {
			t.Errorf("ResolveLocale(%q) = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestSameLanguage(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"en-US", "en-GB", true},
		{"en-US", "en-US", true},
		{"en-US", "hi-IN", false},
		{"te-IN", "te", true},
		{"bogus!", "en-US", false},
	}

	for _, tt := range tests {
		if got := SameLanguage(tt.a, tt.b); got != tt.want {
			t.Errorf("SameLanguage(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
