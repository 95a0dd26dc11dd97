package speech

import (
	"reflect"
	"testing"
)

func TestSplitChunksSentences(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{
			name:  "two sentences",
			input: "Hello. How are you?",
			want:  []string{"Hello.", "How are you?"},
		},
		{
			name:  "three sentences mixed terminals",
			input: "Stop! Wait here. Ready?",
			want:  []string{"Stop!", "Wait here.", "Ready?"},
		},
		{
			name:  "terminal runs stay attached",
			input: "Really?! Yes... sure.",
			want:  []string{"Really?!", "Yes...", "sure."},
		},
		{
			name:  "trailing text without terminal",
			input: "First. second without period",
			want:  []string{"First.", "second without period"},
		},
		{
			name:  "surrounding whitespace",
			input: "  Hello. World.  ",
			want:  []string{"Hello.", "World."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitChunks(tt.input)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitChunks(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSplitChunksWhitespaceFallback(t *testing.T) {
	got := SplitChunks("one two three")
	want := []string{"one", "two", "three"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitChunks = %v, want %v", got, want)
	}
}

func TestSplitChunksWholeStringFallback(t *testing.T) {
	got := SplitChunks("hello")
	want := []string{"hello"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitChunks = %v, want %v", got, want)
	}
}

func TestSplitChunksEmpty(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\t"} {
		if got := SplitChunks(input); got != nil {
			t.Errorf("SplitChunks(%q) = %v, want nil", input, got)
		}
	}
}
