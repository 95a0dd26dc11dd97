package speech

import "strings"

// Voice identifies a platform speech voice.
type Voice struct {
	ID     string // Engine-specific identifier
	Name   string // Human-readable name
	Locale string // Locale tag, e.g. "en-US"
}

// VoiceRanker scores a voice for a target locale. Higher wins; scores at or
// below zero are never selected. The heuristics involved are environment
// specific, so the ranker is a replaceable policy rather than fixed logic.
type VoiceRanker interface {
	Rank(v Voice, locale string) int
}

// qualityKeywords mark voices that platforms ship in a higher-quality tier.
var qualityKeywords = []string{"premium", "enhanced", "neural", "natural"}

// DefaultRanker prefers exact locale matches with a quality keyword in the
// name, then exact locale matches, then same-language matches.
type DefaultRanker struct{}

// Rank implements VoiceRanker.
func (DefaultRanker) Rank(v Voice, locale string) int {
	exact := strings.EqualFold(v.Locale, locale)
	switch {
	case exact && hasQualityKeyword(v.Name):
		return 3
	case exact:
		return 2
	case SameLanguage(v.Locale, locale):
		return 1
	default:
		return 0
	}
}

func hasQualityKeyword(name string) bool {
	lower := strings.ToLower(name)
	for _, kw := range qualityKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// SelectVoice picks the best voice for locale, or false if nothing scores
// above zero, in which case the platform default voice applies. Ties keep
// the earliest voice, so selection is deterministic for a given list.
func SelectVoice(voices []Voice, locale string, ranker VoiceRanker) (Voice, bool) {
	if ranker == nil {
		ranker = DefaultRanker{}
	}

	best := -1
	bestScore := 0
	for i, v := range voices {
		if score := ranker.Rank(v, locale); score > bestScore {
			best = i
			bestScore = score
		}
	}
	if best < 0 {
		return Voice{}, false
	}
	return voices[best], true
}
