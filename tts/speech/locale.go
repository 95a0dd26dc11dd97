package speech

import "golang.org/x/text/language"

// DefaultLocale is used for unknown language codes.
const DefaultLocale = "en-US"

// localeTable maps the short language codes the assistant accepts to
// platform locale tags.
var localeTable = map[string]string{
	"en": "en-US",
	"te": "te-IN",
	"hi": "hi-IN",
	"ta": "ta-IN",
	"kn": "kn-IN",
	"ml": "ml-IN",
	"mr": "mr-IN",
	"bn": "bn-IN",
	"gu": "gu-IN",
}

// ResolveLocale maps a short language code to a locale tag. Full tags such
// as "en-GB" pass through canonicalized; anything unrecognized defaults to
// DefaultLocale.
func ResolveLocale(code string) string {
	if tag, ok := localeTable[code]; ok {
		return tag
	}
	if t, err := language.Parse(code); err == nil {
		base, _ := t.Base()
		if tag, ok := localeTable[base.String()]; ok && t == language.Make(base.String()) {
			return tag
		}
		// Only keep tags that carry an explicit region; bare or exotic
		// tags fall back to the default rather than guessing.
		if _, conf := t.Region(); conf == language.Exact {
			return t.String()
		}
	}
	return DefaultLocale
}

// SameLanguage reports whether two locale tags share a language subtag.
func SameLanguage(a, b string) bool {
	ta, errA := language.Parse(a)
	tb, errB := language.Parse(b)
	if errA != nil || errB != nil {
		return false
	}
	baseA, _ := ta.Base()
	baseB, _ := tb.Base()
	return baseA == baseB
}
