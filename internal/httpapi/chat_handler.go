package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

const (
	// personaInstruction fixes the assistant's voice and scope for every
	// chat request.
	personaInstruction = "You are a friendly on-site voice assistant for visitors. " +
		"Answer in two or three short sentences suitable for being read aloud. " +
		"Be warm and direct, avoid lists and markdown, and if you do not know " +
		"the answer say so plainly."

	// chatMaxTokens bounds the model output so replies stay speakable.
	chatMaxTokens = 256
)

// languageNames expands the short request codes for the language directive.
var languageNames = map[string]string{
	"en": "English",
	"te": "Telugu",
	"hi": "Hindi",
	"ta": "Tamil",
	"kn": "Kannada",
}

// locationKeywords trigger attaching a map link to the response.
var locationKeywords = []string{
	"where", "how to reach", "how do i get", "directions", "map", "location", "address",
}

type chatRequest struct {
	Text     string `json:"text"`
	Language string `json:"language,omitempty"`
}

type chatResponse struct {
	Text    string `json:"text"`
	MapLink string `json:"mapLink,omitempty"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		respondError(w, http.StatusBadRequest, "invalid request", "text must not be empty")
		return
	}
	if s.upstream == nil {
		respondError(w, http.StatusInternalServerError, "service not configured",
			"chat API credential is missing; set GEMINI_API_KEY")
		return
	}

	system := personaInstruction
	if name, ok := languageNames[strings.ToLower(strings.TrimSpace(req.Language))]; ok {
		system += fmt.Sprintf(" Reply in %s.", name)
	}

	reply, err := s.upstream.GenerateText(r.Context(), system, req.Text, chatMaxTokens)
	if err != nil {
		log.Error("Chat generation failed", "request_id", requestID(r.Context()), "error", err)
		if s.metrics != nil {
			s.metrics.UpstreamErrors.WithLabelValues("chat").Inc()
		}
		respondError(w, http.StatusInternalServerError, "chat generation failed", err.Error())
		return
	}

	resp := chatResponse{Text: dedupeGreeting(reply, s.cfg.Greeting)}
	if s.cfg.MapLink != "" && asksForLocation(req.Text) {
		resp.MapLink = s.cfg.MapLink
	}
	respondJSON(w, http.StatusOK, resp)
}

// dedupeGreeting normalizes reply so greeting appears exactly once, at the
// start, when the model emitted it at all. Matching ignores case; the
// model repeats the phrase often enough that stripping duplicates here is
// cheaper than fighting it with prompt wording.
func dedupeGreeting(reply, greeting string) string {
	greeting = strings.TrimSpace(greeting)
	if greeting == "" {
		return strings.TrimSpace(reply)
	}

	var b strings.Builder
	found := false
	for {
		i, n := foldIndex(reply, greeting)
		if i < 0 {
			b.WriteString(reply)
			break
		}
		found = true
		b.WriteString(reply[:i])
		reply = reply[i+n:]
	}
	if !found {
		return strings.TrimSpace(b.String())
	}

	rest := strings.TrimLeft(b.String(), " ,.!?\t\n")
	if rest == "" {
		return greeting
	}
	return greeting + " " + strings.TrimSpace(rest)
}

// foldIndex locates the first substring of s that case-folds equal to
// needle, returning its byte offset and length within s. Matching rune by
// rune keeps the offsets valid even where lowercasing changes a rune's
// encoded length, which a ToLower-ed shadow copy does not.
func foldIndex(s, needle string) (start, length int) {
	for i := range s {
		if n, ok := foldPrefix(s[i:], needle); ok {
			return i, n
		}
	}
	return -1, 0
}

// foldPrefix reports how many bytes at the start of s case-fold equal to
// needle.
func foldPrefix(s, needle string) (int, bool) {
	n := 0
	for _, want := range needle {
		got, size := utf8.DecodeRuneInString(s[n:])
		if size == 0 || unicode.ToLower(got) != unicode.ToLower(want) {
			return 0, false
		}
		n += size
	}
	return n, true
}

func asksForLocation(question string) bool {
	q := strings.ToLower(question)
	for _, kw := range locationKeywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}
