package httpapi

import (
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/log"
)

// maxSpeechInput bounds how much text goes to the speech model per request.
// Longer inputs are cut at a sentence boundary where one exists.
const maxSpeechInput = 320

type ttsRequest struct {
	Text string `json:"text"`
}

type ttsResponse struct {
	Base64Audio string `json:"base64Audio"`
}

func (s *Server) handleTTS(w http.ResponseWriter, r *http.Request) {
	var req ttsRequest
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
			"speech API credential is missing; set GEMINI_API_KEY")
		return
	}

	text := truncateForSpeech(req.Text, maxSpeechInput)
	if len(text) < len(strings.TrimSpace(req.Text)) {
		log.Debug("Input truncated for synthesis", "original", len(req.Text), "sent", len(text))
		if s.metrics != nil {
			s.metrics.TruncatedInputs.Inc()
		}
	}

	started := time.Now()
	audio, err := s.upstream.SynthesizeSpeech(r.Context(), text)
	if err != nil {
		log.Error("Speech synthesis failed", "request_id", requestID(r.Context()), "error", err)
		if s.metrics != nil {
			s.metrics.UpstreamErrors.WithLabelValues("tts").Inc()
		}
		respondError(w, http.StatusInternalServerError, "speech synthesis failed", err.Error())
		return
	}
	if s.metrics != nil {
		s.metrics.ObserveSynthesisLatency(time.Since(started))
	}

	respondJSON(w, http.StatusOK, ttsResponse{Base64Audio: audio})
}

// truncateForSpeech shortens text to at most limit bytes, preferring a cut
// after the last sentence terminal past the halfway mark, then the last
// space, then a hard cut.
func truncateForSpeech(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}

	// Back the window off to a rune boundary so multibyte scripts are
	// never split mid-rune by the hard cut.
	cut := limit
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}

	window := text[:cut]
	if i := strings.LastIndexAny(window, ".!?"); i >= limit/2 {
		return strings.TrimSpace(window[:i+1])
	}
	if i := strings.LastIndex(window, " "); i > 0 {
		return strings.TrimSpace(window[:i])
	}
	return window
}
