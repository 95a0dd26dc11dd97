package tts

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dgnsrekt/voicekit/tts/speech"
)

// proxyRemote calls the hosted speech proxy's POST endpoint.
type proxyRemote struct {
	url        string
	httpClient *http.Client
}

// NewProxyRemote returns a Remote backed by the speech proxy at url.
func NewProxyRemote(url string) Remote {
	return &proxyRemote{url: url, httpClient: &http.Client{}}
}

func (p *proxyRemote) Synthesize(ctx context.Context, text string) (string, error) {
	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrRemoteUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Error   string `json:"error"`
			Details string `json:"details"`
		}
		if json.Unmarshal(raw, &e) == nil && e.Error != "" {
			return "", fmt.Errorf("%w: %s (status %d)", ErrRemoteUnavailable, e.Error, resp.StatusCode)
		}
		return "", fmt.Errorf("%w: status %d", ErrRemoteUnavailable, resp.StatusCode)
	}

	var out struct {
		Base64Audio string `json:"base64Audio"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Base64Audio == "" {
		return "", ErrRemoteEmpty
	}
	return out.Base64Audio, nil
}

func speechSynthesizer() (speech.Synthesizer, error) {
	return speech.NewSynthesizer()
}

func newSpeakerFallback(synth speech.Synthesizer) Fallback {
	return speech.NewSpeaker(synth, nil)
}
