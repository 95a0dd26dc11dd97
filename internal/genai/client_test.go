package genai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c, err := NewClient("test-key", WithBaseURL(srv.URL), WithRateLimit(1000, 1000))
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return c
}

func TestSynthesizeSpeech(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if !strings.Contains(r.URL.Path, "tts") {
			t.Errorf("path = %s, want speech model endpoint", r.URL.Path)
		}
		if got := r.Header.Get("x-goog-api-key"); got != "test-key" {
			t.Errorf("api key header = %q", got)
		}

		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("forwarded text = %q", req.Contents[0].Parts[0].Text)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{
						"inlineData": map[string]any{
							"mimeType": "audio/L16;codec=pcm;rate=24000",
							"data":     "AAEC",
						},
					}},
				},
			}},
		})
	})

	audio, err := c.SynthesizeSpeech(context.Background(), "hello")
	if err != nil {
		t.Fatalf("SynthesizeSpeech: %v", err)
	}
	if audio != "AAEC" {
		t.Errorf("audio = %q, want AAEC", audio)
	}
}

func TestGenerateText(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.SystemInstruction == nil || req.SystemInstruction.Parts[0].Text != "be brief" {
			t.Error("system instruction not forwarded")
		}
		if req.GenerationConfig == nil || req.GenerationConfig.MaxOutputTokens != 256 {
			t.Error("max output tokens not forwarded")
		}

		json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "short answer"}},
				},
			}},
		})
	})

	got, err := c.GenerateText(context.Background(), "be brief", "question", 256)
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "short answer" {
		t.Errorf("text = %q", got)
	}
}

func TestEmptyCandidatesIsError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"candidates": []any{}})
	})

	if _, err := c.GenerateText(context.Background(), "", "hi", 0); !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("err = %v, want ErrEmptyResponse", err)
	}
}

func TestUpstreamErrorMessageSurfaced(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]any{
				"code":    429,
				"message": "quota exceeded",
				"status":  "RESOURCE_EXHAUSTED",
			},
		})
	})

	_, err := c.SynthesizeSpeech(context.Background(), "hi")
	if err == nil || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want upstream message surfaced", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(""); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestAPIKeyFromEnv(t *testing.T) {
	for _, name := range apiKeyEnvVars {
		t.Setenv(name, "")
	}

	if _, err := APIKeyFromEnv(); !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey with no vars set", err)
	}

	t.Setenv("GENAI_API_KEY", "fallback")
	if key, err := APIKeyFromEnv(); err != nil || key != "fallback" {
		t.Errorf("key = %q, err = %v", key, err)
	}

	t.Setenv("GEMINI_API_KEY", "primary")
	if key, _ := APIKeyFromEnv(); key != "primary" {
		t.Errorf("key = %q, want primary to win", key)
	}
}
