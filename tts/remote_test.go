package tts

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestProxyRemoteSynthesize(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req.Text != "hello" {
			t.Errorf("text = %q", req.Text)
		}
		json.NewEncoder(w).Encode(map[string]string{"base64Audio": "AAEC"})
	}))
	defer srv.Close()

	got, err := NewProxyRemote(srv.URL).Synthesize(context.Background(), "hello")
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	if got != "AAEC" {
		t.Errorf("audio = %q, want AAEC", got)
	}
}

func TestProxyRemoteErrorSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{
			"error":   "speech synthesis failed",
			"details": "quota exceeded",
		})
	}))
	defer srv.Close()

	_, err := NewProxyRemote(srv.URL).Synthesize(context.Background(), "hello")
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("err = %v, want ErrRemoteUnavailable", err)
	}
	if !strings.Contains(err.Error(), "speech synthesis failed") {
		t.Errorf("err %q lacks proxy message", err)
	}
}

func TestProxyRemoteEmptyAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"base64Audio": ""})
	}))
	defer srv.Close()

	if _, err := NewProxyRemote(srv.URL).Synthesize(context.Background(), "hello"); !errors.Is(err, ErrRemoteEmpty) {
		t.Errorf("err = %v, want ErrRemoteEmpty", err)
	}
}
