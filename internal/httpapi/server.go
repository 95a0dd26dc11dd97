// Package httpapi exposes the speech and chat proxy endpoints consumed by
// the assistant front end.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/dgnsrekt/voicekit/internal/observability"
)

// Upstream is the slice of the generative API client the handlers use.
type Upstream interface {
	SynthesizeSpeech(ctx context.Context, text string) (string, error)
	GenerateText(ctx context.Context, system, user string, maxTokens int) (string, error)
}

// Config carries the proxy's tunables.
type Config struct {
	// Greeting is the phrase the chat model tends to repeat; responses
	// are normalized to contain it exactly once, at the start.
	Greeting string

	// MapLink is returned alongside answers to location questions.
	MapLink string

	// MaxRequestsPerSecond caps inbound requests. Zero disables limiting.
	MaxRequestsPerSecond float64
}

// Server hosts the proxy endpoints.
type Server struct {
	cfg      Config
	upstream Upstream
	metrics  *observability.Metrics
	limiter  *rate.Limiter
}

// New builds a Server. upstream may be nil when no credential is
// configured; handlers then answer 500 with a configuration message.
func New(cfg Config, upstream Upstream, metrics *observability.Metrics) *Server {
	s := &Server{cfg: cfg, upstream: upstream, metrics: metrics}
	if cfg.MaxRequestsPerSecond > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.MaxRequestsPerSecond), int(cfg.MaxRequestsPerSecond)+1)
	}
	return s
}

// Router assembles the chi routing tree. The browser front end is served
// from arbitrary origins, so CORS stays fully open.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	}))
	if s.limiter != nil {
		r.Use(s.rateLimitMiddleware)
	}

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, http.StatusMethodNotAllowed, "method not allowed", r.Method+" is not supported here")
	})

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		observability.MetricsHandler().ServeHTTP(w, r)
	})

	r.Post("/v1/tts", s.handleTTS)
	r.Post("/v1/chat", s.handleChat)

	return r
}

type ctxKeyRequestID struct{}

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.NewString()
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKeyRequestID{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKeyRequestID{}).(string)
	return id
}

// statusRecorder captures the response code for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		started := time.Now()
		next.ServeHTTP(rec, r)

		log.Debug("Request handled",
			"request_id", requestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"elapsed", time.Since(started))

		if s.metrics != nil {
			s.metrics.Requests.WithLabelValues(r.URL.Path, strconv.Itoa(rec.status)).Inc()
			s.metrics.RequestDuration.WithLabelValues(r.URL.Path).Observe(time.Since(started).Seconds())
		}
	})
}

func (s *Server) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			respondError(w, http.StatusTooManyRequests, "rate limited", "slow down and retry shortly")
			return
		}
		next.ServeHTTP(w, r)
	})
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, out any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "eof") {
			return errEmptyBody
		}
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func respondError(w http.ResponseWriter, status int, message, details string) {
	respondJSON(w, status, errorResponse{Error: message, Details: details})
}
