// internal/httpserver/server.go
//
// HTTP server wiring for the Code Breaker backend.
// Responsibilities:
//   - Router + middleware (JSON, CORS, timeouts, panic recovery, request IDs,
//     access logging, per-client rate limiting).
//   - Public endpoints: "/", "/health", "/leaderboard".
//   - Session endpoints: POST /sessions, then token-gated commands under
//     /sessions/{id} and a websocket event stream.
//   - Mapping of the game error taxonomy onto HTTP statuses.
//
// Notes:
//   - CORS is origin-aware and credentials-enabled (so cookies work).
//   - The websocket route sits outside the handler timeout.

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog/hlog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/codebreaker/internal/domain"
	"github.com/robalobadob/codebreaker/internal/play"
	"github.com/robalobadob/codebreaker/internal/results"
)

var errRateLimited = errors.New("too many requests")

// Scoreboard serves the leaderboard. *results.Store satisfies it.
type Scoreboard interface {
	Leaderboard(ctx context.Context, limit int) ([]results.Result, error)
}

// Config holds the server-level settings.
type Config struct {
	ClientOrigin     string
	JWTSecret        string
	TokenTTL         time.Duration
	SecureCookies    bool
	AllowFixedSecret bool
	RatePerSecond    float64
	RateBurst        int
	HandlerTimeout   time.Duration
}

// Server bundles router, session manager, and scoreboard.
type Server struct {
	r      *chi.Mux
	games  *play.Manager
	scores Scoreboard // nil when the scoreboard is disabled
	tokens *tokens
	cfg    Config
}

// New constructs a Server, installs middleware, and registers routes.
func New(games *play.Manager, scores Scoreboard, cfg Config) *Server {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.HandlerTimeout <= 0 {
		cfg.HandlerTimeout = 10 * time.Second
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = 10
	}
	if cfg.RateBurst <= 0 {
		cfg.RateBurst = 20
	}
	s := &Server{
		r:      chi.NewRouter(),
		games:  games,
		scores: scores,
		tokens: &tokens{secret: []byte(cfg.JWTSecret), ttl: cfg.TokenTTL, secure: cfg.SecureCookies},
		cfg:    cfg,
	}
	limiter := newClientLimiter(cfg.RatePerSecond, cfg.RateBurst)

	// --- middleware ---
	s.r.Use(chimw.RequestID)             // add X-Request-ID
	s.r.Use(chimw.RealIP)                // set RemoteAddr from X-Forwarded-For etc.
	s.r.Use(hlog.NewHandler(log.Logger)) // request-scoped logger
	s.r.Use(accessLog)
	s.r.Use(chimw.Recoverer) // recover from panics
	s.r.Use(jsonContentType) // default JSON responses
	s.r.Use(s.cors)          // credentials-friendly CORS

	// --- diagnostics ---
	s.r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"service": "codebreaker-go",
			"endpoints": []string{
				"/health", "/leaderboard", "POST /sessions",
				"/sessions/{id}", "/sessions/{id}/events",
			},
		})
	})
	s.r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	s.r.Group(func(r chi.Router) {
		r.Use(chimw.Timeout(cfg.HandlerTimeout))
		r.Use(limiter.middleware)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Post("/sessions", s.handleCreate)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleGet)
			r.Delete("/", s.handleRemove)
			r.Post("/insert", s.handleInsert)
			r.Post("/delete", s.handleDelete)
			r.Post("/clear", s.handleClear)
			r.Post("/search", s.handleSearch)
			r.Post("/restart", s.handleRestart)
			r.Get("/hint", s.handleHint)
		})
	})

	// Event stream: long-lived, so no handler timeout.
	s.r.With(s.requireSession).Get("/sessions/{id}/events", s.handleEvents)

	// JSON 404 for easier debugging
	s.r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return s
}

// Serve listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// Router exposes the internal router (useful for tests).
func (s *Server) Router() chi.Router { return s.r }

// ----------------------------- middleware ----------------------------------

// jsonContentType sets a default JSON Content-Type header on all responses.
func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}

// cors enables credentialed CORS for the configured origin.
func (s *Server) cors(next http.Handler) http.Handler {
	origin := s.cfg.ClientOrigin
	if origin == "" {
		origin = "http://localhost:5173"
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Vary", "Origin")
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Credentials", "true")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,DELETE,OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// accessLog logs one line per request at debug level.
var accessLog = hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
	hlog.FromRequest(r).Debug().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("request_id", chimw.GetReqID(r.Context())).
		Int("status", status).
		Int("size", size).
		Dur("duration", dur).
		Msg("request")
})

// ------------------------------- responses ---------------------------------

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorRes struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeJSONError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, errorRes{Error: kind, Message: err.Error()})
}

// writeGameError maps the game error taxonomy onto HTTP statuses.
func writeGameError(w http.ResponseWriter, r *http.Request, err error) {
	kind := domain.Kind(err)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrValueOutOfRange),
		errors.Is(err, domain.ErrIndexOutOfBounds):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrSessionNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrSessionTerminal),
		errors.Is(err, domain.ErrNotStarted):
		status = http.StatusConflict
	default:
		hlog.FromRequest(r).Error().Err(err).Msg("unexpected game error")
	}
	writeJSONError(w, status, kind, err)
}
