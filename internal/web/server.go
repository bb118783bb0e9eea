// Package web assembles the HTTP server: health and metrics endpoints,
// static htdocs, and the chrome dispatcher that runs the components.
package web

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/logging"
)

// Options configures a Server.
type Options struct {
	DB         *sql.DB
	Dispatcher *chrome.Dispatcher
	// Identify resolves the requester before the dispatcher runs.
	Identify func(http.Handler) http.Handler
	// BasePath is the path the service is mounted under, e.g. "/review".
	BasePath string
	// HtdocsDir supplies static files that are not embedded, such as the
	// third-party client libraries.
	HtdocsDir   string
	CORSOrigins []string
	// BehindProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Leave it off unless a proxy always sets those headers.
	BehindProxy bool
	// Version is reported by /health.
	Version string
}

// Server is the code-comments HTTP server.
type Server struct {
	db      *sql.DB
	version string
	base    string
	handler http.Handler
}

// NewServer creates a server.
func NewServer(opts Options) *Server {
	s := &Server{db: opts.DB, version: opts.Version, base: strings.TrimRight(opts.BasePath, "/")}

	identify := opts.Identify
	if identify == nil {
		identify = func(next http.Handler) http.Handler { return next }
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	if opts.BehindProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/chrome/*", opts.Dispatcher.StaticHandler(opts.HtdocsDir))

	api := r.With(identify)
	if len(opts.CORSOrigins) > 0 {
		api = r.With(cors.Handler(cors.Options{
			AllowedOrigins:   opts.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
			AllowCredentials: true,
			MaxAge:           300,
		}), identify)
	}
	api.Handle("/code-comments/comments", opts.Dispatcher)
	api.Handle("/code-comments/comments/*", opts.Dispatcher)

	r.With(identify).Handle("/*", opts.Dispatcher)

	s.handler = r
	return s
}

// ServeHTTP implements http.Handler. Requests outside the base path are
// not found; the base path is stripped before routing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if s.base == "" {
		s.handler.ServeHTTP(w, r)
		return
	}
	rest, ok := strings.CutPrefix(r.URL.Path, s.base)
	if !ok || (rest != "" && !strings.HasPrefix(rest, "/")) {
		http.NotFound(w, r)
		return
	}
	if rest == "" {
		rest = "/"
	}
	r2 := r.Clone(r.Context())
	r2.URL.Path = rest
	r2.URL.RawPath = ""
	s.handler.ServeHTTP(w, r2)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", addr, "base", s.base)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, code := "ok", http.StatusOK
	if s.db != nil {
		if err := s.db.PingContext(r.Context()); err != nil {
			slog.Error("health check", "error", err)
			status, code = "unavailable", http.StatusServiceUnavailable
		}
	}
	body := map[string]string{"status": status}
	if s.version != "" {
		body["version"] = s.version
	}
	writeJSON(w, body, code)
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, data interface{}, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("encoding response", "error", err)
	}
}
