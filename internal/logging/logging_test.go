package logging

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5/middleware"
)

func TestSetupDevMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(true)
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level enabled in dev mode")
	}
}

func TestSetupProdMode(t *testing.T) {
	old := slog.Default()
	defer slog.SetDefault(old)

	Setup(false)
	if slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("expected debug level disabled in prod mode")
	}
	if !slog.Default().Enabled(context.Background(), slog.LevelInfo) {
		t.Error("expected info level enabled in prod mode")
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	return &buf
}

func TestRequestLogger(t *testing.T) {
	buf := captureLogs(t)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	handler := middleware.RequestID(RequestLogger(inner))

	req := httptest.NewRequest("GET", "/code-comments", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	for _, want := range []string{"method=GET", "path=/code-comments", "status=200", "request_id="} {
		if !bytes.Contains(buf.Bytes(), []byte(want)) {
			t.Errorf("expected %q in log: %s", want, buf.String())
		}
	}
}

func TestRequestLoggerSkipsQuietPaths(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	for _, path := range []string{"/chrome/code-comments/code-comments.css", "/health", "/metrics"} {
		t.Run(path, func(t *testing.T) {
			buf := captureLogs(t)

			rec := httptest.NewRecorder()
			RequestLogger(inner).ServeHTTP(rec, httptest.NewRequest("GET", path, nil))

			if buf.Len() > 0 {
				t.Errorf("expected no log for %s, got %s", path, buf.String())
			}
		})
	}
}

func TestRequestLoggerLevels(t *testing.T) {
	tests := []struct {
		status int
		level  string
	}{
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
		{http.StatusSeeOther, "level=INFO"},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			buf := captureLogs(t)

			inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			})
			rec := httptest.NewRecorder()
			RequestLogger(inner).ServeHTTP(rec, httptest.NewRequest("GET", "/missing", nil))

			if !bytes.Contains(buf.Bytes(), []byte(tt.level)) {
				t.Errorf("expected %s in log: %s", tt.level, buf.String())
			}
		})
	}
}
