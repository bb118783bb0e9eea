package auth

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/evcraddock/code-comments/internal/chrome"
	"github.com/evcraddock/code-comments/internal/db"
)

func testIdentifier(t *testing.T, trustedHeader string) (*Identifier, *APIKeyStore) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	d, err := db.Open(path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if err := d.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	keys := NewAPIKeyStore(d)
	return NewIdentifier(NewUserStore(d, []string{"root"}), keys, trustedHeader), keys
}

// whoami echoes the identified username.
func whoami(id *Identifier) http.Handler {
	return id.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name, perms := id.Identify(r)
		w.Header().Set("X-Perms", strconv.Itoa(len(perms)))
		_, _ = w.Write([]byte(name))
	}))
}

func TestIdentifyAnonymous(t *testing.T) {
	id, _ := testIdentifier(t, "")

	w := httptest.NewRecorder()
	whoami(id).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != chrome.Anonymous {
		t.Errorf("user = %q, want %q", w.Body.String(), chrome.Anonymous)
	}
}

func TestIdentifyAPIKey(t *testing.T) {
	id, keys := testIdentifier(t, "")
	rawKey, _, err := keys.Create("cli", "root")
	if err != nil {
		t.Fatalf("create key: %v", err)
	}

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer "+rawKey)
	w := httptest.NewRecorder()
	whoami(id).ServeHTTP(w, r)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if w.Body.String() != "root" {
		t.Errorf("user = %q, want root", w.Body.String())
	}
}

func TestIdentifyInvalidAPIKey(t *testing.T) {
	id, _ := testIdentifier(t, "")

	r := httptest.NewRequest("GET", "/", nil)
	r.Header.Set("Authorization", "Bearer cc_bogus")
	w := httptest.NewRecorder()
	whoami(id).ServeHTTP(w, r)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestIdentifyRateLimitsInvalidKeys(t *testing.T) {
	id, _ := testIdentifier(t, "")
	h := whoami(id)

	var last int
	for i := 0; i < rateLimitMaxFail+1; i++ {
		r := httptest.NewRequest("GET", "/", nil)
		r.Header.Set("Authorization", "Bearer cc_bogus")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestIdentifyRateLimitIgnoresSourcePort(t *testing.T) {
	id, _ := testIdentifier(t, "")
	h := whoami(id)

	var last int
	for i := 0; i < rateLimitMaxFail+1; i++ {
		r := httptest.NewRequest("GET", "/", nil)
		r.RemoteAddr = "192.0.2.7:" + strconv.Itoa(40000+i)
		r.Header.Set("Authorization", "Bearer cc_bogus")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, r)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", last, http.StatusTooManyRequests)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		remote string
		want   string
	}{
		{"192.0.2.7:1234", "192.0.2.7"},
		{"[2001:db8::1]:443", "2001:db8::1"},
		{"192.0.2.7", "192.0.2.7"},
	}

	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.remote, ":", "_"), func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if got := clientIP(r); got != tt.want {
				t.Errorf("clientIP(%q) = %q, want %q", tt.remote, got, tt.want)
			}
		})
	}
}

func TestIdentifyTrustedHeader(t *testing.T) {
	tests := []struct {
		name    string
		trusted string
		value   string
		want    string
	}{
		{"header honored", "X-Remote-User", "alice", "alice"},
		{"blank header", "X-Remote-User", "  ", chrome.Anonymous},
		{"header not configured", "", "alice", chrome.Anonymous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, _ := testIdentifier(t, tt.trusted)

			r := httptest.NewRequest("GET", "/", nil)
			r.Header.Set("X-Remote-User", tt.value)
			w := httptest.NewRecorder()
			whoami(id).ServeHTTP(w, r)

			if w.Body.String() != tt.want {
				t.Errorf("user = %q, want %q", w.Body.String(), tt.want)
			}
		})
	}
}

func TestUsernameFromContextDefault(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	if got := UsernameFromContext(r.Context()); got != chrome.Anonymous {
		t.Errorf("got %q, want %q", got, chrome.Anonymous)
	}
}
