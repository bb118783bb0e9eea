package auth

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/evcraddock/code-comments/internal/chrome"
)

type ctxKey struct{}

// rateLimiter tracks failed API key attempts per IP.
type rateLimiter struct {
	mu       sync.Mutex
	attempts map[string][]time.Time
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{attempts: make(map[string][]time.Time)}
}

const (
	rateLimitWindow  = 1 * time.Minute
	rateLimitMaxFail = 10
)

// prune drops attempts older than the window. Callers hold mu.
func (rl *rateLimiter) prune(ip string, now time.Time) []time.Time {
	cutoff := now.Add(-rateLimitWindow)
	valid := rl.attempts[ip][:0]
	for _, t := range rl.attempts[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	if len(valid) == 0 {
		delete(rl.attempts, ip)
		return nil
	}
	rl.attempts[ip] = valid
	return valid
}

// limited reports whether ip has exhausted its failed attempts.
func (rl *rateLimiter) limited(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.prune(ip, time.Now())) >= rateLimitMaxFail
}

// recordFailure records a failed attempt.
func (rl *rateLimiter) recordFailure(ip string) {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	now := time.Now()
	rl.attempts[ip] = append(rl.prune(ip, now), now)
}

// Identifier resolves the requesting user from an API key or a header set
// by a trusted reverse proxy.
type Identifier struct {
	users         *UserStore
	apiKeys       *APIKeyStore
	trustedHeader string
	limiter       *rateLimiter
}

// NewIdentifier creates an Identifier. An empty trustedHeader disables
// header-based identity.
func NewIdentifier(users *UserStore, apiKeys *APIKeyStore, trustedHeader string) *Identifier {
	return &Identifier{
		users:         users,
		apiKeys:       apiKeys,
		trustedHeader: trustedHeader,
		limiter:       newRateLimiter(),
	}
}

// Middleware stores the requester's username on the request context.
// An invalid bearer key is rejected with 401; too many invalid keys from
// one address yield 429. Requests without credentials are anonymous.
func (id *Identifier) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		username := chrome.Anonymous

		if authHeader := r.Header.Get("Authorization"); strings.HasPrefix(authHeader, "Bearer ") {
			ip := clientIP(r)
			if id.limiter.limited(ip) {
				http.Error(w, "Too many requests", http.StatusTooManyRequests)
				return
			}

			user, err := id.apiKeys.Validate(strings.TrimPrefix(authHeader, "Bearer "))
			if err != nil {
				slog.Error("validating api key", "error", err)
				http.Error(w, "Internal error", http.StatusInternalServerError)
				return
			}
			if user == "" {
				id.limiter.recordFailure(ip)
				http.Error(w, "Invalid API key", http.StatusUnauthorized)
				return
			}
			username = user
		} else if id.trustedHeader != "" {
			if user := strings.TrimSpace(r.Header.Get(id.trustedHeader)); user != "" {
				username = user
			}
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, username)))
	})
}

// clientIP is the host part of RemoteAddr. Connections from one host share
// a failure budget whatever their source port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Identify returns the username stored by Middleware and its permissions.
func (id *Identifier) Identify(r *http.Request) (string, []string) {
	username := UsernameFromContext(r.Context())
	return username, id.users.Permissions(username)
}

// UsernameFromContext returns the requester, or "anonymous".
func UsernameFromContext(ctx context.Context) string {
	if u, ok := ctx.Value(ctxKey{}).(string); ok && u != "" {
		return u
	}
	return chrome.Anonymous
}
