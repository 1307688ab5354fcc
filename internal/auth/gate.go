package auth

import (
	"context"
	"net/http"
	"strings"
)

// LoginPath is where unauthenticated browser requests are sent.
const LoginPath = "/login"

const apiPrefix = "/api/"

// Paths that pass the gate regardless of session state: probes, static
// assets, and the login/logout endpoints themselves.
var (
	exemptPrefixes = []string{"/healthz", "/readyz", "/static/"}
	exemptPaths    = []string{"/login", "/logout"}
)

type sessionContextKey struct{}

// SessionFromContext returns the session the gate attached to the request,
// if any.
func SessionFromContext(ctx context.Context) (Session, bool) {
	sess, ok := ctx.Value(sessionContextKey{}).(Session)
	return sess, ok
}

// Gate returns middleware that enforces session authentication on every
// request. It holds no state of its own; each invocation is a fresh
// decision against the session store (whose Get refreshes LastAccessed
// as a side effect).
func Gate(store *SessionStore, enabled bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path

			if isExempt(path) || !enabled {
				next.ServeHTTP(w, r)
				return
			}

			if id := CookieValue(r.Header.Get("Cookie"), SessionCookieName); id != "" {
				if sess, ok := store.Get(id); ok {
					ctx := context.WithValue(r.Context(), sessionContextKey{}, sess)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
			}

			// API clients can't follow a login redirect meaningfully.
			if strings.HasPrefix(path, apiPrefix) {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
			http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		})
	}
}

func isExempt(path string) bool {
	for _, p := range exemptPaths {
		if path == p {
			return true
		}
	}
	for _, prefix := range exemptPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}
	return false
}
