package httpapi

import (
	"context"
	"net"
	"net/http"
	"strings"

	"traveldiary/internal/db"
)

type ctxKey string

const ctxPrincipal ctxKey = "principal"

// principal returns the authenticated user of the request, or nil.
func principal(r *http.Request) *db.User {
	u, _ := r.Context().Value(ctxPrincipal).(*db.User)
	return u
}

// withPrincipal resolves the session cookie on every request. Failures
// leave the request anonymous.
func (s *Server) withPrincipal(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/static/") {
			next.ServeHTTP(w, r)
			return
		}
		if u := s.Sessions.Resolve(r.Context(), r); u != nil {
			r = r.WithContext(context.WithValue(r.Context(), ctxPrincipal, u))
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal(r) == nil {
			s.Flashes.Add(w, r, flashWarning, "Please log in to access this page.")
			redirect(w, r, "/login")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) redirectIfAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if principal(r) != nil {
			redirect(w, r, "/")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func withSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("x-content-type-options", "nosniff")
		w.Header().Set("x-frame-options", "DENY")
		w.Header().Set("referrer-policy", "same-origin")
		w.Header().Set("content-security-policy", "default-src 'self'; img-src 'self'; object-src 'none'; base-uri 'self'; form-action 'self'; frame-ancestors 'none'")
		if r.TLS != nil {
			w.Header().Set("strict-transport-security", "max-age=31536000")
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP extracts the remote IP without a port.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return strings.TrimSpace(r.RemoteAddr)
	}
	return host
}
