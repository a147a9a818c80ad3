package httpapi

import (
	"net/http"
	"runtime/debug"
)

// withRecover guards handlers against panics and renders the error page.
func (s *Server) withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if v := recover(); v != nil {
				if v == http.ErrAbortHandler {
					panic(v)
				}
				s.Logger.Error("panic", "panic", v, "path", r.URL.Path, "stack", string(debug.Stack()))
				s.renderError(w, r, http.StatusInternalServerError, genericErrorMessage)
			}
		}()
		next.ServeHTTP(w, r)
	})
}
