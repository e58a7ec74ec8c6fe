// Package api implements the Cookbook REST API using chi.
package api

import (
	"net/http"

	"github.com/mayri/cookbook/internal/auth"
)

// SessionMiddleware resolves the session cookie through the gate and
// marks the request context when it verifies. Reads stay public; the
// service layer refuses unauthorized mutations.
func SessionMiddleware(gate *auth.Gate) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(gate.Authorize(r.Context(), r)))
		})
	}
}
