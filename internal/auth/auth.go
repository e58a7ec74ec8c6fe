// Package auth implements the admin access gate: a pluggable session
// token verifier, request-scoped authorization context, and the session
// cookie contract.
package auth

import (
	"context"
	"net/http"
)

// CookieName is the session cookie carrying the admin token.
const CookieName = "cookbook_admin"

// cookieMaxAge is one week, matching the session contract.
const cookieMaxAge = 7 * 24 * 60 * 60

// Verifier checks whether a session token grants admin access.
type Verifier interface {
	Verify(token string) bool
}

// SharedSecret is a Verifier comparing tokens verbatim against a single
// shared secret. An empty secret never verifies.
type SharedSecret struct {
	secret string
}

// NewSharedSecret creates a shared-secret verifier.
func NewSharedSecret(secret string) SharedSecret {
	return SharedSecret{secret: secret}
}

// Verify reports whether token exactly equals the shared secret.
func (s SharedSecret) Verify(token string) bool {
	return s.secret != "" && token == s.secret
}

type ctxKey struct{}

// WithAdmin marks a context as carrying admin authorization.
func WithAdmin(ctx context.Context) context.Context {
	return context.WithValue(ctx, ctxKey{}, true)
}

// IsAdmin reports whether the context carries admin authorization.
func IsAdmin(ctx context.Context) bool {
	v, _ := ctx.Value(ctxKey{}).(bool)
	return v
}

// Gate ties a Verifier to the cookie session boundary.
type Gate struct {
	verifier Verifier
	secure   bool
}

// NewGate creates a Gate. secure controls the cookie Secure attribute
// (enabled in production deployments).
func NewGate(v Verifier, secure bool) *Gate {
	return &Gate{verifier: v, secure: secure}
}

// Authorize returns ctx marked admin when the request carries a valid
// session cookie, or ctx unchanged otherwise.
func (g *Gate) Authorize(ctx context.Context, r *http.Request) context.Context {
	c, err := r.Cookie(CookieName)
	if err != nil || !g.verifier.Verify(c.Value) {
		return ctx
	}
	return WithAdmin(ctx)
}

// Authenticate issues a session cookie iff candidate verifies. The token
// stored in the cookie is the candidate itself.
func (g *Gate) Authenticate(w http.ResponseWriter, candidate string) bool {
	if !g.verifier.Verify(candidate) {
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    candidate,
		Path:     "/",
		MaxAge:   cookieMaxAge,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
	return true
}

// Logout clears the session cookie.
func (g *Gate) Logout(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.secure,
		SameSite: http.SameSiteStrictMode,
	})
}
