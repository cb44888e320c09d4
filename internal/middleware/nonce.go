package middleware

import (
	"fmt"
	"net/http"

	"github.com/a-h/templ"
	"github.com/google/uuid"
)

// NonceMiddleware stores a fresh CSP nonce in the request context through
// templ, so pages read it with templ.GetNonce and SecurityHeaders allows only
// <script nonce="..."> inline.
func NonceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := templ.WithNonce(r.Context(), newNonce())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// newNonce hex-encodes a random (v4) UUID.
func newNonce() string {
	id := uuid.New()
	return fmt.Sprintf("%x", id[:])
}
