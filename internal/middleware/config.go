package middleware

import (
	"net/http"

	"github.com/uxlens/uxlens/internal/config"
	"github.com/uxlens/uxlens/internal/ctxkeys"
)

// Config middleware adds the sanitized app configuration to the request context.
// Secrets (session secret, API keys, storage credentials) are not included.
func Config(cfg *config.Config) Middleware {
	sanitized := cfg.Sanitized()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := ctxkeys.WithConfig(r.Context(), sanitized)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
