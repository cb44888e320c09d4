package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/a-h/templ"
	"github.com/uxlens/uxlens/internal/ctxkeys"
)

// tailwindCDN serves the browser build of Tailwind used by the layout.
const tailwindCDN = "https://cdn.jsdelivr.net"

// SecurityHeaders sets CSP (with the request nonce), clickjacking and sniffing protection.
// Must run after Config and NonceMiddleware.
func SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Permissions-Policy", "camera=(), microphone=(), geolocation=()")
		h.Set("Content-Security-Policy", contentSecurityPolicy(r))

		cfg := ctxkeys.Config(r.Context())
		if cfg != nil && cfg.IsProduction() {
			h.Set("Strict-Transport-Security", "max-age=63072000; includeSubDomains")
		}

		next.ServeHTTP(w, r)
	})
}

func contentSecurityPolicy(r *http.Request) string {
	scriptSrc := []string{"'self'", tailwindCDN}
	if nonce := templ.GetNonce(r.Context()); nonce != "" {
		scriptSrc = append(scriptSrc, fmt.Sprintf("'nonce-%s'", nonce))
	}

	// Forms may end in a redirect to the identity provider
	formAction := []string{"'self'"}
	imgSrc := []string{"'self'", "data:", "https:"}
	if cfg := ctxkeys.Config(r.Context()); cfg != nil {
		if cfg.SupabaseURL != "" {
			formAction = append(formAction, cfg.SupabaseURL)
		}
		if cfg.S3Endpoint != "" {
			imgSrc = append(imgSrc, cfg.S3Endpoint)
		}
	}

	directives := []string{
		"default-src 'self'",
		"script-src " + strings.Join(scriptSrc, " "),
		"style-src 'self' 'unsafe-inline'",
		"img-src " + strings.Join(imgSrc, " "),
		"connect-src 'self'",
		"form-action " + strings.Join(formAction, " "),
		"frame-ancestors 'none'",
		"base-uri 'self'",
		"object-src 'none'",
	}
	return strings.Join(directives, "; ")
}
