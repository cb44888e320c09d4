package middleware

import (
	"crypto/rand"
	"crypto/subtle"
	"log/slog"
	"mime"
	"net/http"
	"strings"

	"github.com/uxlens/uxlens/internal/ctxkeys"
)

const (
	csrfCookieName = "csrf_token"
	csrfFormField  = "csrf_token"
	csrfHeader     = "X-CSRF-Token"
	csrfCookieAge  = 7 * 24 * 60 * 60
)

var csrfSafeMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// CSRFProtection implements the double-submit cookie pattern. Every request
// gets a token in its context for templates; unsafe methods must echo it in
// the X-CSRF-Token header or the csrf_token form field. JSON posts to /api/
// pass unchecked, as browsers preflight cross-origin application/json.
func CSRFProtection(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := csrfToken(w, r)
		r = r.WithContext(ctxkeys.WithCSRFToken(r.Context(), token))

		if csrfSafeMethods[r.Method] || (isAPIRequest(r) && isJSON(r)) {
			next.ServeHTTP(w, r)
			return
		}

		if !sameToken(token, submittedCSRFToken(r)) {
			slog.Warn("csrf token mismatch", "method", r.Method, "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			http.Error(w, "Invalid CSRF token", http.StatusForbidden)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func isAPIRequest(r *http.Request) bool {
	return strings.HasPrefix(r.URL.Path, "/api/")
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// submittedCSRFToken prefers the header (fetch calls) over the form field.
func submittedCSRFToken(r *http.Request) string {
	if v := r.Header.Get(csrfHeader); v != "" {
		return v
	}
	return r.PostFormValue(csrfFormField)
}

// csrfToken returns the cookie token, issuing a new one when it is missing
// or malformed.
func csrfToken(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(csrfCookieName); err == nil && validTokenShape(c.Value) {
		return c.Value
	}

	token := rand.Text()
	cfg := ctxkeys.Config(r.Context())
	http.SetCookie(w, &http.Cookie{
		Name:     csrfCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   csrfCookieAge,
		HttpOnly: true,
		Secure:   cfg != nil && cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	})
	return token
}

func validTokenShape(v string) bool {
	if len(v) != len(rand.Text()) {
		return false
	}
	for _, c := range v {
		if (c < 'A' || c > 'Z') && (c < '2' || c > '7') {
			return false
		}
	}
	return true
}

func sameToken(expected, got string) bool {
	return expected != "" && got != "" && subtle.ConstantTimeCompare([]byte(expected), []byte(got)) == 1
}
