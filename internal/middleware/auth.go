package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/repository"
	"github.com/uxlens/uxlens/internal/session"
)

// SessionRefresher trades an expired session for a fresh one.
type SessionRefresher interface {
	RefreshSession(ctx context.Context, sess *model.Session) (*model.Session, error)
}

type ProfileLoader interface {
	ByID(ctx context.Context, id string) (*model.Profile, error)
}

// AuthMiddleware unseals the session cookie and adds session + profile to context.
// An expired access token is refreshed once; the new session is sealed back into the cookie.
func AuthMiddleware(store *session.Store, refresher SessionRefresher, profiles ProfileLoader) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess := store.Read(r)
			if sess == nil {
				// A cookie that no longer opens is dropped
				if _, err := r.Cookie(session.CookieName); err == nil {
					store.Clear(w)
				}
				next.ServeHTTP(w, r)
				return
			}

			if sess.IsExpired() {
				fresh, err := refresher.RefreshSession(r.Context(), sess)
				if err != nil {
					slog.Info("session refresh failed", "user_id", sess.UserID, "error", err)
					store.Clear(w)
					next.ServeHTTP(w, r)
					return
				}
				if err := store.Write(w, fresh); err != nil {
					slog.Error("failed to seal refreshed session", "user_id", sess.UserID, "error", err)
					store.Clear(w)
					next.ServeHTTP(w, r)
					return
				}
				sess = fresh
			}

			ctx := ctxkeys.WithSession(r.Context(), sess)

			profile, err := profiles.ByID(ctx, sess.UserID)
			switch {
			case errors.Is(err, repository.ErrProfileNotFound):
				// Sessions without a profile never finished sign-in
				store.Clear(w)
				next.ServeHTTP(w, r)
				return
			case err != nil:
				slog.Error("failed to load profile", "user_id", sess.UserID, "error", err)
			default:
				ctx = ctxkeys.WithProfile(ctx, profile)
			}

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth sends guests to the sign-in page, remembering where they were headed.
// JSON API callers get 401 instead of a redirect.
func RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Session(r.Context()) != nil {
			next.ServeHTTP(w, r)
			return
		}

		if isAPIRequest(r) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			w.Write([]byte(`{"error":"authentication required"}`))
			return
		}

		target := "/auth"
		if r.Method == http.MethodGet {
			target += "?next=" + url.QueryEscape(r.URL.RequestURI())
		}
		redirect(w, r, target)
	}
}

// RequireGuest ensures the user is not authenticated
func RequireGuest(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ctxkeys.Session(r.Context()) != nil {
			redirect(w, r, "/app/analyze")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// redirect uses HX-Redirect for HTMX requests to force a full page load.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", target)
		w.WriteHeader(http.StatusSeeOther)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}
