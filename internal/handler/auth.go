package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/session"
	"github.com/uxlens/uxlens/internal/ui"
)

const afterSignInPath = "/app/analyze"

type authHandler struct {
	authService *service.AuthService
	store       *session.Store
}

func NewAuthHandler(authService *service.AuthService, store *session.Store) *authHandler {
	return &authHandler{
		authService: authService,
		store:       store,
	}
}

func (h *authHandler) AuthPage(w http.ResponseWriter, r *http.Request) {
	ui.Render(w, r, ui.AuthPage(h.pageData(r, "", "")))
}

func (h *authHandler) pageData(r *http.Request, email, errMsg string) ui.AuthPageData {
	next := r.FormValue("next")
	return ui.AuthPageData{
		Email:     email,
		Next:      service.SafeRedirectPath(next, ""),
		Error:     errMsg,
		Providers: service.OAuthProviders,
	}
}

func (h *authHandler) SendMagicLink(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")

	pkce, err := h.authService.SendMagicLink(r.Context(), email)
	if err != nil {
		if errors.Is(err, service.ErrInvalidEmail) {
			ui.RenderStatus(w, r, http.StatusBadRequest, ui.AuthPage(h.pageData(r, email, "Please provide a valid email address")))
			return
		}
		slog.Error("failed to send magic link", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, ui.AuthPage(h.pageData(r, email, "We could not send the sign-in link. Please try again.")))
		return
	}

	err = h.store.WriteFlow(w, session.Flow{
		Verifier: pkce.Verifier,
		Next:     service.SafeRedirectPath(r.FormValue("next"), ""),
	})
	if err != nil {
		slog.Error("failed to store sign-in flow", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, ui.AuthPage(h.pageData(r, email, "An error occurred. Please try again.")))
		return
	}

	ui.Render(w, r, ui.MagicLinkSentPage(strings.ToLower(strings.TrimSpace(email))))
}

// OAuth redirects to the provider's consent screen via the auth service.
func (h *authHandler) OAuth(w http.ResponseWriter, r *http.Request) {
	target, pkce, err := h.authService.StartOAuth(r.PathValue("provider"))
	if err != nil {
		ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFoundPage())
		return
	}

	err = h.store.WriteFlow(w, session.Flow{
		Verifier: pkce.Verifier,
		Next:     service.SafeRedirectPath(r.URL.Query().Get("next"), ""),
	})
	if err != nil {
		slog.Error("failed to store sign-in flow", "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, ui.AuthPage(h.pageData(r, "", "An error occurred. Please try again.")))
		return
	}

	http.Redirect(w, r, target, http.StatusSeeOther)
}

// Callback finishes every redirect-based sign-in: ?code= (PKCE),
// ?token_hash=&type= (email OTP) or ?error=. Without any of those the
// tokens may be in the URL fragment, which only the browser can read.
func (h *authHandler) Callback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	flow := h.store.ReadFlow(r)
	next := service.SafeRedirectPath(q.Get("next"), service.SafeRedirectPath(flow.Next, afterSignInPath))

	if e := q.Get("error"); e != "" {
		h.store.ClearFlow(w)
		msg := q.Get("error_description")
		if msg == "" {
			msg = e
		}
		slog.Info("sign-in rejected by provider", "error", e, "description", msg)
		ui.RenderStatus(w, r, http.StatusUnauthorized, ui.AuthPage(ui.AuthPageData{
			Next:      service.SafeRedirectPath(flow.Next, ""),
			Error:     msg,
			Providers: service.OAuthProviders,
		}))
		return
	}

	var (
		sess *model.Session
		err  error
	)
	switch {
	case q.Get("code") != "":
		sess, _, err = h.authService.CompleteCode(r.Context(), q.Get("code"), flow.Verifier)
	case q.Get("token_hash") != "":
		sess, _, err = h.authService.CompleteTokenHash(r.Context(), q.Get("token_hash"), q.Get("type"))
	default:
		ui.Render(w, r, ui.AuthCapturePage(next))
		return
	}

	h.store.ClearFlow(w)
	if err != nil {
		slog.Warn("sign-in callback failed", "error", err)
		ui.RenderStatus(w, r, statusFor(err), ui.AuthPage(ui.AuthPageData{
			Next:      service.SafeRedirectPath(flow.Next, ""),
			Error:     "That sign-in link is invalid or has expired. Please request a new one.",
			Providers: service.OAuthProviders,
		}))
		return
	}

	if !h.setSession(w, r, sess) {
		return
	}
	http.Redirect(w, r, next, http.StatusSeeOther)
}

// CapturePage serves the implicit-flow landing page.
func (h *authHandler) CapturePage(w http.ResponseWriter, r *http.Request) {
	next := service.SafeRedirectPath(r.URL.Query().Get("next"), afterSignInPath)
	ui.Render(w, r, ui.AuthCapturePage(next))
}

type captureRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	Next         string `json:"next"`
}

// Capture receives fragment tokens from the capture page script. They are
// checked against the auth service before the session cookie is set.
func (h *authHandler) Capture(w http.ResponseWriter, r *http.Request) {
	var req captureRequest
	err := decodeJSON(w, r, &req, maxJSONBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	sess, _, err := h.authService.CompleteTokens(r.Context(), req.AccessToken, req.RefreshToken, req.ExpiresIn)
	if err != nil {
		status := statusFor(err)
		slog.Warn("token capture failed", "status", status, "error", err)
		writeError(w, status, "Sign-in failed. Please request a new link.")
		return
	}

	err = h.store.Write(w, sess)
	if err != nil {
		slog.Error("failed to seal session", "user_id", sess.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "Sign-in failed. Please try again.")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"redirect": service.SafeRedirectPath(req.Next, afterSignInPath),
	})
}

func (h *authHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.authService.SignOut(r.Context(), ctxkeys.Session(r.Context()))
	h.store.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *authHandler) setSession(w http.ResponseWriter, r *http.Request, sess *model.Session) bool {
	err := h.store.Write(w, sess)
	if err != nil {
		slog.Error("failed to seal session", "user_id", sess.UserID, "error", err)
		ui.RenderStatus(w, r, http.StatusInternalServerError, ui.AuthPage(h.pageData(r, "", "An error occurred. Please try again.")))
		return false
	}
	return true
}
