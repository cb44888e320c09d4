package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/uxlens/uxlens/internal/ui"
	"github.com/uxlens/uxlens/internal/validation"
)

// NewsletterSubscriber adds an address to the mailing audience.
type NewsletterSubscriber interface {
	SubscribeNewsletter(email string) error
}

type NewsletterHandler struct {
	subscriber NewsletterSubscriber
}

func NewNewsletterHandler(subscriber NewsletterSubscriber) *NewsletterHandler {
	return &NewsletterHandler{subscriber: subscriber}
}

// Subscribe answers background submits (app.js) with a fragment. Plain form
// posts without JavaScript are sent back to the footer.
func (h *NewsletterHandler) Subscribe(w http.ResponseWriter, r *http.Request) {
	email := strings.TrimSpace(strings.ToLower(r.FormValue("email")))
	isFetch := r.Header.Get("X-Requested-With") == "fetch"

	if !isFetch {
		defer http.Redirect(w, r, "/#newsletter", http.StatusSeeOther)
	}

	if err := validation.ValidateEmail(email); err != nil {
		if isFetch {
			ui.RenderStatus(w, r, http.StatusBadRequest, ui.NewsletterResult(false, "Please provide a valid email address"))
		}
		return
	}

	// The reply is the same either way so the form cannot probe the audience.
	if err := h.subscriber.SubscribeNewsletter(email); err != nil {
		slog.Warn("newsletter subscribe failed", "error", err)
	}

	if isFetch {
		ui.Render(w, r, ui.NewsletterResult(true, "Thanks! You are on the list."))
	}
}
