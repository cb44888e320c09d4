package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
)

type FeedbackHandler struct {
	feedbackService *service.FeedbackService
}

func NewFeedbackHandler(feedbackService *service.FeedbackService) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackService: feedbackService,
	}
}

// Submit accepts {score: 0-10, comment?}. A score that is missing, not a
// number, or out of range is a 400.
func (h *FeedbackHandler) Submit(w http.ResponseWriter, r *http.Request) {
	var fb model.Feedback
	err := decodeJSON(w, r, &fb, maxJSONBody)
	if err != nil {
		var tooLarge *bodyTooLargeError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusBadRequest, tooLarge.Error())
			return
		}
		writeError(w, http.StatusBadRequest, "score must be a number between 0 and 10")
		return
	}

	fromEmail := ""
	if sess := ctxkeys.Session(r.Context()); sess != nil {
		fromEmail = sess.Email
	}

	err = h.feedbackService.Submit(r.Context(), &fb, fromEmail)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("feedback submit failed", "error", err)
		}
		writeError(w, status, clientMessage(err, "could not record feedback"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
