package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
)

type recordingNotifier struct {
	scores []float64
	from   []string
}

func (n *recordingNotifier) SendFeedback(_ context.Context, score float64, _ string, fromEmail string) error {
	n.scores = append(n.scores, score)
	n.from = append(n.from, fromEmail)
	return nil
}

func postFeedback(h *FeedbackHandler, r *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Submit(rec, r)
	return rec
}

func feedbackRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/feedback", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestFeedbackScoreBounds(t *testing.T) {
	tests := []struct {
		body   string
		status int
	}{
		{`{"score":0}`, http.StatusOK},
		{`{"score":5.5,"comment":"ok"}`, http.StatusOK},
		{`{"score":10}`, http.StatusOK},
		{`{"score":-1}`, http.StatusBadRequest},
		{`{"score":10.5}`, http.StatusBadRequest},
		{`{"score":11}`, http.StatusBadRequest},
		{`{"score":"7"}`, http.StatusBadRequest},
		{`{"score":null}`, http.StatusBadRequest},
		{`{"comment":"no score"}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.body, func(t *testing.T) {
			notifier := &recordingNotifier{}
			h := NewFeedbackHandler(service.NewFeedbackService(notifier, nil))

			rec := postFeedback(h, feedbackRequest(tt.body))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"success":true}`, rec.Body.String())
				assert.Len(t, notifier.scores, 1)
			} else {
				assert.Contains(t, decodeBody(t, rec), "error")
				assert.Empty(t, notifier.scores)
			}
		})
	}
}

func TestFeedbackCarriesSignedInEmail(t *testing.T) {
	notifier := &recordingNotifier{}
	h := NewFeedbackHandler(service.NewFeedbackService(notifier, nil))

	req := signedIn(feedbackRequest(`{"score":8}`), &model.Session{UserID: "u1", Email: "ada@example.com"}, nil)
	rec := postFeedback(h, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"ada@example.com"}, notifier.from)

	rec = postFeedback(h, feedbackRequest(`{"score":3}`))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "", notifier.from[1])
}

func TestFeedbackDecodeErrorMessages(t *testing.T) {
	h := NewFeedbackHandler(service.NewFeedbackService(&recordingNotifier{}, nil))

	oversized := `{"score":5,"comment":"` + strings.Repeat("x", maxJSONBody) + `"}`
	rec := postFeedback(h, feedbackRequest(oversized))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request body exceeds 65536 bytes", decodeBody(t, rec)["error"])

	rec = postFeedback(h, feedbackRequest(`{"score":5}{"score":6}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "score must be a number between 0 and 10", decodeBody(t, rec)["error"])

	rec = postFeedback(h, feedbackRequest(`{"score":"high"}`))
	assert.Equal(t, "score must be a number between 0 and 10", decodeBody(t, rec)["error"])
}
