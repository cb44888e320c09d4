package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/uxlens/uxlens/internal/identity"
	"github.com/uxlens/uxlens/internal/service"
)

// Request body caps. Analysis text may carry a whole CSV export.
const (
	maxJSONBody     = 64 << 10
	maxAnalysisBody = 11 << 20
)

var errBadJSON = errors.New("request body must be valid JSON")

type bodyTooLargeError struct{ limit int64 }

func (e *bodyTooLargeError) Error() string {
	return fmt.Sprintf("request body exceeds %d bytes", e.limit)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to write json response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// decodeJSON reads exactly one JSON value of at most limit bytes into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, limit))
	err := dec.Decode(v)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &bodyTooLargeError{limit: maxErr.Limit}
		}
		return errBadJSON
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errBadJSON
	}
	return nil
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, service.ErrInvalidEmail):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrPageNotFound), errors.Is(err, service.ErrUnsupportedProvider):
		return http.StatusNotFound
	case errors.Is(err, service.ErrStorageDisabled):
		return http.StatusServiceUnavailable
	}

	// The auth service rejecting a link or token is the caller's problem
	var apiErr *identity.APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 {
		return http.StatusUnauthorized
	}
	return http.StatusInternalServerError
}

// clientMessage strips the sentinel prefix from validation errors so the
// caller sees only the field problems.
func clientMessage(err error, fallback string) string {
	if statusFor(err) != http.StatusBadRequest {
		return fallback
	}
	msg, _ := strings.CutPrefix(err.Error(), service.ErrInvalidRequest.Error()+": ")
	return msg
}
