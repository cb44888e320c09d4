package ui

import (
	"bytes"
	"log/slog"
	"net/http"

	"github.com/a-h/templ"
	"github.com/uxlens/uxlens/internal/ctxkeys"
)

func Render(w http.ResponseWriter, r *http.Request, c templ.Component) {
	RenderStatus(w, r, http.StatusOK, c)
}

// RenderStatus renders into a buffer first so a failing template can still
// answer 500 instead of a half-written page. The request path is passed on
// for navigation highlighting.
func RenderStatus(w http.ResponseWriter, r *http.Request, status int, c templ.Component) {
	ctx := ctxkeys.WithURLPath(r.Context(), r.URL.Path)

	var buf bytes.Buffer
	err := c.Render(ctx, &buf)
	if err != nil {
		slog.Error("render failed", "path", r.URL.Path, "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err = buf.WriteTo(w)
	if err != nil {
		slog.Warn("render write failed", "path", r.URL.Path, "error", err)
	}
}
