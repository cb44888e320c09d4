package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/ui"
)

// PageHandler serves markdown pages: marketing pages at fixed routes and
// legal pages by slug.
type PageHandler struct {
	contentService *service.ContentService
}

func NewPageHandler(contentService *service.ContentService) *PageHandler {
	return &PageHandler{
		contentService: contentService,
	}
}

// Marketing returns a handler for content/pages/{slug}.md.
func (h *PageHandler) Marketing(slug string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.show(w, r, service.SectionPages, slug)
	}
}

func (h *PageHandler) Legal(w http.ResponseWriter, r *http.Request) {
	h.show(w, r, service.SectionLegal, r.PathValue("page"))
}

func (h *PageHandler) show(w http.ResponseWriter, r *http.Request, section, slug string) {
	page, err := h.contentService.Page(section, slug)
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) {
			slog.Error("failed to load page", "section", section, "slug", slug, "error", err)
		}
		ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFoundPage())
		return
	}

	ui.Render(w, r, ui.ContentPage(page))
}
