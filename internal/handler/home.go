package handler

import (
	"net/http"

	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/ui"
)

type HomeHandler struct {
	contentService *service.ContentService
}

func NewHomeHandler(contentService *service.ContentService) *HomeHandler {
	return &HomeHandler{
		contentService: contentService,
	}
}

// HomePage renders the landing page with the optional content/pages/home.md copy.
func (h *HomeHandler) HomePage(w http.ResponseWriter, r *http.Request) {
	intro, err := h.contentService.Page(service.SectionPages, "home")
	if err != nil {
		intro = nil
	}
	ui.Render(w, r, ui.HomePage(intro))
}

func (h *HomeHandler) NotFoundPage(w http.ResponseWriter, r *http.Request) {
	ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFoundPage())
}
