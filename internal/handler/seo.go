package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/uxlens/uxlens/internal/service"
)

type SEOHandler struct {
	sitemapService *service.SitemapService
}

func NewSEOHandler(sitemapService *service.SitemapService) *SEOHandler {
	return &SEOHandler{sitemapService: sitemapService}
}

// crawlerCache lets crawlers and CDNs keep robots and sitemap for an hour.
const crawlerCache = "public, max-age=3600"

func (h *SEOHandler) Robots(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", crawlerCache)
	_, _ = io.WriteString(w, h.sitemapService.RobotsTxt())
}

// Sitemap lists the marketing and legal pages, built per request so content
// edits show up without a restart.
func (h *SEOHandler) Sitemap(w http.ResponseWriter, r *http.Request) {
	body, err := h.sitemapService.GenerateSitemap()
	if err != nil {
		slog.Error("sitemap generation failed", "error", err)
		http.Error(w, "Failed to generate sitemap", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("Cache-Control", crawlerCache)
	_, _ = w.Write(body)
}
