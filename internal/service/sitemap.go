package service

import (
	"encoding/xml"
	"strings"
	"time"

	"github.com/uxlens/uxlens/internal/model"
)

// publicRoutes are the static public pages listed in the sitemap.
// Auth-protected pages under /app are never listed.
var publicRoutes = []struct {
	Path       string
	Priority   string
	ChangeFreq string
}{
	{"/", "1.0", "weekly"},
	{"/pricing", "0.8", "monthly"},
	{"/about", "0.6", "monthly"},
	{"/auth", "0.3", "yearly"},
}

type SitemapService struct {
	contentService *ContentService
	baseURL        string
}

func NewSitemapService(contentService *ContentService, baseURL string) *SitemapService {
	return &SitemapService{
		contentService: contentService,
		baseURL:        strings.TrimSuffix(baseURL, "/"),
	}
}

// GenerateSitemap renders sitemap.xml for the static routes and legal pages.
func (s *SitemapService) GenerateSitemap() ([]byte, error) {
	today := time.Now().Format("2006-01-02")

	sitemap := model.Sitemap{
		XMLNS: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]model.SitemapURL, 0, len(publicRoutes)),
	}

	for _, route := range publicRoutes {
		sitemap.URLs = append(sitemap.URLs, model.SitemapURL{
			Loc:        s.baseURL + route.Path,
			LastMod:    today,
			ChangeFreq: route.ChangeFreq,
			Priority:   route.Priority,
		})
	}

	for _, page := range s.contentService.Pages(SectionLegal) {
		lastMod := today
		if t, err := time.Parse("January 2, 2006", page.LastUpdated); err == nil {
			lastMod = t.Format("2006-01-02")
		}
		sitemap.URLs = append(sitemap.URLs, model.SitemapURL{
			Loc:        s.baseURL + "/legal/" + page.Slug,
			LastMod:    lastMod,
			ChangeFreq: "yearly",
			Priority:   "0.3",
		})
	}

	output, err := xml.MarshalIndent(sitemap, "", "  ")
	if err != nil {
		return nil, err
	}

	return []byte(xml.Header + string(output)), nil
}

// RobotsTxt allows the marketing site and keeps crawlers out of the app.
func (s *SitemapService) RobotsTxt() string {
	return "User-agent: *\n" +
		"Allow: /\n" +
		"Disallow: /app/\n" +
		"Disallow: /api/\n" +
		"Disallow: /auth/\n" +
		"\n" +
		"Sitemap: " + s.baseURL + "/sitemap.xml\n"
}
