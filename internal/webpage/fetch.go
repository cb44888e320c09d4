// Package webpage fetches a public web page and reduces it to the text an
// LLM prompt needs.
package webpage

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/doyensec/safeurl"
	"github.com/microcosm-cc/bluemonday"
)

const (
	userAgent = "UXLensBot/1.0 (+https://uxlens.app)"

	maxHeadings = 40
	// DefaultMaxTextRunes caps the visible text handed to the prompt.
	DefaultMaxTextRunes = 12000
)

var allowedSchemes = []string{"http", "https"}

// Page is the reduced view of a fetched document.
type Page struct {
	URL         string
	StatusCode  int
	Title       string
	Description string
	Headings    []string
	Text        string
}

type Fetcher struct {
	client       *http.Client
	maxBytes     int64
	maxTextRunes int
	strip        *bluemonday.Policy
}

// NewFetcher returns a fetcher whose client refuses private, loopback and
// link-local targets, including after DNS resolution.
func NewFetcher(timeout time.Duration, maxBytes int64) *Fetcher {
	config := safeurl.GetConfigBuilder().
		SetTimeout(timeout).
		SetAllowedSchemes(allowedSchemes...).
		SetAllowedPorts(80, 443).
		Build()

	return NewWithHTTPClient(safeurl.Client(config).Client, maxBytes)
}

// NewWithHTTPClient is intended for tests that need to reach httptest servers.
func NewWithHTTPClient(client *http.Client, maxBytes int64) *Fetcher {
	if maxBytes <= 0 {
		maxBytes = 2 << 20
	}
	return &Fetcher{
		client:       client,
		maxBytes:     maxBytes,
		maxTextRunes: DefaultMaxTextRunes,
		strip:        bluemonday.StrictPolicy(),
	}
}

// ValidateURL checks that raw is an absolute http(s) URL with a host.
// It does not resolve the host.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("empty URL")
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	scheme := strings.ToLower(parsed.Scheme)
	if scheme != "http" && scheme != "https" {
		return nil, fmt.Errorf("disallowed scheme: %q (allowed: %v)", parsed.Scheme, allowedSchemes)
	}
	if parsed.Hostname() == "" {
		return nil, fmt.Errorf("empty host in URL: %s", raw)
	}

	return parsed, nil
}

// Fetch performs a single GET. Non-2xx answers and non-HTML bodies are errors.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", u.Host, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", u.Host, resp.StatusCode)
	}

	ct := strings.ToLower(resp.Header.Get("Content-Type"))
	if ct != "" && !strings.Contains(ct, "html") && !strings.HasPrefix(ct, "text/") {
		return nil, fmt.Errorf("fetch %s: unsupported content type %q", u.Host, ct)
	}

	page, err := f.Parse(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", u.Host, err)
	}
	page.URL = u.String()
	page.StatusCode = resp.StatusCode
	return page, nil
}

// Parse extracts title, meta description, headings and visible text.
func (f *Fetcher) Parse(r io.Reader) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, err
	}

	doc.Find("script, style, noscript, template, svg, iframe").Remove()

	page := &Page{
		Title: collapse(doc.Find("title").First().Text()),
	}

	if desc, ok := doc.Find(`meta[name="description"]`).Attr("content"); ok {
		page.Description = f.stripMarkup(desc)
	} else if desc, ok := doc.Find(`meta[property="og:description"]`).Attr("content"); ok {
		page.Description = f.stripMarkup(desc)
	}

	doc.Find("h1, h2, h3").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if h := collapse(s.Text()); h != "" {
			page.Headings = append(page.Headings, h)
		}
		return len(page.Headings) < maxHeadings
	})

	page.Text = truncateRunes(collapse(doc.Find("body").Text()), f.maxTextRunes)
	return page, nil
}

// stripMarkup drops markup smuggled into attribute values. Node text from
// goquery is already decoded, so it only goes through collapse: a page that
// shows "<button>" as text keeps it. The policy escapes entities, which the
// prompt does not want.
func (f *Fetcher) stripMarkup(s string) string {
	return collapse(html.UnescapeString(f.strip.Sanitize(s)))
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}
