package model

// ContentPage is a markdown page rendered to HTML (marketing and legal).
type ContentPage struct {
	Title       string
	Slug        string
	Section     string
	Description string
	Content     string
	LastUpdated string
}

type Sitemap struct {
	XMLName struct{}     `xml:"urlset"`
	XMLNS   string       `xml:"xmlns,attr"`
	URLs    []SitemapURL `xml:"url"`
}

type SitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}
