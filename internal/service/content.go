package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/uxlens/uxlens/internal/markdown"
	"github.com/uxlens/uxlens/internal/model"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	SectionPages = "pages"
	SectionLegal = "legal"
)

var contentSections = []string{SectionPages, SectionLegal}

// ContentService serves the marketing and legal pages written as markdown
// with frontmatter under {contentDir}/{section}/{slug}.md.
type ContentService struct {
	contentDir string
	parser     *markdown.Parser
	reload     bool

	mu    sync.RWMutex
	pages map[string]map[string]*model.ContentPage
}

// NewContentService loads nothing yet; call Load. With reload set, every
// lookup re-reads the files so edits show up without a restart.
func NewContentService(contentDir string, reload bool) *ContentService {
	return &ContentService{
		contentDir: contentDir,
		parser:     markdown.NewParser(),
		reload:     reload,
		pages:      make(map[string]map[string]*model.ContentPage),
	}
}

func (s *ContentService) Load() error {
	loaded := make(map[string]map[string]*model.ContentPage, len(contentSections))

	for _, section := range contentSections {
		dir := filepath.Join(s.contentDir, section)
		files, err := os.ReadDir(dir)
		if err != nil {
			if os.IsNotExist(err) {
				loaded[section] = map[string]*model.ContentPage{}
				continue
			}
			return fmt.Errorf("failed to read %s directory: %w", section, err)
		}

		pages := make(map[string]*model.ContentPage, len(files))
		for _, file := range files {
			if file.IsDir() || !strings.HasSuffix(file.Name(), ".md") {
				continue
			}

			slug := strings.TrimSuffix(file.Name(), ".md")
			page, err := s.loadPage(section, slug)
			if err != nil {
				return fmt.Errorf("failed to load page %s/%s: %w", section, slug, err)
			}
			pages[slug] = page
		}
		loaded[section] = pages
	}

	s.mu.Lock()
	s.pages = loaded
	s.mu.Unlock()
	return nil
}

func (s *ContentService) loadPage(section, slug string) (*model.ContentPage, error) {
	filePath := filepath.Join(s.contentDir, section, slug+".md")
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	doc, err := s.parser.Parse(content)
	if err != nil {
		return nil, fmt.Errorf("failed to parse markdown: %w", err)
	}

	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to get file info: %w", err)
	}

	meta := doc.Meta
	title, _ := meta["title"].(string)
	if title == "" {
		title = doc.Heading
	}
	if title == "" {
		title = cases.Title(language.English).String(strings.ReplaceAll(slug, "-", " "))
	}
	description, _ := meta["description"].(string)

	// lastUpdated from frontmatter first, file modification time otherwise
	var lastUpdated string
	if dateValue, ok := meta["lastUpdated"]; ok {
		lastUpdated = parseDate(dateValue)
	}
	if lastUpdated == "" {
		lastUpdated = info.ModTime().Format("January 2, 2006")
	}

	return &model.ContentPage{
		Title:       title,
		Slug:        slug,
		Section:     section,
		Description: description,
		Content:     string(doc.HTML),
		LastUpdated: lastUpdated,
	}, nil
}

// Page returns one page or ErrPageNotFound.
func (s *ContentService) Page(section, slug string) (*model.ContentPage, error) {
	if s.reload {
		if err := s.Load(); err != nil {
			return nil, err
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	page, ok := s.pages[section][slug]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrPageNotFound, section, slug)
	}
	return page, nil
}

// Pages lists a section ordered by slug.
func (s *ContentService) Pages(section string) []*model.ContentPage {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*model.ContentPage, 0, len(s.pages[section]))
	for _, p := range s.pages[section] {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// parseDate tries various date formats and returns the display form
func parseDate(value any) string {
	var dateStr string

	switch v := value.(type) {
	case string:
		dateStr = v
	case time.Time:
		return v.Format("January 2, 2006")
	default:
		return ""
	}

	formats := []string{
		"2006-01-02",
		"2006/01/02",
		"02.01.2006",
		"01/02/2006",
		"Jan 2, 2006",
		"January 2, 2006",
		time.RFC3339,
	}

	for _, format := range formats {
		t, err := time.Parse(format, dateStr)
		if err == nil {
			return t.Format("January 2, 2006")
		}
	}

	return dateStr
}
