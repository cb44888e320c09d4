package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/uxlens/uxlens/internal/config"
	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// Files shared by every page set.
var sharedTemplates = []string{"templates/layout.html", "templates/partials.html"}

// partialSet holds only the shared files, for rendering fragments.
const partialSet = "_partials"

var funcs = template.FuncMap{
	"button":   ButtonClass,
	"input":    InputClass,
	"alert":    AlertClass,
	"severity": SeverityClass,
	"year":     func() int { return time.Now().Year() },
	"scores":   func() []int { return []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10} },
	"initial":  initial,
	"active": func(current, href string) bool {
		return current == href || strings.HasPrefix(current, href+"/")
	},
}

// initial is the upper-cased first letter of name, for avatar placeholders.
func initial(name string) string {
	for _, r := range strings.TrimSpace(name) {
		return strings.ToUpper(string(r))
	}
	return "?"
}

// pageTemplates holds one template set per page file, each parsed together
// with the layout and partials.
var pageTemplates = mustParsePages()

func mustParsePages() map[string]*template.Template {
	files, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		panic(err)
	}

	sets := make(map[string]*template.Template)
	for _, file := range files {
		if isShared(file) {
			continue
		}
		name := strings.TrimSuffix(path.Base(file), ".html")
		patterns := append([]string{file}, sharedTemplates...)
		sets[name] = template.Must(template.New(name).Funcs(funcs).ParseFS(templateFS, patterns...))
	}
	sets[partialSet] = template.Must(template.New(partialSet).Funcs(funcs).ParseFS(templateFS, sharedTemplates...))
	return sets
}

func isShared(file string) bool {
	for _, s := range sharedTemplates {
		if s == file {
			return true
		}
	}
	return false
}

// View is what every template receives.
type View struct {
	Title       string
	Description string
	Config      *config.Config
	Session     *model.Session
	Profile     *model.Profile
	CSRFToken   string
	Nonce       string
	Path        string
	Data        any
}

func (v View) AppName() string {
	if v.Config == nil || v.Config.AppName == "" {
		return "UXLens"
	}
	return v.Config.AppName
}

func (v View) Tagline() string {
	if v.Config == nil {
		return ""
	}
	return v.Config.AppTagline
}

func (v View) SiteURL() string {
	if v.Config == nil {
		return ""
	}
	return v.Config.SiteURL
}

func (v View) SignedIn() bool {
	return v.Session != nil
}

// Theme is the profile's theme preference, "light" when unset.
func (v View) Theme() string {
	if v.Profile == nil {
		return "light"
	}
	if t := v.Profile.Preferences.String("theme"); t != "" {
		return t
	}
	return "light"
}

func newView(ctx context.Context, title, description string, data any) View {
	return View{
		Title:       title,
		Description: description,
		Config:      ctxkeys.Config(ctx),
		Session:     ctxkeys.Session(ctx),
		Profile:     ctxkeys.Profile(ctx),
		CSRFToken:   ctxkeys.CSRFToken(ctx),
		Nonce:       templ.GetNonce(ctx),
		Path:        ctxkeys.URLPath(ctx),
		Data:        data,
	}
}

// page renders a full document: the page file's "content" inside "layout".
func page(name, title, description string, data any) templ.Component {
	return execute(name, "layout", title, description, data)
}

// fragment renders a single named template from the shared files.
func fragment(tmpl string, data any) templ.Component {
	return execute(partialSet, tmpl, "", "", data)
}

func execute(name, tmpl, title, description string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		t, ok := pageTemplates[name]
		if !ok {
			return fmt.Errorf("ui: unknown page %q", name)
		}
		return t.ExecuteTemplate(w, tmpl, newView(ctx, title, description, data))
	})
}
