package ui

import (
	"html/template"

	"github.com/a-h/templ"
	"github.com/uxlens/uxlens/internal/model"
)

type contentData struct {
	Page *model.ContentPage
	Body template.HTML
}

// HomePage renders the landing page; intro is optional markdown copy.
func HomePage(intro *model.ContentPage) templ.Component {
	data := contentData{Page: intro}
	description := ""
	if intro != nil {
		// Content pages are rendered from our own markdown files
		data.Body = template.HTML(intro.Content)
		description = intro.Description
	}
	return page("home", "", description, data)
}

// ContentPage renders a marketing or legal markdown page.
func ContentPage(p *model.ContentPage) templ.Component {
	return page("content", p.Title, p.Description, contentData{Page: p, Body: template.HTML(p.Content)})
}

func NotFoundPage() templ.Component {
	return page("notfound", "Page not found", "", nil)
}

type AuthPageData struct {
	Email     string
	Next      string
	Error     string
	Providers []string
}

func AuthPage(data AuthPageData) templ.Component {
	return page("auth", "Sign in", "", data)
}

type MagicLinkSentData struct {
	Email string
}

func MagicLinkSentPage(email string) templ.Component {
	return page("auth_sent", "Check your email", "", MagicLinkSentData{Email: email})
}

type CaptureData struct {
	Next string
}

// AuthCapturePage finishes implicit-flow sign-ins: its script reads the
// tokens from the URL fragment and posts them back.
func AuthCapturePage(next string) templ.Component {
	return page("auth_capture", "Signing you in", "", CaptureData{Next: next})
}

type AnalyzePageData struct {
	Type    string
	URL     string
	Content string
	Error   string
}

func AnalyzePage(data AnalyzePageData) templ.Component {
	if data.Type == "" {
		data.Type = model.AnalysisTypeURL
	}
	return page("analyze", "Analyze", "", data)
}

type ReportPageData struct {
	Type   string
	Source string
	Result *model.AnalysisResult
}

// ReportPage renders a fresh analysis and hands it to the browser for the
// "last report" cache.
func ReportPage(data ReportPageData) templ.Component {
	return page("report", "UX report", "", data)
}

// LastReportPage is filled client-side from localStorage.
func LastReportPage() templ.Component {
	return page("report_last", "Last report", "", nil)
}

type ProfilePageData struct {
	Profile       *model.Profile
	Email         string
	Success       string
	Error         string
	AvatarEnabled bool
}

func ProfilePage(data ProfilePageData) templ.Component {
	return page("profile", "Profile", "", data)
}

type NewsletterData struct {
	Success bool
	Message string
}

// NewsletterResult replaces the footer signup form after a submit.
func NewsletterResult(success bool, message string) templ.Component {
	return fragment("newsletter_result", NewsletterData{Success: success, Message: message})
}
