package routes

import (
	"net/http"

	"github.com/uxlens/uxlens/assets"
	"github.com/uxlens/uxlens/internal/app"
	"github.com/uxlens/uxlens/internal/handler"
	"github.com/uxlens/uxlens/internal/metrics"
	"github.com/uxlens/uxlens/internal/middleware"
)

func SetupRoutes(app *app.App) http.Handler {
	// Handlers
	home := handler.NewHomeHandler(app.ContentService)
	pages := handler.NewPageHandler(app.ContentService)
	seo := handler.NewSEOHandler(app.SitemapService)
	newsletter := handler.NewNewsletterHandler(app.EmailService)
	auth := handler.NewAuthHandler(app.AuthService, app.Sessions)
	analyze := handler.NewAnalyzeHandler(app.AnalysisService)
	feedback := handler.NewFeedbackHandler(app.FeedbackService)
	profile := handler.NewProfileHandler(app.ProfileService, app.FileService)
	health := handler.NewHealthHandler(app.DB)

	authLimit := app.AuthLimiter.Limit
	analyzeLimit := app.AnalyzeLimiter.Limit

	mux := http.NewServeMux()

	// ============================================================================
	// PUBLIC ROUTES
	// ============================================================================

	// Static files
	mux.Handle("GET /assets/", http.StripPrefix("/assets/", http.FileServer(http.FS(assets.AssetsFS))))

	// SEO
	mux.HandleFunc("GET /robots.txt", seo.Robots)
	mux.HandleFunc("GET /sitemap.xml", seo.Sitemap)

	// Home
	mux.HandleFunc("GET /{$}", home.HomePage)

	// Content
	mux.HandleFunc("GET /pricing", pages.Marketing("pricing"))
	mux.HandleFunc("GET /about", pages.Marketing("about"))
	mux.HandleFunc("GET /legal/{page}", pages.Legal)

	// Newsletter
	mux.HandleFunc("POST /newsletter/subscribe", newsletter.Subscribe)

	// ============================================================================
	// AUTH
	// ============================================================================

	mux.HandleFunc("GET /auth", middleware.RequireGuest(auth.AuthPage))
	mux.HandleFunc("POST /auth/magic-link", authLimit(middleware.RequireGuest(auth.SendMagicLink)))
	mux.HandleFunc("GET /auth/oauth/{provider}", authLimit(middleware.RequireGuest(auth.OAuth)))

	// Provider redirects land here; tokens in a URL fragment are posted back by the capture page
	mux.HandleFunc("GET /auth/callback", authLimit(auth.Callback))
	mux.HandleFunc("GET /auth/capture", auth.CapturePage)
	mux.HandleFunc("POST /auth/capture", authLimit(auth.Capture))

	mux.HandleFunc("POST /auth/logout", auth.Logout)

	// ============================================================================
	// PROTECTED ROUTES (/app/*)
	// ============================================================================

	// Analysis
	mux.HandleFunc("GET /app/analyze", middleware.RequireAuth(analyze.AnalyzePage))
	mux.HandleFunc("POST /app/analyze", middleware.RequireAuth(analyzeLimit(analyze.SubmitForm)))
	mux.HandleFunc("GET /app/report", middleware.RequireAuth(analyze.LastReportPage))

	// Profile
	mux.HandleFunc("GET /app/profile", middleware.RequireAuth(profile.ProfilePage))
	mux.HandleFunc("POST /app/profile", middleware.RequireAuth(profile.UpdateForm))
	mux.HandleFunc("POST /app/profile/avatar", middleware.RequireAuth(profile.UploadAvatar))

	// Avatars (presigned redirect)
	mux.HandleFunc("GET /media/{path...}", profile.Media)

	// ============================================================================
	// JSON API (/api/*)
	// ============================================================================

	// Open to guests like the feedback widget; the per-IP limit bounds LLM spend
	mux.HandleFunc("POST /api/analyze", analyzeLimit(analyze.Analyze))
	mux.HandleFunc("POST /api/feedback", feedback.Submit)
	mux.HandleFunc("GET /api/profile", middleware.RequireAuth(profile.Get))
	mux.HandleFunc("PATCH /api/profile", middleware.RequireAuth(profile.Patch))

	// ============================================================================
	// OPERATIONS
	// ============================================================================

	mux.HandleFunc("GET /healthz", health.Health)
	if app.Cfg.MetricsEnabled {
		mux.Handle("GET /metrics", metrics.Handler(app.Registry))
	}

	// ============================================================================
	// FALLBACK
	// ============================================================================

	// 404
	mux.HandleFunc("/{path...}", home.NotFoundPage)

	// Global middleware - executed in order (top to bottom)
	handler := middleware.Chain(
		mux,
		middleware.Recovery,
		middleware.Config(app.Cfg),  // Config must be early (needed by SecurityHeaders for the CSP)
		middleware.NonceMiddleware,  // CSP nonce per request (must be before SecurityHeaders)
		middleware.SecurityHeaders,  // nosniff, frame denial, CSP
		middleware.RequestLogging(app.Metrics),
		middleware.CSRFProtection,   // CSRF protection for all state-changing requests
		middleware.AuthMiddleware(app.Sessions, app.AuthService, app.ProfileService),
	)

	return handler
}
