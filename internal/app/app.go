package app

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/uxlens/uxlens/internal/config"
	"github.com/uxlens/uxlens/internal/db"
	"github.com/uxlens/uxlens/internal/identity"
	"github.com/uxlens/uxlens/internal/llm"
	"github.com/uxlens/uxlens/internal/metrics"
	"github.com/uxlens/uxlens/internal/middleware"
	"github.com/uxlens/uxlens/internal/repository"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/session"
	"github.com/uxlens/uxlens/internal/storage"
	"github.com/uxlens/uxlens/internal/webpage"
)

type App struct {
	Cfg      *config.Config
	DB       *sqlx.DB
	Sessions *session.Store
	Registry *prometheus.Registry
	Metrics  metrics.Recorder

	AuthService     *service.AuthService
	ProfileService  *service.ProfileService
	AnalysisService *service.AnalysisService
	FeedbackService *service.FeedbackService
	EmailService    *service.EmailService
	FileService     *service.FileService
	ContentService  *service.ContentService
	SitemapService  *service.SitemapService

	AuthLimiter    *middleware.RateLimiter
	AnalyzeLimiter *middleware.RateLimiter
}

func New(ctx context.Context, cfg *config.Config) (*App, error) {
	// Initialize database
	database, err := db.Init(cfg.DBDriver, cfg.DBConnection)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %v", err)
	}

	// Run database migrations
	err = db.RunMigrations(ctx, database.DB, cfg.DBDriver)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to run migrations: %v", err)
	}

	// Repositories
	profileRepository := repository.NewProfileRepository(database)

	// Storage (nil when S3 is not configured)
	fileStorage, err := storage.New(ctx, cfg)
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize storage: %v", err)
	}

	// External clients
	identityClient, err := identity.New(identity.Config{
		URL:       cfg.SupabaseURL,
		AnonKey:   cfg.SupabaseAnonKey,
		JWTSecret: cfg.SupabaseJWTSecret,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize identity client: %v", err)
	}

	llmClient, err := llm.New(llm.Config{
		BaseURL:     cfg.LLMBaseURL,
		APIKey:      cfg.LLMAPIKey,
		Model:       cfg.LLMModel,
		Temperature: cfg.LLMTemperature,
		Timeout:     cfg.LLMTimeout,
	})
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize llm client: %v", err)
	}

	sessions, err := session.NewStore(cfg.SessionSecret, cfg.SessionMaxAge, cfg.IsProduction())
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to initialize session store: %v", err)
	}

	// Metrics
	registry := prometheus.NewRegistry()
	var recorder metrics.Recorder = metrics.Nop{}
	if cfg.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		recorder = metrics.NewCollector(registry)
	}

	// Services
	emailService := service.NewEmailService(
		cfg.ResendAPIKey,
		cfg.EmailFrom,
		cfg.SupportEmail,
		cfg.ResendAudienceID,
		cfg.SiteURL,
		cfg.AppName,
		cfg.IsDevelopment(),
	)
	profileService := service.NewProfileService(profileRepository)
	authService := service.NewAuthService(identityClient, profileService, emailService, recorder, cfg.SiteURL)
	fileService := service.NewFileService(fileStorage, cfg.SiteURL)
	fetcher := webpage.NewFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes)
	analysisService := service.NewAnalysisService(llmClient, fetcher, recorder)
	feedbackService := service.NewFeedbackService(emailService, recorder)

	contentService := service.NewContentService(cfg.ContentPath, cfg.IsDevelopment())
	err = contentService.Load()
	if err != nil {
		database.Close()
		return nil, fmt.Errorf("failed to load content: %v", err)
	}
	sitemapService := service.NewSitemapService(contentService, cfg.SiteURL)

	authLimits := middleware.AuthRateLimiterConfig()
	authLimits.TrustProxy = cfg.TrustedProxy
	analyzeLimits := middleware.AnalyzeRateLimiterConfig(cfg.AnalyzeRatePerMinute, cfg.AnalyzeBurst)
	analyzeLimits.TrustProxy = cfg.TrustedProxy

	return &App{
		Cfg:      cfg,
		DB:       database,
		Sessions: sessions,
		Registry: registry,
		Metrics:  recorder,

		AuthService:     authService,
		ProfileService:  profileService,
		AnalysisService: analysisService,
		FeedbackService: feedbackService,
		EmailService:    emailService,
		FileService:     fileService,
		ContentService:  contentService,
		SitemapService:  sitemapService,

		AuthLimiter:    middleware.NewRateLimiter(authLimits),
		AnalyzeLimiter: middleware.NewRateLimiter(analyzeLimits),
	}, nil
}

func (a *App) Close() error {
	a.AuthLimiter.Stop()
	a.AnalyzeLimiter.Stop()
	if a.DB != nil {
		return db.Close(a.DB)
	}
	return nil
}
