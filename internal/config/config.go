package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName      string
	AppEnv       string
	SiteURL      string
	Port         string
	AppTagline   string
	SupportEmail string
	ContentPath  string

	// Identity provider (hosted auth + database service)
	SupabaseURL       string
	SupabaseAnonKey   string
	SupabaseJWTSecret string

	// Session cookie sealing
	SessionSecret string
	SessionMaxAge time.Duration

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// LLM (OpenAI-compatible chat completions)
	LLMBaseURL     string
	LLMAPIKey      string
	LLMModel       string
	LLMTemperature float64
	LLMTimeout     time.Duration

	// Page fetch for URL analyses
	FetchTimeout  time.Duration
	FetchMaxBytes int64

	// Rate limits for LLM-backed endpoints
	AnalyzeRatePerMinute float64
	AnalyzeBurst         int
	TrustedProxy         bool // a reverse proxy overwrites X-Forwarded-For and X-Real-IP

	// Email
	EmailFrom        string
	ResendAPIKey     string
	ResendAudienceID string

	// Observability (optional)
	SentryDSN      string
	MetricsEnabled bool

	// Storage (S3-compatible, optional: avatar uploads are disabled without it)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry for avatar redirects
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	cfg := &Config{
		// Application
		AppName:      envString("APP_NAME", "UXLens"),
		AppEnv:       envString("APP_ENV", "development"),
		SiteURL:      strings.TrimSuffix(envRequired("NEXT_PUBLIC_SITE_URL", "SITE_URL"), "/"),
		Port:         envString("PORT", "8090"),
		AppTagline:   envString("APP_TAGLINE", "Find the UX problems your users already hit"),
		SupportEmail: envString("SUPPORT_EMAIL", "hello@example.com"),
		ContentPath:  envString("CONTENT_PATH", "content"),

		// Identity provider
		SupabaseURL:       strings.TrimSuffix(envRequired("NEXT_PUBLIC_SUPABASE_URL", "SUPABASE_URL"), "/"),
		SupabaseAnonKey:   envRequired("NEXT_PUBLIC_SUPABASE_ANON_KEY", "SUPABASE_ANON_KEY"),
		SupabaseJWTSecret: envString("SUPABASE_JWT_SECRET", ""),

		// Session
		SessionSecret: envRequired("SESSION_SECRET"),
		SessionMaxAge: envDuration("SESSION_MAX_AGE", 30*24*time.Hour), // 30 days

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/uxlens.db?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)"),

		// LLM
		LLMBaseURL:     envString("LLM_BASE_URL", "https://api.openai.com"),
		LLMAPIKey:      envString("LLM_API_KEY", ""),
		LLMModel:       envString("LLM_MODEL", "gpt-4o-mini"),
		LLMTemperature: envFloat("LLM_TEMPERATURE", 0.2),
		LLMTimeout:     envDuration("LLM_TIMEOUT", 90*time.Second),

		// Page fetch
		FetchTimeout:  envDuration("FETCH_TIMEOUT", 15*time.Second),
		FetchMaxBytes: int64(envInt("FETCH_MAX_BYTES", 2<<20)), // 2 MiB

		// Rate limits
		AnalyzeRatePerMinute: envFloat("ANALYZE_RATE_PER_MINUTE", 6),
		AnalyzeBurst:         envInt("ANALYZE_BURST", 3),
		TrustedProxy:         envBool("TRUSTED_PROXY", false),

		// Email (RESEND_API_KEY optional in development)
		EmailFrom:        envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey:     envString("RESEND_API_KEY", ""),
		ResendAudienceID: envString("RESEND_AUDIENCE_ID", ""),

		// Observability
		SentryDSN:      envString("SENTRY_DSN", ""),
		MetricsEnabled: envBool("METRICS_ENABLED", true),

		// Storage
		S3Region:        envString("S3_REGION", ""),
		S3Bucket:        envString("S3_BUCKET", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 1*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows the LLM key and email to be missing so pages can be worked on offline.
func validateProduction(cfg *Config) {
	if cfg.LLMAPIKey == "" {
		slog.Error("production deployment requires LLM_API_KEY")
		os.Exit(1)
	}
	if len(cfg.SessionSecret) < 32 {
		slog.Error("production deployment requires SESSION_SECRET of at least 32 characters")
		os.Exit(1)
	}
	if cfg.ResendAPIKey == "" {
		slog.Warn("RESEND_API_KEY not set, feedback and newsletter emails are disabled")
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		slog.Warn("config invalid int, using default", "key", key, "value", v, "default", def)
		return def
	}
	return i
}

func envFloat(key string, def float64) float64 {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		slog.Warn("config invalid float, using default", "key", key, "value", v, "default", def)
		return def
	}
	return f
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

// envRequired returns the first non-empty value among keys or exits.
func envRequired(keys ...string) string {
	for _, key := range keys {
		if v := os.Getenv(key); v != "" {
			return v
		}
	}
	slog.Error("config required env var missing", "keys", keys)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// StorageEnabled reports whether S3 credentials are configured.
func (c *Config) StorageEnabled() bool {
	return c.S3Bucket != "" && c.S3Region != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
// Safe to expose in ctx, templates and client-facing contexts.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:      c.AppName,
		AppEnv:       c.AppEnv,
		SiteURL:      c.SiteURL,
		Port:         c.Port,
		AppTagline:   c.AppTagline,
		SupportEmail: c.SupportEmail,

		SupabaseURL:     c.SupabaseURL,
		SupabaseAnonKey: c.SupabaseAnonKey, // the provider treats it as a public key

		EmailFrom: c.EmailFrom,

		S3Endpoint: c.S3Endpoint, // Needed for CSP policies
	}
}
