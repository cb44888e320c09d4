// Package ctxkeys holds the request-scoped values shared between middleware,
// handlers and templates.
package ctxkeys

import (
	"context"

	"github.com/uxlens/uxlens/internal/config"
	"github.com/uxlens/uxlens/internal/model"
)

type key int

const (
	sessionKey key = iota
	profileKey
	urlPathKey
	configKey
	csrfTokenKey
	requestIDKey
)

// get returns the zero value when k is unset or holds another type.
func get[T any](ctx context.Context, k key) T {
	v, _ := ctx.Value(k).(T)
	return v
}

func Session(ctx context.Context) *model.Session { return get[*model.Session](ctx, sessionKey) }

func WithSession(ctx context.Context, sess *model.Session) context.Context {
	return context.WithValue(ctx, sessionKey, sess)
}

// Profile is nil for guests and when the profile could not be ensured.
func Profile(ctx context.Context) *model.Profile { return get[*model.Profile](ctx, profileKey) }

func WithProfile(ctx context.Context, p *model.Profile) context.Context {
	return context.WithValue(ctx, profileKey, p)
}

func URLPath(ctx context.Context) string { return get[string](ctx, urlPathKey) }

func WithURLPath(ctx context.Context, path string) context.Context {
	return context.WithValue(ctx, urlPathKey, path)
}

// Config is the sanitized config; secrets never reach the context.
func Config(ctx context.Context) *config.Config { return get[*config.Config](ctx, configKey) }

func WithConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func CSRFToken(ctx context.Context) string { return get[string](ctx, csrfTokenKey) }

func WithCSRFToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, csrfTokenKey, token)
}

func RequestID(ctx context.Context) string { return get[string](ctx, requestIDKey) }

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}
