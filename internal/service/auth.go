package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/uxlens/uxlens/internal/identity"
	"github.com/uxlens/uxlens/internal/metrics"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/validation"
)

var (
	ErrInvalidEmail        = errors.New("invalid email address")
	ErrUnsupportedProvider = errors.New("unsupported sign-in provider")
)

// OAuthProviders lists the providers offered on the sign-in page.
var OAuthProviders = []string{"google", "github"}

// IdentityProvider is the hosted auth service.
type IdentityProvider interface {
	SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error
	AuthorizeURL(provider, redirectTo, codeChallenge string) string
	ExchangeCode(ctx context.Context, code, verifier string) (*identity.TokenResponse, error)
	VerifyTokenHash(ctx context.Context, tokenHash, typ string) (*identity.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*identity.TokenResponse, error)
	User(ctx context.Context, accessToken string) (*model.IdentityUser, error)
	SignOut(ctx context.Context, accessToken string) error
	ParseAccessToken(token string) (*identity.Claims, error)
}

// WelcomeSender greets users whose profile was just created.
type WelcomeSender interface {
	SendWelcomeEmail(ctx context.Context, email, name string) error
}

type AuthService struct {
	idp            IdentityProvider
	profileService *ProfileService
	welcome        WelcomeSender
	metrics        metrics.Recorder
	siteURL        string
}

func NewAuthService(idp IdentityProvider, profileService *ProfileService, welcome WelcomeSender, recorder metrics.Recorder, siteURL string) *AuthService {
	if recorder == nil {
		recorder = metrics.Nop{}
	}
	return &AuthService{
		idp:            idp,
		profileService: profileService,
		welcome:        welcome,
		metrics:        recorder,
		siteURL:        strings.TrimSuffix(siteURL, "/"),
	}
}

// CallbackURL is where the auth service sends the browser back to.
func (s *AuthService) CallbackURL() string {
	return s.siteURL + "/auth/callback"
}

// SendMagicLink validates the address and asks the auth service to email a
// PKCE magic link. The returned verifier must be kept for the callback.
func (s *AuthService) SendMagicLink(ctx context.Context, email string) (identity.PKCE, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	err := validation.ValidateEmail(email)
	if err != nil {
		return identity.PKCE{}, ErrInvalidEmail
	}

	pkce := identity.NewPKCE()
	err = s.idp.SendMagicLink(ctx, email, s.CallbackURL(), pkce.Challenge)
	if err != nil {
		s.metrics.RecordSignIn("magic_link", "send_failed")
		return identity.PKCE{}, fmt.Errorf("send magic link: %w", err)
	}

	slog.Info("magic link sent", "email", email)
	return pkce, nil
}

// StartOAuth returns the provider URL to redirect to plus the PKCE pair.
func (s *AuthService) StartOAuth(provider string) (string, identity.PKCE, error) {
	provider = strings.ToLower(strings.TrimSpace(provider))
	if !isOAuthProvider(provider) {
		return "", identity.PKCE{}, ErrUnsupportedProvider
	}

	pkce := identity.NewPKCE()
	return s.idp.AuthorizeURL(provider, s.CallbackURL(), pkce.Challenge), pkce, nil
}

func isOAuthProvider(provider string) bool {
	for _, p := range OAuthProviders {
		if p == provider {
			return true
		}
	}
	return false
}

// CompleteCode finishes a PKCE flow (OAuth or magic link with ?code=).
func (s *AuthService) CompleteCode(ctx context.Context, code, verifier string) (*model.Session, *model.Profile, error) {
	if code == "" || verifier == "" {
		s.metrics.RecordSignIn("code", "invalid")
		return nil, nil, fmt.Errorf("%w: missing code or verifier", ErrInvalidRequest)
	}

	tok, err := s.idp.ExchangeCode(ctx, code, verifier)
	if err != nil {
		s.metrics.RecordSignIn("code", "failed")
		return nil, nil, fmt.Errorf("exchange code: %w", err)
	}
	return s.finish(ctx, "code", tok)
}

// CompleteTokenHash finishes an email link carrying token_hash and type.
func (s *AuthService) CompleteTokenHash(ctx context.Context, tokenHash, typ string) (*model.Session, *model.Profile, error) {
	if tokenHash == "" {
		s.metrics.RecordSignIn("token_hash", "invalid")
		return nil, nil, fmt.Errorf("%w: missing token hash", ErrInvalidRequest)
	}

	tok, err := s.idp.VerifyTokenHash(ctx, tokenHash, typ)
	if err != nil {
		s.metrics.RecordSignIn("token_hash", "failed")
		return nil, nil, fmt.Errorf("verify token hash: %w", err)
	}
	return s.finish(ctx, "token_hash", tok)
}

// CompleteTokens accepts tokens the browser read from a URL fragment. They
// are only trusted after the auth service confirms the access token.
func (s *AuthService) CompleteTokens(ctx context.Context, accessToken, refreshToken string, expiresIn int64) (*model.Session, *model.Profile, error) {
	if accessToken == "" || refreshToken == "" {
		s.metrics.RecordSignIn("implicit", "invalid")
		return nil, nil, fmt.Errorf("%w: missing tokens", ErrInvalidRequest)
	}

	user, err := s.idp.User(ctx, accessToken)
	if err != nil {
		s.metrics.RecordSignIn("implicit", "failed")
		return nil, nil, fmt.Errorf("verify access token: %w", err)
	}

	tok := &identity.TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    expiresIn,
	}
	if claims, err := s.idp.ParseAccessToken(accessToken); err == nil && !claims.ExpiresAt.IsZero() {
		tok.ExpiresAt = claims.ExpiresAt.Unix()
	} else if expiresIn <= 0 {
		tok.ExpiresIn = 3600
	}

	sess, err := tok.Session()
	if err != nil {
		return nil, nil, err
	}
	sess.UserID = user.ID
	sess.Email = user.Email

	return s.signIn(ctx, "implicit", sess, user)
}

func (s *AuthService) finish(ctx context.Context, method string, tok *identity.TokenResponse) (*model.Session, *model.Profile, error) {
	sess, err := tok.Session()
	if err != nil {
		s.metrics.RecordSignIn(method, "failed")
		return nil, nil, err
	}

	user := tok.IdentityUser()
	if user.ID == "" {
		// Some flows omit the user object; ask for it.
		user, err = s.idp.User(ctx, sess.AccessToken)
		if err != nil {
			s.metrics.RecordSignIn(method, "failed")
			return nil, nil, fmt.Errorf("load user: %w", err)
		}
		sess.UserID = user.ID
		sess.Email = user.Email
	}

	return s.signIn(ctx, method, sess, user)
}

// signIn ensures the profile exists and stamps the sign-in time.
func (s *AuthService) signIn(ctx context.Context, method string, sess *model.Session, user *model.IdentityUser) (*model.Session, *model.Profile, error) {
	profile, created, err := s.profileService.EnsureProfile(ctx, user)
	if err != nil {
		s.metrics.RecordSignIn(method, "profile_failed")
		return nil, nil, fmt.Errorf("ensure profile: %w", err)
	}

	now := time.Now().UTC()
	if err := s.profileService.RecordSignIn(ctx, profile.ID, now); err != nil {
		slog.Warn("failed to record sign-in time", "user_id", profile.ID, "error", err)
	} else {
		profile.LastSignIn = &now
	}

	if created && s.welcome != nil && user.Email != "" {
		if err := s.welcome.SendWelcomeEmail(ctx, user.Email, profile.DisplayName); err != nil {
			slog.Warn("failed to send welcome email", "user_id", profile.ID, "error", err)
		}
	}

	s.metrics.RecordSignIn(method, "success")
	slog.Info("user signed in", "user_id", profile.ID, "method", method, "new_profile", created)
	return sess, profile, nil
}

// RefreshSession trades the refresh token for a new session. It is called
// at most once per request.
func (s *AuthService) RefreshSession(ctx context.Context, sess *model.Session) (*model.Session, error) {
	if sess == nil || sess.RefreshToken == "" {
		return nil, identity.ErrNoSession
	}

	tok, err := s.idp.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh session: %w", err)
	}

	fresh, err := tok.Session()
	if err != nil {
		return nil, err
	}
	if fresh.UserID == "" {
		fresh.UserID = sess.UserID
		fresh.Email = sess.Email
	}
	return fresh, nil
}

// SignOut revokes the session upstream. Failures are logged only.
func (s *AuthService) SignOut(ctx context.Context, sess *model.Session) {
	if sess == nil {
		return
	}
	if err := s.idp.SignOut(ctx, sess.AccessToken); err != nil {
		slog.Warn("provider sign-out failed", "user_id", sess.UserID, "error", err)
	}
}

// SafeRedirectPath returns next when it is a same-site absolute path, else fallback.
func SafeRedirectPath(next, fallback string) string {
	next = strings.TrimSpace(next)
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.IsAbs() || u.Host != "" {
		return fallback
	}
	return next
}
