// Package identity is a small client for the hosted auth service's REST API
// (Supabase GoTrue). It covers magic links, OAuth with PKCE, token refresh and
// sign-out.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/uxlens/uxlens/internal/model"
	"golang.org/x/oauth2"
)

type Config struct {
	URL       string
	AnonKey   string
	JWTSecret string
	Timeout   time.Duration
}

type Client struct {
	baseURL   string
	anonKey   string
	jwtSecret []byte
	timeout   time.Duration

	httpClient *http.Client
}

func New(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errors.New("identity: url required")
	}
	if strings.TrimSpace(cfg.AnonKey) == "" {
		return nil, errors.New("identity: anon key required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		baseURL:    baseURL,
		anonKey:    strings.TrimSpace(cfg.AnonKey),
		timeout:    timeout,
		httpClient: &http.Client{},
	}
	if cfg.JWTSecret != "" {
		c.jwtSecret = []byte(cfg.JWTSecret)
	}
	return c, nil
}

// NewWithHTTPClient is intended for tests; it avoids network access by using a custom RoundTripper.
func NewWithHTTPClient(cfg Config, httpClient *http.Client) (*Client, error) {
	c, err := New(cfg)
	if err != nil {
		return nil, err
	}
	if httpClient != nil {
		c.httpClient = httpClient
	}
	return c, nil
}

// PKCE holds a code verifier and its S256 challenge.
type PKCE struct {
	Verifier  string
	Challenge string
}

func NewPKCE() PKCE {
	v := oauth2.GenerateVerifier()
	return PKCE{Verifier: v, Challenge: oauth2.S256ChallengeFromVerifier(v)}
}

// TokenResponse is the auth API's session payload.
type TokenResponse struct {
	AccessToken  string  `json:"access_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int64   `json:"expires_in"`
	ExpiresAt    int64   `json:"expires_at"`
	RefreshToken string  `json:"refresh_token"`
	User         apiUser `json:"user"`
}

// Session converts the payload into the cookie session.
func (t *TokenResponse) Session() (*model.Session, error) {
	if t == nil || t.AccessToken == "" {
		return nil, ErrNoSession
	}

	expires := time.Unix(t.ExpiresAt, 0)
	if t.ExpiresAt == 0 {
		expires = time.Now().Add(time.Duration(t.ExpiresIn) * time.Second)
	}

	return &model.Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		ExpiresAt:    expires.UTC(),
		UserID:       t.User.ID,
		Email:        t.User.Email,
	}, nil
}

// IdentityUser returns the user embedded in the token response.
func (t *TokenResponse) IdentityUser() *model.IdentityUser {
	return t.User.toModel()
}

type apiUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	LastSignInAt *time.Time     `json:"last_sign_in_at"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

func (u apiUser) toModel() *model.IdentityUser {
	out := &model.IdentityUser{
		ID:           u.ID,
		Email:        u.Email,
		LastSignInAt: u.LastSignInAt,
		FullName:     firstString(u.UserMetadata, "full_name", "name", "user_name"),
		AvatarURL:    firstString(u.UserMetadata, "avatar_url", "picture"),
		Provider:     firstString(u.AppMetadata, "provider"),
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}

// SendMagicLink asks the auth service to email a sign-in link. With a code
// challenge the link comes back to redirectTo with ?code=.
func (c *Client) SendMagicLink(ctx context.Context, email, redirectTo, codeChallenge string) error {
	body := map[string]any{
		"email":       email,
		"create_user": true,
	}
	if codeChallenge != "" {
		body["code_challenge"] = codeChallenge
		body["code_challenge_method"] = "s256"
	}

	q := url.Values{}
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/otp", q, "", body, nil)
}

// AuthorizeURL is where the browser goes to start an OAuth sign-in.
func (c *Client) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	q := url.Values{}
	q.Set("provider", provider)
	if redirectTo != "" {
		q.Set("redirect_to", redirectTo)
	}
	if codeChallenge != "" {
		q.Set("code_challenge", codeChallenge)
		q.Set("code_challenge_method", "s256")
	}
	return c.baseURL + "/auth/v1/authorize?" + q.Encode()
}

// ExchangeCode trades a PKCE auth code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code, verifier string) (*TokenResponse, error) {
	q := url.Values{"grant_type": {"pkce"}}
	body := map[string]string{"auth_code": code, "code_verifier": verifier}

	var out TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyTokenHash completes an email link that carries token_hash and type.
func (c *Client) VerifyTokenHash(ctx context.Context, tokenHash, typ string) (*TokenResponse, error) {
	if typ == "" {
		typ = "magiclink"
	}
	body := map[string]string{"token_hash": tokenHash, "type": typ}

	var out TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/verify", nil, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	q := url.Values{"grant_type": {"refresh_token"}}
	body := map[string]string{"refresh_token": refreshToken}

	var out TokenResponse
	if err := c.doJSON(ctx, http.MethodPost, "/auth/v1/token", q, "", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// User fetches the user behind an access token. This is the authoritative
// check for tokens that arrived from the browser.
func (c *Client) User(ctx context.Context, accessToken string) (*model.IdentityUser, error) {
	var out apiUser
	if err := c.doJSON(ctx, http.MethodGet, "/auth/v1/user", nil, accessToken, nil, &out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, ErrInvalidToken
	}
	return out.toModel(), nil
}

func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	return c.doJSON(ctx, http.MethodPost, "/auth/v1/logout", nil, accessToken, nil, nil)
}

func (c *Client) doJSON(ctx context.Context, method, path string, query url.Values, bearer string, body any, out any) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer == "" {
		bearer = c.anonKey
	}
	req.Header.Set("Authorization", "Bearer "+bearer)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
		return parseAPIError(resp.StatusCode, raw)
	}

	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func parseAPIError(status int, raw []byte) *APIError {
	var body struct {
		ErrorCode        string `json:"error_code"`
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	_ = json.Unmarshal(raw, &body)

	e := &APIError{StatusCode: status}
	e.Code = body.ErrorCode
	if e.Code == "" {
		e.Code = body.Error
	}
	for _, m := range []string{body.Msg, body.Message, body.ErrorDescription} {
		if m != "" {
			e.Message = m
			break
		}
	}
	if e.Message == "" {
		e.Message = strings.TrimSpace(string(raw))
	}
	return e
}
