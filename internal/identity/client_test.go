package identity

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

const tokenBody = `{
	"access_token": "access-1",
	"token_type": "bearer",
	"expires_in": 3600,
	"expires_at": 1893456000,
	"refresh_token": "refresh-1",
	"user": {
		"id": "user-1",
		"email": "ada@example.com",
		"user_metadata": {"full_name": "Ada Lovelace", "picture": "https://img.example.com/ada.png"},
		"app_metadata": {"provider": "google"}
	}
}`

func newTestClient(t *testing.T, fn roundTripperFunc) *Client {
	t.Helper()
	c, err := NewWithHTTPClient(Config{URL: "https://auth.example.com/", AnonKey: "anon"}, &http.Client{Transport: fn})
	require.NoError(t, err)
	return c
}

func TestSendMagicLink(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, req.Method)
		assert.Equal(t, "/auth/v1/otp", req.URL.Path)
		assert.Equal(t, "https://app.example.com/auth/callback", req.URL.Query().Get("redirect_to"))
		assert.Equal(t, "anon", req.Header.Get("apikey"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "challenge", body["code_challenge"])
		assert.Equal(t, "s256", body["code_challenge_method"])

		return jsonResponse(http.StatusOK, `{}`), nil
	})

	err := c.SendMagicLink(context.Background(), "ada@example.com", "https://app.example.com/auth/callback", "challenge")
	require.NoError(t, err)
}

func TestExchangeCode(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/auth/v1/token", req.URL.Path)
		assert.Equal(t, "pkce", req.URL.Query().Get("grant_type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(req.Body).Decode(&body))
		assert.Equal(t, "code-1", body["auth_code"])
		assert.Equal(t, "verifier-1", body["code_verifier"])

		return jsonResponse(http.StatusOK, tokenBody), nil
	})

	tok, err := c.ExchangeCode(context.Background(), "code-1", "verifier-1")
	require.NoError(t, err)

	sess, err := tok.Session()
	require.NoError(t, err)
	assert.Equal(t, "access-1", sess.AccessToken)
	assert.Equal(t, "refresh-1", sess.RefreshToken)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, int64(1893456000), sess.ExpiresAt.Unix())

	user := tok.IdentityUser()
	assert.Equal(t, "Ada Lovelace", user.FullName)
	assert.Equal(t, "https://img.example.com/ada.png", user.AvatarURL)
	assert.Equal(t, "google", user.Provider)
}

func TestVerifyTokenHashAPIError(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/auth/v1/verify", req.URL.Path)
		return jsonResponse(http.StatusForbidden, `{"code":403,"error_code":"otp_expired","msg":"Email link is invalid or has expired"}`), nil
	})

	_, err := c.VerifyTokenHash(context.Background(), "hash", "")
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Equal(t, "otp_expired", apiErr.Code)
	assert.Equal(t, "Email link is invalid or has expired", apiErr.Message)
}

func TestUserUsesAccessToken(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "Bearer access-1", req.Header.Get("Authorization"))
		return jsonResponse(http.StatusOK, `{"id":"user-1","email":"ada@example.com","user_metadata":{"name":"Ada"}}`), nil
	})

	user, err := c.User(context.Background(), "access-1")
	require.NoError(t, err)
	assert.Equal(t, "user-1", user.ID)
	assert.Equal(t, "Ada", user.FullName)
}

func TestSignOutNoContent(t *testing.T) {
	c := newTestClient(t, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "/auth/v1/logout", req.URL.Path)
		return &http.Response{StatusCode: http.StatusNoContent, Body: io.NopCloser(strings.NewReader(""))}, nil
	})
	require.NoError(t, c.SignOut(context.Background(), "access-1"))
}

func TestAuthorizeURL(t *testing.T) {
	c, err := New(Config{URL: "https://auth.example.com", AnonKey: "anon"})
	require.NoError(t, err)

	raw := c.AuthorizeURL("github", "https://app.example.com/auth/callback", "chal")
	u, err := url.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "/auth/v1/authorize", u.Path)
	assert.Equal(t, "github", u.Query().Get("provider"))
	assert.Equal(t, "chal", u.Query().Get("code_challenge"))
	assert.Equal(t, "s256", u.Query().Get("code_challenge_method"))
}

func TestSessionWithoutAccessToken(t *testing.T) {
	_, err := (&TokenResponse{}).Session()
	assert.ErrorIs(t, err, ErrNoSession)
}

func TestNewPKCE(t *testing.T) {
	p := NewPKCE()
	assert.NotEmpty(t, p.Verifier)
	assert.NotEqual(t, p.Verifier, p.Challenge)
	assert.NotEqual(t, p.Challenge, NewPKCE().Challenge)
}

func signToken(t *testing.T, secret string, exp time.Time) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":   "user-1",
		"email": "ada@example.com",
		"exp":   exp.Unix(),
	})
	s, err := tok.SignedString([]byte(secret))
	require.NoError(t, err)
	return s
}

func TestParseAccessToken(t *testing.T) {
	verified, err := New(Config{URL: "https://auth.example.com", AnonKey: "anon", JWTSecret: "secret"})
	require.NoError(t, err)
	unverified, err := New(Config{URL: "https://auth.example.com", AnonKey: "anon"})
	require.NoError(t, err)

	good := signToken(t, "secret", time.Now().Add(time.Hour))
	claims, err := verified.ParseAccessToken(good)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, "ada@example.com", claims.Email)

	forged := signToken(t, "other", time.Now().Add(time.Hour))
	_, err = verified.ParseAccessToken(forged)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err = unverified.ParseAccessToken(forged)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)

	expired := signToken(t, "secret", time.Now().Add(-time.Hour))
	_, err = verified.ParseAccessToken(expired)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.True(t, IsExpired(err))

	_, err = unverified.ParseAccessToken("not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
