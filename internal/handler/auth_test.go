package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/identity"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/session"
)

type authFixture struct {
	idp     *fakeIdentity
	store   *session.Store
	handler *authHandler
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	idp := &fakeIdentity{}
	store := newStore(t)
	svc := service.NewAuthService(idp, newProfileService(t), nil, nil, "https://uxlens.test")
	return &authFixture{idp: idp, store: store, handler: NewAuthHandler(svc, store)}
}

// withFlow copies the flow cookie a previous response set onto r.
func (f *authFixture) withFlow(t *testing.T, r *http.Request, flow session.Flow) *http.Request {
	t.Helper()
	rec := httptest.NewRecorder()
	require.NoError(t, f.store.WriteFlow(rec, flow))
	for _, c := range rec.Result().Cookies() {
		r.AddCookie(c)
	}
	return r
}

func cookieNamed(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestSendMagicLink(t *testing.T) {
	f := newAuthFixture(t)

	form := url.Values{"email": {"  Ada@Example.com "}, "next": {"/app/profile"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/magic-link", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	f.handler.SendMagicLink(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada@example.com")

	flowCookie := cookieNamed(rec, session.FlowCookieName)
	require.NotNil(t, flowCookie)
	check := httptest.NewRequest(http.MethodGet, "/", nil)
	check.AddCookie(flowCookie)
	flow := f.store.ReadFlow(check)
	assert.NotEmpty(t, flow.Verifier)
	assert.Equal(t, "/app/profile", flow.Next)
}

func TestSendMagicLinkInvalidEmail(t *testing.T) {
	f := newAuthFixture(t)

	form := url.Values{"email": {"not-an-email"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/magic-link", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()

	f.handler.SendMagicLink(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Please provide a valid email address")
	assert.Nil(t, cookieNamed(rec, session.FlowCookieName))
}

func TestOAuthRedirect(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/github?next=/app/report", nil)
	req.SetPathValue("provider", "github")
	rec := httptest.NewRecorder()

	f.handler.OAuth(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://auth.example.test/authorize?provider=github"))
	assert.NotNil(t, cookieNamed(rec, session.FlowCookieName))
}

func TestOAuthUnknownProvider(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/oauth/myspace", nil)
	req.SetPathValue("provider", "myspace")
	rec := httptest.NewRecorder()

	f.handler.OAuth(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCallbackProviderError(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?error=access_denied&error_description=User+cancelled", nil)
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "User cancelled")
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestCallbackCodeWithoutVerifier(t *testing.T) {
	f := newAuthFixture(t)
	f.idp.token = tokenFor("user-1", "ada@example.com")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil)
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, f.idp.gotCode, "no exchange without a verifier")
}

func TestCallbackCodeExchange(t *testing.T) {
	f := newAuthFixture(t)
	f.idp.token = tokenFor("user-1", "ada@example.com")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?code=abc", nil)
	req = f.withFlow(t, req, session.Flow{Verifier: "verifier-1", Next: "/app/profile"})
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code, rec.Body.String())
	assert.Equal(t, "/app/profile", rec.Header().Get("Location"))
	assert.Equal(t, "abc", f.idp.gotCode)
	assert.Equal(t, "verifier-1", f.idp.gotVerifier)

	sessCookie := cookieNamed(rec, session.CookieName)
	require.NotNil(t, sessCookie)
	sess, err := f.store.Decode(sessCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", sess.UserID)
	assert.Equal(t, "access-user-1", sess.AccessToken)

	flowCookie := cookieNamed(rec, session.FlowCookieName)
	require.NotNil(t, flowCookie)
	assert.Negative(t, flowCookie.MaxAge, "flow cookie is cleared")
}

func TestCallbackDefaultsToAnalyze(t *testing.T) {
	f := newAuthFixture(t)
	f.idp.token = tokenFor("user-2", "bo@example.com")

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token_hash=th&type=magiclink&next=//evil.test", nil)
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/analyze", rec.Header().Get("Location"))
	assert.Equal(t, "th", f.idp.gotHash)
}

func TestCallbackRejectedLink(t *testing.T) {
	f := newAuthFixture(t)
	f.idp.err = &identity.APIError{StatusCode: http.StatusForbidden, Message: "Token has expired"}

	req := httptest.NewRequest(http.MethodGet, "/auth/callback?token_hash=old&type=magiclink", nil)
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid or has expired")
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestCallbackWithoutParamsServesCapturePage(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/auth/callback", nil)
	rec := httptest.NewRecorder()

	f.handler.Callback(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/auth/capture")
}

func TestCaptureTokens(t *testing.T) {
	f := newAuthFixture(t)
	f.idp.user = &model.IdentityUser{ID: "user-3", Email: "cy@example.com"}

	body := `{"access_token":"at","refresh_token":"rt","expires_in":3600,"next":"/app/report"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/capture", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	f.handler.Capture(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "/app/report", out["redirect"])

	sessCookie := cookieNamed(rec, session.CookieName)
	require.NotNil(t, sessCookie)
	sess, err := f.store.Decode(sessCookie.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-3", sess.UserID)
	assert.Equal(t, "rt", sess.RefreshToken)
}

func TestCaptureRejectsUnverifiedToken(t *testing.T) {
	f := newAuthFixture(t)

	body := `{"access_token":"forged","refresh_token":"rt"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/capture", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	f.handler.Capture(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Nil(t, cookieNamed(rec, session.CookieName))
}

func TestCaptureMissingTokens(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/capture", strings.NewReader(`{"access_token":"at"}`))
	rec := httptest.NewRecorder()

	f.handler.Capture(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogout(t *testing.T) {
	f := newAuthFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/auth/logout", nil)
	req = signedIn(req, &model.Session{UserID: "user-1", AccessToken: "at-1"}, nil)
	rec := httptest.NewRecorder()

	f.handler.Logout(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.Equal(t, "at-1", f.idp.signedOut)
	sessCookie := cookieNamed(rec, session.CookieName)
	require.NotNil(t, sessCookie)
	assert.Negative(t, sessCookie.MaxAge)
}
