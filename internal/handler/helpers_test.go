package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/db"
	"github.com/uxlens/uxlens/internal/identity"
	"github.com/uxlens/uxlens/internal/llm"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/repository"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/session"
)

type fakeCompleter struct {
	text  string
	err   error
	calls int
	last  llm.CompletionRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.CompletionRequest) (string, error) {
	f.calls++
	f.last = req
	return f.text, f.err
}

type fakeIdentity struct {
	token       *identity.TokenResponse
	err         error
	user        *model.IdentityUser
	gotCode     string
	gotVerifier string
	gotHash     string
	signedOut   string
}

func (f *fakeIdentity) SendMagicLink(context.Context, string, string, string) error { return f.err }

func (f *fakeIdentity) AuthorizeURL(provider, redirectTo, codeChallenge string) string {
	return "https://auth.example.test/authorize?provider=" + provider + "&code_challenge=" + codeChallenge
}

func (f *fakeIdentity) ExchangeCode(_ context.Context, code, verifier string) (*identity.TokenResponse, error) {
	f.gotCode, f.gotVerifier = code, verifier
	return f.token, f.err
}

func (f *fakeIdentity) VerifyTokenHash(_ context.Context, tokenHash, _ string) (*identity.TokenResponse, error) {
	f.gotHash = tokenHash
	return f.token, f.err
}

func (f *fakeIdentity) Refresh(context.Context, string) (*identity.TokenResponse, error) {
	return f.token, f.err
}

func (f *fakeIdentity) User(context.Context, string) (*model.IdentityUser, error) {
	if f.user == nil {
		return nil, &identity.APIError{StatusCode: http.StatusUnauthorized, Message: "invalid JWT"}
	}
	return f.user, nil
}

func (f *fakeIdentity) SignOut(_ context.Context, accessToken string) error {
	f.signedOut = accessToken
	return nil
}

func (f *fakeIdentity) ParseAccessToken(string) (*identity.Claims, error) {
	return nil, errors.New("not a jwt")
}

func tokenFor(userID, email string) *identity.TokenResponse {
	tok := &identity.TokenResponse{
		AccessToken:  "access-" + userID,
		RefreshToken: "refresh-" + userID,
		ExpiresIn:    3600,
	}
	tok.User.ID = userID
	tok.User.Email = email
	return tok
}

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(t.Context(), conn.DB, "sqlite"))
	return conn
}

func newStore(t *testing.T) *session.Store {
	t.Helper()
	store, err := session.NewStore("handler-test-secret-0123456789", time.Hour, false)
	require.NoError(t, err)
	return store
}

func newProfileService(t *testing.T) *service.ProfileService {
	t.Helper()
	return service.NewProfileService(repository.NewProfileRepository(newTestDB(t)))
}

// signedIn attaches a session (and the profile, when given) like the auth middleware does.
func signedIn(r *http.Request, sess *model.Session, profile *model.Profile) *http.Request {
	ctx := ctxkeys.WithSession(r.Context(), sess)
	if profile != nil {
		ctx = ctxkeys.WithProfile(ctx, profile)
	}
	return r.WithContext(ctx)
}
