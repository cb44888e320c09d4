package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
)

type profileFixture struct {
	profiles *service.ProfileService
	handler  *ProfileHandler
	sess     *model.Session
}

func newProfileFixture(t *testing.T) *profileFixture {
	t.Helper()
	profiles := newProfileService(t)
	_, _, err := profiles.EnsureProfile(context.Background(), &model.IdentityUser{
		ID:       "user-1",
		Email:    "ada@example.com",
		FullName: "Ada Lovelace",
	})
	require.NoError(t, err)

	return &profileFixture{
		profiles: profiles,
		handler:  NewProfileHandler(profiles, service.NewFileService(nil, "https://uxlens.test")),
		sess:     &model.Session{UserID: "user-1", Email: "ada@example.com", AccessToken: "at"},
	}
}

func TestProfileGet(t *testing.T) {
	f := newProfileFixture(t)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/api/profile", nil), f.sess, nil)
	rec := httptest.NewRecorder()
	f.handler.Get(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var p model.Profile
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &p))
	assert.Equal(t, "user-1", p.ID)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
}

func TestProfilePatch(t *testing.T) {
	f := newProfileFixture(t)

	body := `{"bio":"<script>x</script>Researcher","preferences":{"theme":"dark"}}`
	req := signedIn(httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(body)), f.sess, nil)
	rec := httptest.NewRecorder()
	f.handler.Patch(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stored, err := f.profiles.ByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.DisplayName, "absent fields are left alone")
	assert.Equal(t, "Researcher", stored.Bio)
	assert.Equal(t, "dark", stored.Preferences.String("theme"))
}

func TestProfilePatchValidation(t *testing.T) {
	f := newProfileFixture(t)

	tests := []struct {
		name string
		body string
	}{
		{"blank name", `{"display_name":"   "}`},
		{"long name", `{"display_name":"` + strings.Repeat("a", 101) + `"}`},
		{"bad avatar", `{"avatar_url":"javascript:alert(1)"}`},
		{"not json", `display_name=x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := signedIn(httptest.NewRequest(http.MethodPatch, "/api/profile", strings.NewReader(tt.body)), f.sess, nil)
			rec := httptest.NewRecorder()
			f.handler.Patch(rec, req)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.NotEmpty(t, decodeBody(t, rec)["error"])
		})
	}
}

func TestProfileUpdateForm(t *testing.T) {
	f := newProfileFixture(t)

	form := url.Values{"display_name": {"Countess"}, "bio": {"Notes on the engine"}, "theme": {"dark"}}
	req := httptest.NewRequest(http.MethodPost, "/app/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.UpdateForm(rec, signedIn(req, f.sess, nil))

	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/app/profile?saved=1", rec.Header().Get("Location"))

	stored, err := f.profiles.ByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Countess", stored.DisplayName)
	assert.Equal(t, "dark", stored.Preferences.String("theme"))
}

func TestProfileUpdateFormError(t *testing.T) {
	f := newProfileFixture(t)

	form := url.Values{"display_name": {""}, "bio": {"kept"}, "theme": {"neon"}}
	req := httptest.NewRequest(http.MethodPost, "/app/profile", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	f.handler.UpdateForm(rec, signedIn(req, f.sess, nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "display name is required")
	assert.Contains(t, rec.Body.String(), "kept")

	stored, err := f.profiles.ByID(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", stored.DisplayName)
}

func TestProfilePage(t *testing.T) {
	f := newProfileFixture(t)

	req := signedIn(httptest.NewRequest(http.MethodGet, "/app/profile?saved=1", nil), f.sess, nil)
	rec := httptest.NewRecorder()
	f.handler.ProfilePage(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Profile saved.")
	assert.Contains(t, rec.Body.String(), "Ada Lovelace")
}

func TestAvatarUploadWithoutStorage(t *testing.T) {
	f := newProfileFixture(t)

	req := signedIn(httptest.NewRequest(http.MethodPost, "/app/profile/avatar", nil), f.sess, nil)
	rec := httptest.NewRecorder()
	f.handler.UploadAvatar(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "Avatar uploads are not available")
}

func TestMediaWithoutStorage(t *testing.T) {
	f := newProfileFixture(t)

	req := httptest.NewRequest(http.MethodGet, "/media/avatars/user-1/a.png", nil)
	req.SetPathValue("path", "avatars/user-1/a.png")
	rec := httptest.NewRecorder()
	f.handler.Media(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
