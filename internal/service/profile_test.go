package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/db"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/repository"

	_ "modernc.org/sqlite"
)

func newTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	conn, err := sqlx.Connect("sqlite", ":memory:")
	require.NoError(t, err)
	conn.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, db.RunMigrations(t.Context(), conn.DB, "sqlite"))
	return conn
}

func countProfiles(t *testing.T, conn *sqlx.DB) int {
	t.Helper()
	var n int
	require.NoError(t, conn.Get(&n, `SELECT COUNT(*) FROM profiles`))
	return n
}

func TestEnsureProfileIsIdempotent(t *testing.T) {
	conn := newTestDB(t)
	svc := NewProfileService(repository.NewProfileRepository(conn))
	user := &model.IdentityUser{ID: "user-1", Email: "ada@example.com", FullName: "Ada Lovelace", AvatarURL: "https://img.example.com/a.png"}

	p, created, err := svc.EnsureProfile(context.Background(), user)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "Ada Lovelace", p.DisplayName)
	assert.Equal(t, "https://img.example.com/a.png", p.AvatarURL)

	again, created, err := svc.EnsureProfile(context.Background(), user)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, p.ID, again.ID)
	assert.Equal(t, 1, countProfiles(t, conn))
}

func TestEnsureProfileSeedsNameFromEmail(t *testing.T) {
	svc := NewProfileService(repository.NewProfileRepository(newTestDB(t)))

	p, _, err := svc.EnsureProfile(context.Background(), &model.IdentityUser{ID: "user-2", Email: "grace@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "grace", p.DisplayName)
}

// flakyRepo fails the plain insert so the upsert strategy has to run.
type flakyRepo struct {
	repository.ProfileRepository
	createCalls int
}

func (r *flakyRepo) Create(ctx context.Context, p *model.Profile) error {
	r.createCalls++
	return errors.New("insert rejected")
}

func TestEnsureProfileFallsBackToUpsert(t *testing.T) {
	conn := newTestDB(t)
	repo := &flakyRepo{ProfileRepository: repository.NewProfileRepository(conn)}
	svc := NewProfileService(repo)

	p, created, err := svc.EnsureProfile(context.Background(), &model.IdentityUser{ID: "user-3", Email: "x@example.com"})
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, "user-3", p.ID)
	assert.Equal(t, 1, repo.createCalls)
	assert.Equal(t, 1, countProfiles(t, conn))
}

func TestEnsureProfileRequiresID(t *testing.T) {
	svc := NewProfileService(repository.NewProfileRepository(newTestDB(t)))
	_, _, err := svc.EnsureProfile(context.Background(), &model.IdentityUser{})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func strPtr(s string) *string { return &s }

func TestProfileUpdate(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(repository.NewProfileRepository(newTestDB(t)))
	_, _, err := svc.EnsureProfile(ctx, &model.IdentityUser{ID: "user-4", Email: "lin@example.com"})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "user-4", model.ProfileUpdate{Preferences: map[string]any{"theme": "dark", "digest": true}})
	require.NoError(t, err)

	p, err := svc.Update(ctx, "user-4", model.ProfileUpdate{
		DisplayName: strPtr("  Lin  "),
		Bio:         strPtr(`<script>alert(1)</script>I <b>love</b> UX & research`),
		Preferences: map[string]any{"theme": nil, "lang": "en"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Lin", p.DisplayName)
	assert.Equal(t, "I love UX & research", p.Bio)
	assert.Equal(t, model.Preferences{"digest": true, "lang": "en"}, p.Preferences)

	stored, err := svc.ByID(ctx, "user-4")
	require.NoError(t, err)
	assert.Equal(t, "Lin", stored.DisplayName)
	assert.Equal(t, "en", stored.Preferences.String("lang"))
	assert.True(t, stored.Preferences.Bool("digest", false))

	_, err = svc.Update(ctx, "user-4", model.ProfileUpdate{DisplayName: strPtr(" ")})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Update(ctx, "user-4", model.ProfileUpdate{AvatarURL: strPtr("javascript:alert(1)")})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	_, err = svc.Update(ctx, "nobody", model.ProfileUpdate{})
	assert.ErrorIs(t, err, repository.ErrProfileNotFound)
}
