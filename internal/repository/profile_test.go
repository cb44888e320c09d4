package repository

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uxlens/uxlens/internal/db"
	"github.com/uxlens/uxlens/internal/model"

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

func TestProfileRepositoryCreateAndRead(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	_, err := repo.ByID(ctx, "missing")
	require.ErrorIs(t, err, ErrProfileNotFound)

	p := &model.Profile{
		ID:          "user-1",
		DisplayName: "Ada",
		Preferences: model.Preferences{"theme": "dark"},
	}
	require.NoError(t, repo.Create(ctx, p))
	assert.Error(t, repo.Create(ctx, &model.Profile{ID: "user-1"}), "duplicate id must fail")

	got, err := repo.ByID(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.DisplayName)
	assert.Equal(t, "dark", got.Preferences.String("theme"))
	assert.Nil(t, got.LastSignIn)
	assert.False(t, got.CreatedAt.IsZero())
}

func TestProfileRepositoryCreateIfMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	created, err := repo.CreateIfMissing(ctx, &model.Profile{ID: "user-2", DisplayName: "First"})
	require.NoError(t, err)
	assert.True(t, created)

	created, err = repo.CreateIfMissing(ctx, &model.Profile{ID: "user-2", DisplayName: "Second"})
	require.NoError(t, err)
	assert.False(t, created)

	got, err := repo.ByID(ctx, "user-2")
	require.NoError(t, err)
	assert.Equal(t, "First", got.DisplayName)
}

func TestProfileRepositoryUpdateAndTouch(t *testing.T) {
	ctx := context.Background()
	repo := NewProfileRepository(newTestDB(t))

	require.NoError(t, repo.Create(ctx, &model.Profile{ID: "user-3"}))

	p, err := repo.ByID(ctx, "user-3")
	require.NoError(t, err)
	p.Bio = "Designer"
	p.Preferences = model.Preferences{"emails": false}
	require.NoError(t, repo.Update(ctx, p))

	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.TouchLastSignIn(ctx, "user-3", at))

	got, err := repo.ByID(ctx, "user-3")
	require.NoError(t, err)
	assert.Equal(t, "Designer", got.Bio)
	assert.False(t, got.Preferences.Bool("emails", true))
	require.NotNil(t, got.LastSignIn)
	assert.True(t, at.Equal(*got.LastSignIn))

	err = repo.Update(ctx, &model.Profile{ID: "nobody"})
	assert.ErrorIs(t, err, ErrProfileNotFound)
	assert.ErrorIs(t, repo.TouchLastSignIn(ctx, "nobody", at), ErrProfileNotFound)
}
