package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/uxlens/uxlens/internal/model"
)

type ProfileRepository interface {
	ByID(ctx context.Context, id string) (*model.Profile, error)
	Create(ctx context.Context, profile *model.Profile) error
	CreateIfMissing(ctx context.Context, profile *model.Profile) (bool, error)
	Update(ctx context.Context, profile *model.Profile) error
	TouchLastSignIn(ctx context.Context, id string, at time.Time) error
}

type profileRepository struct {
	db *sqlx.DB
}

func NewProfileRepository(db *sqlx.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) ByID(ctx context.Context, id string) (*model.Profile, error) {
	var profile model.Profile
	err := r.db.GetContext(ctx, &profile, `
		SELECT id, display_name, bio, avatar_url, preferences, created_at, updated_at, last_sign_in
		FROM profiles WHERE id = $1
	`, id)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, err
	}

	return &profile, nil
}

// Create inserts a new row and fails on a duplicate id.
func (r *profileRepository) Create(ctx context.Context, profile *model.Profile) error {
	stampNew(profile)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, bio, avatar_url, preferences, created_at, updated_at, last_sign_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, profile.ID, profile.DisplayName, profile.Bio, profile.AvatarURL, profile.Preferences,
		profile.CreatedAt, profile.UpdatedAt, profile.LastSignIn)

	return err
}

// CreateIfMissing inserts the row unless one with the same id exists.
// The bool reports whether a row was written.
func (r *profileRepository) CreateIfMissing(ctx context.Context, profile *model.Profile) (bool, error) {
	stampNew(profile)

	result, err := r.db.ExecContext(ctx, `
		INSERT INTO profiles (id, display_name, bio, avatar_url, preferences, created_at, updated_at, last_sign_in)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`, profile.ID, profile.DisplayName, profile.Bio, profile.AvatarURL, profile.Preferences,
		profile.CreatedAt, profile.UpdatedAt, profile.LastSignIn)
	if err != nil {
		return false, err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *profileRepository) Update(ctx context.Context, profile *model.Profile) error {
	profile.UpdatedAt = time.Now().UTC()

	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles
		SET display_name = $1, bio = $2, avatar_url = $3, preferences = $4, updated_at = $5
		WHERE id = $6
	`, profile.DisplayName, profile.Bio, profile.AvatarURL, profile.Preferences, profile.UpdatedAt, profile.ID)

	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("update profile %s: %w", profile.ID, ErrProfileNotFound)
	}

	return nil
}

func (r *profileRepository) TouchLastSignIn(ctx context.Context, id string, at time.Time) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE profiles SET last_sign_in = $1 WHERE id = $2
	`, at.UTC(), id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("touch profile %s: %w", id, ErrProfileNotFound)
	}

	return nil
}

func stampNew(profile *model.Profile) {
	now := time.Now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = now
	}
	if profile.Preferences == nil {
		profile.Preferences = model.Preferences{}
	}
}
