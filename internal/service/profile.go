package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/repository"
	"github.com/uxlens/uxlens/internal/validation"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
	sanitizer   *bluemonday.Policy
}

func NewProfileService(profileRepo repository.ProfileRepository) *ProfileService {
	return &ProfileService{
		profileRepo: profileRepo,
		sanitizer:   bluemonday.StrictPolicy(),
	}
}

func (s *ProfileService) ByID(ctx context.Context, id string) (*model.Profile, error) {
	return s.profileRepo.ByID(ctx, id)
}

// creationStrategy is one way of getting the profile row written.
type creationStrategy struct {
	name string
	run  func(ctx context.Context, p *model.Profile) error
}

// EnsureProfile returns the user's profile, creating it on first sign-in.
// Creation strategies run in order until one succeeds; the row is then
// re-read so a concurrent creator's row wins. The bool reports whether this
// call created the row.
func (s *ProfileService) EnsureProfile(ctx context.Context, user *model.IdentityUser) (*model.Profile, bool, error) {
	if user == nil || user.ID == "" {
		return nil, false, fmt.Errorf("%w: missing user id", ErrInvalidRequest)
	}

	profile, err := s.profileRepo.ByID(ctx, user.ID)
	if err == nil {
		return profile, false, nil
	}
	if !errors.Is(err, repository.ErrProfileNotFound) {
		return nil, false, fmt.Errorf("load profile: %w", err)
	}

	created := false
	strategies := []creationStrategy{
		{name: "insert", run: func(ctx context.Context, p *model.Profile) error {
			err := s.profileRepo.Create(ctx, p)
			if err == nil {
				created = true
			}
			return err
		}},
		{name: "upsert", run: func(ctx context.Context, p *model.Profile) error {
			wrote, err := s.profileRepo.CreateIfMissing(ctx, p)
			created = wrote
			return err
		}},
	}

	var lastErr error
	for _, strategy := range strategies {
		lastErr = strategy.run(ctx, seedProfile(user))
		if lastErr == nil {
			break
		}
		slog.Warn("profile creation strategy failed", "strategy", strategy.name, "user_id", user.ID, "error", lastErr)
	}

	profile, err = s.profileRepo.ByID(ctx, user.ID)
	if err != nil {
		if lastErr != nil {
			return nil, false, fmt.Errorf("create profile: %w", errors.Join(lastErr, err))
		}
		return nil, false, fmt.Errorf("reload profile: %w", err)
	}

	if created {
		slog.Info("profile created", "user_id", user.ID)
	}
	return profile, created, nil
}

func seedProfile(user *model.IdentityUser) *model.Profile {
	name := strings.TrimSpace(user.FullName)
	if name == "" {
		name, _, _ = strings.Cut(user.Email, "@")
	}
	if utf8.RuneCountInString(name) > 100 {
		name = string([]rune(name)[:100])
	}

	return &model.Profile{
		ID:          user.ID,
		DisplayName: name,
		AvatarURL:   user.AvatarURL,
		Preferences: model.Preferences{},
		LastSignIn:  user.LastSignInAt,
	}
}

func (s *ProfileService) RecordSignIn(ctx context.Context, id string, at time.Time) error {
	return s.profileRepo.TouchLastSignIn(ctx, id, at)
}

// Update applies a partial update. Preference keys are merged one by one;
// a null value removes the key.
func (s *ProfileService) Update(ctx context.Context, id string, upd model.ProfileUpdate) (*model.Profile, error) {
	profile, err := s.profileRepo.ByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if upd.DisplayName != nil {
		name := strings.TrimSpace(*upd.DisplayName)
		if err := validation.ValidateDisplayName(name); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
		}
		profile.DisplayName = name
	}

	if upd.Bio != nil {
		// Markup is stripped; the policy's entity escaping is undone since
		// templates escape on output.
		bio := strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(*upd.Bio)))
		if err := validation.ValidateBio(bio); err != nil {
			return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
		}
		profile.Bio = bio
	}

	if upd.AvatarURL != nil {
		avatar := strings.TrimSpace(*upd.AvatarURL)
		if avatar != "" && !strings.HasPrefix(avatar, "https://") && !strings.HasPrefix(avatar, "http://") {
			return nil, fmt.Errorf("%w: avatar_url must be an http(s) URL", ErrInvalidRequest)
		}
		profile.AvatarURL = avatar
	}

	if upd.Preferences != nil {
		if profile.Preferences == nil {
			profile.Preferences = model.Preferences{}
		}
		for k, v := range upd.Preferences {
			if v == nil {
				delete(profile.Preferences, k)
				continue
			}
			profile.Preferences[k] = v
		}
	}

	err = s.profileRepo.Update(ctx, profile)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}

	return profile, nil
}
