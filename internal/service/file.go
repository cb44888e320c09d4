package service

import (
	"context"
	"fmt"
	"log/slog"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/uxlens/uxlens/internal/storage"
	"github.com/uxlens/uxlens/internal/validation"
)

const (
	avatarPrefix = "avatars/"
	mediaPath    = "/media/"
)

// FileService stores avatar images and resolves the app's /media URLs to
// presigned object URLs.
type FileService struct {
	storage storage.Storage
	siteURL string
}

// NewFileService accepts a nil storage; every operation then returns ErrStorageDisabled.
func NewFileService(storage storage.Storage, siteURL string) *FileService {
	return &FileService{
		storage: storage,
		siteURL: strings.TrimSuffix(siteURL, "/"),
	}
}

func (s *FileService) Enabled() bool {
	return s.storage != nil
}

// UploadAvatar validates and stores an avatar image under
// avatars/{userID}/{uuid}{ext} and returns the public app URL for it.
func (s *FileService) UploadAvatar(ctx context.Context, userID string, file multipart.File, header *multipart.FileHeader) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	err := validation.ValidateFile(header, validation.ImageConstraints)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidRequest, err.Error())
	}

	contentType, err := validation.DetectContentType(header)
	if err != nil {
		return "", err
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	key := path.Join("avatars", userID, uuid.New().String()+ext)

	err = s.storage.Save(ctx, key, file, contentType)
	if err != nil {
		return "", fmt.Errorf("failed to save avatar: %w", err)
	}

	slog.Info("avatar uploaded", "user_id", userID, "key", key, "size", header.Size)
	return s.siteURL + mediaPath + key, nil
}

// DeleteAvatar removes a previously uploaded avatar. URLs that are not ours
// (provider avatars) are ignored. Best effort.
func (s *FileService) DeleteAvatar(ctx context.Context, userID, avatarURL string) {
	if s.storage == nil {
		return
	}

	key, ok := s.keyFromURL(avatarURL)
	if !ok || !strings.HasPrefix(key, avatarPrefix+userID+"/") {
		return
	}

	if err := s.storage.Delete(ctx, key); err != nil {
		slog.Warn("failed to delete old avatar", "user_id", userID, "key", key, "error", err)
	}
}

// PresignedURL returns a temporary URL for an object under the avatars prefix.
func (s *FileService) PresignedURL(ctx context.Context, key string) (string, error) {
	if s.storage == nil {
		return "", ErrStorageDisabled
	}

	key = strings.TrimPrefix(key, "/")
	clean := path.Clean(key)
	if clean != key || !strings.HasPrefix(clean, avatarPrefix) {
		return "", ErrPageNotFound
	}

	return s.storage.PresignedURL(ctx, clean)
}

func (s *FileService) keyFromURL(avatarURL string) (string, bool) {
	prefix := s.siteURL + mediaPath
	if !strings.HasPrefix(avatarURL, prefix) {
		return "", false
	}
	return strings.TrimPrefix(avatarURL, prefix), true
}
