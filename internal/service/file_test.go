package service

import (
	"bytes"
	"context"
	"io"
	"mime/multipart"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStorage struct {
	objects map[string][]byte
	types   map[string]string
	deleted []string
}

func newMemStorage() *memStorage {
	return &memStorage{objects: map[string][]byte{}, types: map[string]string{}}
}

func (m *memStorage) Save(_ context.Context, key string, body io.Reader, contentType string) error {
	b, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.objects[key] = b
	m.types[key] = contentType
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.objects, key)
	return nil
}

func (m *memStorage) PresignedURL(_ context.Context, key string) (string, error) {
	return "https://bucket.example/" + key + "?X-Amz-Signature=sig", nil
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func uploadHeader(t *testing.T, name string, content []byte) (multipart.File, *multipart.FileHeader) {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("avatar", name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&body, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })

	header := form.File["avatar"][0]
	f, err := header.Open()
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f, header
}

func TestUploadAvatar(t *testing.T) {
	store := newMemStorage()
	svc := NewFileService(store, "https://uxlens.example")

	f, h := uploadHeader(t, "Me.PNG", pngBytes)
	avatarURL, err := svc.UploadAvatar(context.Background(), "user-1", f, h)
	require.NoError(t, err)

	require.True(t, strings.HasPrefix(avatarURL, "https://uxlens.example/media/avatars/user-1/"))
	assert.True(t, strings.HasSuffix(avatarURL, ".png"))

	key := strings.TrimPrefix(avatarURL, "https://uxlens.example/media/")
	assert.Equal(t, pngBytes, store.objects[key])
	assert.Equal(t, "image/png", store.types[key])

	signed, err := svc.PresignedURL(context.Background(), key)
	require.NoError(t, err)
	assert.Contains(t, signed, key)

	svc.DeleteAvatar(context.Background(), "user-2", avatarURL)
	assert.Empty(t, store.deleted, "other users' avatars are left alone")
	svc.DeleteAvatar(context.Background(), "user-1", "https://lh3.googleusercontent.com/a/x")
	assert.Empty(t, store.deleted)
	svc.DeleteAvatar(context.Background(), "user-1", avatarURL)
	assert.Equal(t, []string{key}, store.deleted)
}

func TestUploadAvatarRejectsNonImages(t *testing.T) {
	svc := NewFileService(newMemStorage(), "https://uxlens.example")
	f, h := uploadHeader(t, "avatar.png", []byte("just text"))
	_, err := svc.UploadAvatar(context.Background(), "user-1", f, h)
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestPresignedURLRejectsOtherKeys(t *testing.T) {
	svc := NewFileService(newMemStorage(), "https://uxlens.example")
	for _, key := range []string{"private/secret.pdf", "avatars/../private/x", "avatars/./a.png"} {
		_, err := svc.PresignedURL(context.Background(), key)
		assert.ErrorIs(t, err, ErrPageNotFound, key)
	}
}

func TestFileServiceDisabled(t *testing.T) {
	svc := NewFileService(nil, "https://uxlens.example")
	assert.False(t, svc.Enabled())

	f, h := uploadHeader(t, "a.png", pngBytes)
	_, err := svc.UploadAvatar(context.Background(), "user-1", f, h)
	assert.ErrorIs(t, err, ErrStorageDisabled)

	_, err = svc.PresignedURL(context.Background(), "avatars/u/a.png")
	assert.ErrorIs(t, err, ErrStorageDisabled)
}
