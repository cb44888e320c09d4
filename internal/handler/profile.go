package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/uxlens/uxlens/internal/ctxkeys"
	"github.com/uxlens/uxlens/internal/model"
	"github.com/uxlens/uxlens/internal/service"
	"github.com/uxlens/uxlens/internal/ui"
)

const maxAvatarUpload = 6 << 20

var themes = map[string]bool{"light": true, "dark": true}

type ProfileHandler struct {
	profileService *service.ProfileService
	fileService    *service.FileService
}

func NewProfileHandler(profileService *service.ProfileService, fileService *service.FileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
		fileService:    fileService,
	}
}

// currentProfile prefers the profile the auth middleware loaded.
func (h *ProfileHandler) currentProfile(r *http.Request) (*model.Profile, error) {
	if p := ctxkeys.Profile(r.Context()); p != nil {
		return p, nil
	}
	sess := ctxkeys.Session(r.Context())
	return h.profileService.ByID(r.Context(), sess.UserID)
}

func (h *ProfileHandler) ProfilePage(w http.ResponseWriter, r *http.Request) {
	profile, err := h.currentProfile(r)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	data := h.pageData(r, profile)
	switch {
	case r.URL.Query().Has("saved"):
		data.Success = "Profile saved."
	case r.URL.Query().Has("avatar"):
		data.Success = "Avatar updated."
	}
	ui.Render(w, r, ui.ProfilePage(data))
}

func (h *ProfileHandler) pageData(r *http.Request, profile *model.Profile) ui.ProfilePageData {
	data := ui.ProfilePageData{
		Profile:       profile,
		AvatarEnabled: h.fileService.Enabled(),
	}
	if sess := ctxkeys.Session(r.Context()); sess != nil {
		data.Email = sess.Email
	}
	return data
}

// UpdateForm handles the profile page form and redirects back on success.
func (h *ProfileHandler) UpdateForm(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	name := r.FormValue("display_name")
	bio := r.FormValue("bio")
	upd := model.ProfileUpdate{
		DisplayName: &name,
		Bio:         &bio,
	}
	if theme := r.FormValue("theme"); themes[theme] {
		upd.Preferences = map[string]any{"theme": theme}
	}

	_, err := h.profileService.Update(r.Context(), sess.UserID, upd)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to update profile", "user_id", sess.UserID, "error", err)
		}

		profile, loadErr := h.currentProfile(r)
		if loadErr != nil {
			http.Error(w, "internal server error", http.StatusInternalServerError)
			return
		}
		// Show what was submitted, not what is stored
		shown := *profile
		shown.DisplayName = name
		shown.Bio = bio

		data := h.pageData(r, &shown)
		data.Error = clientMessage(err, "Could not save your profile. Please try again.")
		ui.RenderStatus(w, r, status, ui.ProfilePage(data))
		return
	}

	http.Redirect(w, r, "/app/profile?saved=1", http.StatusSeeOther)
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	profile, err := h.currentProfile(r)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		writeError(w, http.StatusInternalServerError, "could not load profile")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Patch applies a partial JSON update; absent fields are left alone.
func (h *ProfileHandler) Patch(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	var upd model.ProfileUpdate
	err := decodeJSON(w, r, &upd, maxJSONBody)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	profile, err := h.profileService.Update(r.Context(), sess.UserID, upd)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("failed to update profile", "user_id", sess.UserID, "error", err)
		}
		writeError(w, status, clientMessage(err, "could not update profile"))
		return
	}

	writeJSON(w, http.StatusOK, profile)
}

// UploadAvatar stores a new avatar and removes the previous one when it was ours.
func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	profile, err := h.currentProfile(r)
	if err != nil {
		slog.Error("failed to load profile", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	renderError := func(status int, msg string) {
		data := h.pageData(r, profile)
		data.Error = msg
		ui.RenderStatus(w, r, status, ui.ProfilePage(data))
	}

	if !h.fileService.Enabled() {
		renderError(http.StatusServiceUnavailable, "Avatar uploads are not available right now.")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarUpload)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		renderError(http.StatusBadRequest, "Please choose an image up to 5 MB.")
		return
	}
	defer file.Close()

	avatarURL, err := h.fileService.UploadAvatar(r.Context(), sess.UserID, file, header)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			slog.Error("avatar upload failed", "user_id", sess.UserID, "error", err)
		}
		renderError(status, clientMessage(err, "Could not upload your avatar. Please try again."))
		return
	}

	previous := profile.AvatarURL
	_, err = h.profileService.Update(r.Context(), sess.UserID, model.ProfileUpdate{AvatarURL: &avatarURL})
	if err != nil {
		slog.Error("failed to save avatar url", "user_id", sess.UserID, "error", err)
		h.fileService.DeleteAvatar(r.Context(), sess.UserID, avatarURL)
		renderError(http.StatusInternalServerError, "Could not save your avatar. Please try again.")
		return
	}
	h.fileService.DeleteAvatar(r.Context(), sess.UserID, previous)

	http.Redirect(w, r, "/app/profile?avatar=1", http.StatusSeeOther)
}

// Media redirects /media/avatars/... to a short-lived object URL.
func (h *ProfileHandler) Media(w http.ResponseWriter, r *http.Request) {
	target, err := h.fileService.PresignedURL(r.Context(), r.PathValue("path"))
	if err != nil {
		if !errors.Is(err, service.ErrPageNotFound) && !errors.Is(err, service.ErrStorageDisabled) {
			slog.Error("failed to presign media url", "path", r.PathValue("path"), "error", err)
		}
		ui.RenderStatus(w, r, http.StatusNotFound, ui.NotFoundPage())
		return
	}

	w.Header().Set("Cache-Control", "private, max-age=300")
	http.Redirect(w, r, target, http.StatusFound)
}
