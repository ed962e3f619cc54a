package handler

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"movietrack/internal/httputil"
	"movietrack/internal/model"
	"movietrack/internal/transport/http/middleware"
)

// UserHandler serves the authenticated user's own profile.
type UserHandler struct {
	lists   ListManager
	avatars AvatarUploader // nil when R2 is not configured
	log     *zap.Logger
}

func NewUserHandler(lists ListManager, avatars AvatarUploader, log *zap.Logger) *UserHandler {
	return &UserHandler{
		lists:   lists,
		avatars: avatars,
		log:     log.Named("users"),
	}
}

// Me returns the current user with all three lists.
// GET /me
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	user, err := h.lists.GetProfile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to get user")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// UploadAvatar accepts a multipart "avatar" file.
// POST /me/avatar
func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		httputil.WriteUnauthorized(w, middleware.MsgTokenRequired)
		return
	}

	maxFormSize := int64(model.MaxAvatarSizeBytes) + 1024*1024 // allow form overhead
	r.Body = http.MaxBytesReader(w, r.Body, maxFormSize)
	if err := r.ParseMultipartForm(maxFormSize); err != nil {
		if errors.Is(err, http.ErrNotMultipart) {
			httputil.WriteBadRequest(w, "Content-Type must be multipart/form-data")
			return
		}
		if strings.Contains(err.Error(), "request body too large") {
			httputil.WriteBadRequest(w, "Avatar exceeds 5MB limit")
			return
		}
		httputil.WriteBadRequest(w, "Invalid form data")
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		httputil.WriteBadRequest(w, "avatar file is required")
		return
	}
	defer file.Close()

	upload, err := h.avatars.UploadAvatar(r.Context(), userID, file, header)
	if err != nil {
		writeServiceError(w, h.log, err, "Failed to upload avatar")
		return
	}

	httputil.WriteData(w, upload)
}
