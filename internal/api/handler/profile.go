package handler

import (
	"net/http"

	"github.com/Rrens/lingocode/internal/api/middleware"
	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/service"
)

// ProfileHandler handles profile endpoints
type ProfileHandler struct {
	profileService *service.ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{profileService: profileService}
}

// Get returns the caller's profile
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	profile, err := h.profileService.Get(r.Context(), userID)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, map[string]any{"profile": profile})
}

// Update applies a partial profile update
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	var input domain.ProfileUpdate
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	profile, err := h.profileService.Update(r.Context(), userID, input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, map[string]any{
		"message": "profile updated",
		"profile": profile,
	})
}
