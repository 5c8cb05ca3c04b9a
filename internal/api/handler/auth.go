package handler

import (
	"errors"
	"net/http"

	"github.com/Rrens/lingocode/internal/api/middleware"
	"github.com/Rrens/lingocode/internal/api/response"
	"github.com/Rrens/lingocode/internal/domain"
	"github.com/Rrens/lingocode/internal/service"
)

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
	}
}

// Signup handles user registration
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var input domain.SignupRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	resp, err := h.authService.Signup(r.Context(), input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.Created(w, resp)
}

// Login handles user login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input domain.LoginRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	resp, err := h.authService.Login(r.Context(), input)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, resp)
}

// Refresh exchanges a refresh token for a new pair
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	tokens, err := h.authService.Refresh(r.Context(), input.RefreshToken)
	if err != nil {
		response.Fail(w, r, err)
		return
	}

	response.OK(w, tokens)
}

// Logout revokes a refresh token. Unknown or invalid tokens are treated as
// already revoked.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var input domain.RefreshRequest
	if err := decodeJSON(w, r, &input); err != nil {
		response.Fail(w, r, err)
		return
	}

	if err := h.authService.Logout(r.Context(), input.RefreshToken); err != nil && !errors.Is(err, domain.ErrInvalidRefreshToken) {
		response.Fail(w, r, err)
		return
	}

	response.NoContent(w)
}

// Me returns the current authenticated user
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	user, err := h.authService.GetUser(r.Context(), userID)
	if err != nil {
		failSession(w, r, err)
		return
	}

	response.OK(w, map[string]any{"user": user})
}

// DeleteMe removes the current account and everything it owns
func (h *AuthHandler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, domain.ErrTokenMissing)
		return
	}

	if err := h.authService.DeleteUser(r.Context(), userID); err != nil {
		failSession(w, r, err)
		return
	}
	h.profileService.Forget(r.Context(), userID)

	response.NoContent(w)
}

// failSession reports errors from looking up the token's own user. A valid
// token whose account is gone is answered as TOKEN_INVALID.
func failSession(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, domain.ErrUserNotFound) {
		response.Unauthorized(w, domain.ErrTokenInvalid)
		return
	}
	response.Fail(w, r, err)
}
