package me

import (
	"log/slog"
	"net/http"

	"github.com/tendant/scanvault/internal/http/middleware"
	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/domain"
)

// Handler handles the signed-in user's profile.
type Handler struct {
	logger          *slog.Logger
	passwordService *auth.PasswordService
}

// NewHandler creates a new profile handler.
func NewHandler(logger *slog.Logger, passwordService *auth.PasswordService) *Handler {
	return &Handler{
		logger:          logger,
		passwordService: passwordService,
	}
}

// UpdateProfileRequest is a partial profile update. Omitted fields are kept.
type UpdateProfileRequest struct {
	Email        *string `json:"email,omitempty"`
	FirstName    *string `json:"first_name,omitempty"`
	LastName     *string `json:"last_name,omitempty"`
	MobileNumber *string `json:"mobile_number,omitempty"`
}

// ProfileResponse is returned after an update.
type ProfileResponse struct {
	Message string             `json:"message"`
	User    domain.UserSummary `json:"user"`
}

// GetMe returns the current user's profile.
// GET /auth/profiles
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	user, err := h.passwordService.GetUserByID(r.Context(), userID)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, user.Summary())
}

// UpdateMe updates the current user's profile.
// PUT /auth/profiles
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrUnauthenticated)
		return
	}

	var req UpdateProfileRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	user, err := h.passwordService.UpdateProfile(r.Context(), userID, auth.ProfileUpdate{
		Email:        req.Email,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, ProfileResponse{
		Message: "User profile details Updated Successfully",
		User:    user.Summary(),
	})
}
