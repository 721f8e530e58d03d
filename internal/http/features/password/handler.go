package password

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/domain"
)

// resetSentMessage is returned whether or not the address is registered.
const resetSentMessage = "If the email is registered, a temporary password has been sent"

// ResetObserver is told the outcome of every forgot-password request.
type ResetObserver func(result string)

// Handler handles local credential endpoints.
type Handler struct {
	logger          *slog.Logger
	passwordService *auth.PasswordService
	tokens          *auth.TokenService
	observeReset    ResetObserver
}

// NewHandler creates a new password handler. observeReset may be nil.
func NewHandler(logger *slog.Logger, passwordService *auth.PasswordService, tokens *auth.TokenService, observeReset ResetObserver) *Handler {
	if observeReset == nil {
		observeReset = func(string) {}
	}
	return &Handler{
		logger:          logger,
		passwordService: passwordService,
		tokens:          tokens,
		observeReset:    observeReset,
	}
}

// RegisterRequest represents a registration request.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	MobileNumber string `json:"mobile_number,omitempty"`
}

// LoginRequest represents a login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// ForgotPasswordRequest represents a reset code request.
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// ResetPasswordRequest represents a password reset with a mailed code.
type ResetPasswordRequest struct {
	OTP             string `json:"otp"`
	NewPassword     string `json:"new_password"`
	ConfirmPassword string `json:"confirm_password"`
}

// TokenResponse is returned by register and login.
type TokenResponse struct {
	AccessToken string             `json:"access_token"`
	User        domain.UserSummary `json:"user"`
}

// Register handles user registration.
// POST /auth/register
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if req.Email == "" || req.Password == "" {
		httputil.Error(w, http.StatusBadRequest, "email and password are required")
		return
	}

	user, err := h.passwordService.Register(r.Context(), auth.RegisterInput{
		Email:        req.Email,
		Password:     req.Password,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		MobileNumber: req.MobileNumber,
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID)
	h.respondWithToken(w, user)
}

// Login handles email/password login.
// POST /auth/login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	user, err := h.passwordService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	h.respondWithToken(w, user)
}

// ForgotPassword mails a reset code. The email comes from the query string
// or the JSON body. Unknown addresses get the same answer as known ones.
// POST /auth/forgot-password
func (h *Handler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" && r.ContentLength != 0 {
		var req ForgotPasswordRequest
		if err := httputil.DecodeJSON(r, &req); err != nil {
			httputil.WriteError(w, h.logger, err)
			return
		}
		email = req.Email
	}
	if strings.TrimSpace(email) == "" {
		httputil.Error(w, http.StatusBadRequest, "email is required")
		return
	}

	err := h.passwordService.RequestPasswordReset(r.Context(), email)
	switch {
	case errors.Is(err, domain.ErrUserNotFound):
		h.observeReset("unknown_email")
	case err != nil:
		h.observeReset("failed")
		httputil.WriteError(w, h.logger, err)
		return
	default:
		h.observeReset("sent")
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": resetSentMessage})
}

// ResetPassword sets a new password using a mailed code.
// POST /auth/reset-password
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	if req.OTP == "" || req.NewPassword == "" {
		httputil.Error(w, http.StatusBadRequest, "otp and new_password are required")
		return
	}

	if err := h.passwordService.ResetPassword(r.Context(), req.OTP, req.NewPassword, req.ConfirmPassword); err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Password reset successfully"})
}

func (h *Handler) respondWithToken(w http.ResponseWriter, user *domain.User) {
	token, err := h.tokens.IssueForUser(user)
	if err != nil {
		h.logger.Error("failed to issue token", "error", err, "user_id", user.ID)
		httputil.Error(w, http.StatusInternalServerError, "failed to issue token")
		return
	}
	httputil.JSON(w, http.StatusOK, TokenResponse{AccessToken: token, User: user.Summary()})
}
