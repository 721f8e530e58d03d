package oauth

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/domain"
	"github.com/tendant/scanvault/pkg/session"
)

// Handler handles the provider login endpoints.
type Handler struct {
	flow   *auth.OAuthFlow
	logger *slog.Logger
}

// NewHandler creates a new OAuth handler.
func NewHandler(flow *auth.OAuthFlow, logger *slog.Logger) *Handler {
	return &Handler{flow: flow, logger: logger}
}

// Start redirects to the provider's consent page.
// GET /auth/{provider}
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	url, err := h.flow.Start(sess, chi.URLParam(r, "provider"))
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	http.Redirect(w, r, url, http.StatusFound)
}

// Callback completes the login and returns an identity token.
// GET /auth/{provider}/callback
func (h *Handler) Callback(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())
	q := r.URL.Query()

	res, err := h.flow.Callback(r.Context(), sess, chi.URLParam(r, "provider"), auth.CallbackParams{
		Code:             q.Get("code"),
		State:            q.Get("state"),
		Error:            q.Get("error"),
		ErrorDescription: q.Get("error_description"),
	})
	if err != nil {
		httputil.WriteError(w, h.logger, err)
		return
	}

	httputil.JSON(w, http.StatusOK, res)
}

// Profile reports the user signed in through the session, if any.
// GET /profile
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	sess, _ := session.FromContext(r.Context())

	user, ok := auth.SessionUser(sess)
	if !ok {
		httputil.JSON(w, http.StatusOK, map[string]any{
			"message":       "Not logged in",
			"authenticated": false,
		})
		return
	}

	httputil.JSON(w, http.StatusOK, map[string]any{
		"message":       "You are logged in!",
		"user":          user,
		"authenticated": true,
	})
}

// Logout clears the session user and any pending provider states.
// GET /logout
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess, ok := session.FromContext(r.Context())
	if !ok {
		httputil.WriteError(w, h.logger, domain.ErrSessionUnavailable)
		return
	}

	h.flow.Logout(sess)
	httputil.JSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}
