// Package httputil holds JSON response, error mapping and cookie helpers
// shared by the HTTP handlers.
package httputil

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/tendant/scanvault/pkg/domain"
)

// ErrBodyTooLarge is returned by DecodeJSON when the request body exceeds
// the limit set by the request size middleware.
var ErrBodyTooLarge = errors.New("request body too large")

// JSON writes v as a JSON response with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// Error writes {"error": message} with the given status.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// WriteError maps err to a status and client message. Server errors are
// logged and answered with a generic message.
func WriteError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError && logger != nil {
		logger.Error("request failed", "error", err)
	}
	Error(w, status, MessageFor(err))
}

// StatusFor returns the HTTP status for err.
func StatusFor(err error) int {
	var (
		validation *domain.ValidationError
		denied     *domain.ProviderDeniedError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &denied):
		return http.StatusBadRequest
	case errors.Is(err, ErrBodyTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, domain.ErrUnauthenticated),
		errors.Is(err, domain.ErrTokenInvalid),
		errors.Is(err, domain.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrDocumentNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrUnknownProvider):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserAlreadyExists),
		errors.Is(err, domain.ErrInvalidCredentials),
		errors.Is(err, domain.ErrInvalidOTP),
		errors.Is(err, domain.ErrPasswordMismatch),
		errors.Is(err, domain.ErrStateMismatch),
		errors.Is(err, domain.ErrMissingCallbackParams),
		errors.Is(err, domain.ErrTokenExchangeFailed),
		errors.Is(err, domain.ErrProfileFetchFailed),
		errors.Is(err, domain.ErrMissingEmail),
		errors.Is(err, domain.ErrSessionUnavailable),
		errors.Is(err, domain.ErrInvalidEmail),
		errors.Is(err, domain.ErrWeakPassword),
		errors.Is(err, domain.ErrNoUpdateFields),
		errors.Is(err, domain.ErrNoChanges),
		errors.Is(err, domain.ErrInvalidScanType),
		errors.Is(err, domain.ErrInvalidID),
		errors.Is(err, domain.ErrInvalidField),
		errors.Is(err, domain.ErrInvalidBody):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// clientErrors are reported to the client with their own text even when
// wrapped.
var clientErrors = []error{
	ErrBodyTooLarge,
	domain.ErrUnauthenticated,
	domain.ErrTokenInvalid,
	domain.ErrTokenExpired,
	domain.ErrDocumentNotFound,
	domain.ErrUserNotFound,
	domain.ErrUnknownProvider,
	domain.ErrUserAlreadyExists,
	domain.ErrInvalidCredentials,
	domain.ErrInvalidOTP,
	domain.ErrPasswordMismatch,
	domain.ErrStateMismatch,
	domain.ErrMissingCallbackParams,
	domain.ErrTokenExchangeFailed,
	domain.ErrProfileFetchFailed,
	domain.ErrMissingEmail,
	domain.ErrSessionUnavailable,
	domain.ErrInvalidEmail,
	domain.ErrWeakPassword,
	domain.ErrNoUpdateFields,
	domain.ErrNoChanges,
	domain.ErrInvalidScanType,
	domain.ErrInvalidID,
	domain.ErrInvalidField,
	domain.ErrInvalidBody,
}

// MessageFor returns the client-facing message for err. Internal details
// never leak.
func MessageFor(err error) string {
	var (
		validation *domain.ValidationError
		denied     *domain.ProviderDeniedError
	)
	if errors.As(err, &validation) {
		return validation.Message
	}
	if errors.As(err, &denied) {
		return denied.Error()
	}
	for _, known := range clientErrors {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	return "internal server error"
}

// DecodeJSON decodes the request body into v. It fails with ErrBodyTooLarge
// or domain.ErrInvalidBody.
func DecodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return ErrBodyTooLarge
		}
		return domain.ErrInvalidBody
	}
	return nil
}
