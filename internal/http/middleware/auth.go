package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/tendant/scanvault/internal/httputil"
	"github.com/tendant/scanvault/pkg/auth"
	"github.com/tendant/scanvault/pkg/domain"
)

type contextKey string

// UserIDKey is the context key for the authenticated user ID.
const UserIDKey contextKey = "user_id"

// Auth creates middleware that requires a valid Bearer identity token.
func Auth(tokens *auth.TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, ok := httputil.BearerToken(r)
			if !ok {
				httputil.Error(w, http.StatusUnauthorized, domain.ErrUnauthenticated.Error())
				return
			}

			claims, err := tokens.Verify(tokenString)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, httputil.MessageFor(err))
				return
			}

			userID, err := auth.SubjectID(claims)
			if err != nil {
				httputil.Error(w, http.StatusUnauthorized, httputil.MessageFor(err))
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID extracts the user ID from the request context.
func GetUserID(ctx context.Context) (uuid.UUID, bool) {
	userID, ok := ctx.Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
