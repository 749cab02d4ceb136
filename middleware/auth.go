package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"sitesafe/auth"
	"sitesafe/models"
)

type contextKey string

const UserContextKey contextKey = "user"

// UserGetter fetches the current presence document for a user id.
type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*models.UserPresence, error)
}

// AuthMiddleware validates JWT tokens and injects the caller's user
// document into the request context. The document is re-fetched on every
// request so role changes take effect without waiting for token expiry.
func AuthMiddleware(jwtManager *auth.JWTManager, users UserGetter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeError(w, "Authentication required", http.StatusUnauthorized)
				return
			}

			token, err := auth.ExtractToken(authHeader)
			if err != nil {
				writeError(w, "Invalid authorization header", http.StatusUnauthorized)
				return
			}

			claims, err := jwtManager.ValidateToken(token)
			if err != nil {
				writeError(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			user, err := users.GetUser(r.Context(), claims.UserID)
			if err != nil {
				writeError(w, "User not found", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext retrieves the authenticated user from the request
// context.
func GetUserFromContext(ctx context.Context) (*models.UserPresence, bool) {
	user, ok := ctx.Value(UserContextKey).(*models.UserPresence)
	return user, ok
}

// RequireAdmin rejects callers whose account does not carry the admin
// flag.
func RequireAdmin() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := GetUserFromContext(r.Context())
			if !ok {
				writeError(w, "User not found in context", http.StatusUnauthorized)
				return
			}

			if !user.IsAdmin {
				writeError(w, "Insufficient permissions", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"error": message,
	})
}
