package middleware

import (
	"context"
	"net/http"
	"strings"

	"review-catalog/internal/data/entity"
	"review-catalog/pkg/security"
	"review-catalog/pkg/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TokenVerifier interface {
	Verify(token string) (*security.Claims, error)
}

// UserFinder is the slice of the user repository the middleware needs.
type UserFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
}

// Authenticate resolves a Bearer token into the request's user. Requests
// without an Authorization header pass through anonymously; a header that
// does not verify is rejected with 401.
func Authenticate(tokens TokenVerifier, users UserFinder, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				next.ServeHTTP(w, r)
				return
			}

			scheme, token, ok := strings.Cut(authHeader, " ")
			if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
				utils.ResponseUnauthorized(w, "Invalid token format. Use: Bearer <token>")
				return
			}

			claims, err := tokens.Verify(strings.TrimSpace(token))
			if err != nil {
				logger.Warn("Rejected access token", zap.Error(err), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Invalid or expired token")
				return
			}

			userID, _ := claims.UserID()

			// Role may have changed since the token was minted
			user, err := users.FindByID(r.Context(), userID)
			if err != nil {
				logger.Error("Failed to load token user",
					zap.Error(err), zap.String("user_id", userID.String()))
				utils.ResponseInternalError(w, "Internal server error")
				return
			}
			if user == nil {
				logger.Warn("Token for deleted user", zap.String("user_id", userID.String()))
				utils.ResponseUnauthorized(w, "User no longer exists")
				return
			}

			ctx := utils.SetUserContext(r.Context(), user.ID, string(user.Role), user.IsSuperuser)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth rejects anonymous requests. Mount it after Authenticate.
func RequireAuth(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := utils.GetUserIDFromContext(r.Context()); !ok {
				logger.Debug("Anonymous request to protected route",
					zap.String("method", r.Method), zap.String("path", r.URL.Path))
				utils.ResponseUnauthorized(w, "Authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
