package middleware

import (
	"errors"
	"net/http"
	"strings"

	"carddeps/pkg/auth"
	"carddeps/pkg/common"
	apperrors "carddeps/pkg/errors"

	"go.uber.org/zap"
)

// Authenticate validates bearer tokens and stores the viewer id in the
// request context. A nil validator lets every request through anonymously.
func Authenticate(validator *auth.JWTValidator, errorHandler *apperrors.ErrorHandler, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if validator == nil {
			return next
		}
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				respondUnauthorized(errorHandler, w, r, "Missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("Invalid token",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				switch {
				case errors.Is(err, auth.ErrExpiredToken):
					respondUnauthorized(errorHandler, w, r, "Token has expired")
				case errors.Is(err, auth.ErrInvalidSignature):
					respondUnauthorized(errorHandler, w, r, "Invalid token signature")
				default:
					respondUnauthorized(errorHandler, w, r, "Invalid token")
				}
				return
			}

			ctx := common.WithUserID(r.Context(), claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken reads the bearer token from the Authorization header
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return authHeader
}

// respondUnauthorized sends an unauthorized response
func respondUnauthorized(errorHandler *apperrors.ErrorHandler, w http.ResponseWriter, r *http.Request, message string) {
	errorHandler.Handle(w, r, apperrors.NewUnauthorizedError(message))
}
