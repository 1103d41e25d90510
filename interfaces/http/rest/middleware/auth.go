package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"memory-backend/pkg/auth"
	"memory-backend/pkg/common"
	pkgerrors "memory-backend/pkg/errors"
)

// Authenticate builds the auth gate: it extracts the bearer token, resolves
// it through the verifier, and attaches the user to the request context.
// Missing or malformed credentials and provider rejections yield 401;
// unexpected verifier faults yield 500.
func Authenticate(verifier auth.TokenVerifier, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := bearerToken(r)
			if !ok {
				common.RespondError(w, http.StatusUnauthorized, "Unauthorized: No token provided or invalid format")
				return
			}

			user, err := verifier.Verify(r.Context(), token)
			if err != nil {
				if pkgerrors.IsUnauthorized(err) {
					logger.Warn("token verification rejected",
						zap.String("path", r.URL.Path),
						zap.Error(err),
					)
					common.RespondError(w, http.StatusUnauthorized, "Unauthorized: Invalid token")
					return
				}
				logger.Error("token verification failed", zap.Error(err))
				common.RespondError(w, http.StatusInternalServerError, "Internal server error during authentication")
				return
			}

			ctx := auth.SetUserInContext(r.Context(), user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. Anything else is malformed.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
