// Package auth carries the authenticated-user context and the token
// verifiers used by the HTTP auth middleware.
package auth

import (
	"context"
	"errors"
)

// UserContext holds the identity resolved by the auth gate.
type UserContext struct {
	UserID string
	Email  string
}

type contextKey string

const userContextKey contextKey = "user_context"

// ErrNoUserInContext is returned when the request was not authenticated.
var ErrNoUserInContext = errors.New("no user in context")

// SetUserInContext attaches the resolved user to the request context.
func SetUserInContext(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// GetUserFromContext extracts the authenticated user from the context.
func GetUserFromContext(ctx context.Context) (*UserContext, error) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	if !ok || user == nil {
		return nil, ErrNoUserInContext
	}
	return user, nil
}

// UserIDFromContext returns the authenticated user id, or "" when the
// request runs in the unauthenticated deployment.
func UserIDFromContext(ctx context.Context) string {
	user, err := GetUserFromContext(ctx)
	if err != nil {
		return ""
	}
	return user.UserID
}
