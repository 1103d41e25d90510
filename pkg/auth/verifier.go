package auth

import (
	"context"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/supabase-community/gotrue-go"

	pkgerrors "memory-backend/pkg/errors"
)

// TokenVerifier resolves a bearer token to an authenticated user.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (*UserContext, error)
}

// GoTrueVerifier verifies tokens against the Supabase GoTrue endpoint
// using the project service key. Every verification is a remote call.
type GoTrueVerifier struct {
	client gotrue.Client
}

// NewGoTrueVerifier creates a verifier backed by the identity provider at
// projectURL (the Supabase project URL, without the /auth/v1 suffix).
func NewGoTrueVerifier(projectURL, serviceKey string) *GoTrueVerifier {
	client := gotrue.New("project", serviceKey).
		WithCustomGoTrueURL(strings.TrimSuffix(projectURL, "/") + "/auth/v1")
	return &GoTrueVerifier{client: client}
}

// Verify resolves the token to a user via the provider's user endpoint.
// Any provider rejection surfaces as an unauthorized error.
func (v *GoTrueVerifier) Verify(_ context.Context, token string) (*UserContext, error) {
	user, err := v.client.WithToken(token).GetUser()
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError("Unauthorized: Invalid token").WithCause(err)
	}
	return &UserContext{
		UserID: user.ID.String(),
		Email:  user.Email,
	}, nil
}

// HS256Verifier validates tokens locally with the project JWT secret,
// avoiding a network round trip per request. Supabase signs access tokens
// with HS256, so the subject claim carries the user id.
type HS256Verifier struct {
	parser *jwt.Parser
	secret []byte
}

// NewHS256Verifier creates a local verifier from the shared JWT secret.
func NewHS256Verifier(secret string) (*HS256Verifier, error) {
	if secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	return &HS256Verifier{
		parser: jwt.NewParser(jwt.WithValidMethods([]string{"HS256"})),
		secret: []byte(secret),
	}, nil
}

// Verify parses and validates the token signature and expiry.
func (v *HS256Verifier) Verify(_ context.Context, token string) (*UserContext, error) {
	claims := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	})
	if err != nil {
		return nil, pkgerrors.NewUnauthorizedError("Unauthorized: Invalid token").WithCause(err)
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return nil, pkgerrors.NewUnauthorizedError("Unauthorized: Invalid token")
	}

	email, _ := claims["email"].(string)
	return &UserContext{UserID: subject, Email: email}, nil
}
