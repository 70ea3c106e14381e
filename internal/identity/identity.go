package identity

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnauthenticated indicates the presented credential resolves to no owner.
var ErrUnauthenticated = errors.New("unauthenticated")

// Authenticator resolves a bearer credential to the owner it belongs to.
// Authentication itself lives in an external service; this boundary only
// needs the resulting owner identity.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (string, error)
}

// Static resolves tokens from a fixed map. Useful for tests and closed
// deployments.
type Static map[string]string

// Authenticate looks the token up in the map.
func (s Static) Authenticate(_ context.Context, token string) (string, error) {
	ownerID, ok := s[token]
	if !ok {
		return "", ErrUnauthenticated
	}
	return ownerID, nil
}

// Passthrough treats the bearer token as the owner id itself. It performs no
// verification beyond UUID syntax and exists for development environments
// where the upstream gateway has already authenticated the caller.
type Passthrough struct{}

// Authenticate validates the token as a UUID and returns it unchanged.
func (Passthrough) Authenticate(_ context.Context, token string) (string, error) {
	if _, err := uuid.Parse(token); err != nil {
		return "", ErrUnauthenticated
	}
	return token, nil
}
