package auth

import "context"

// Auth exchanges the shared secret for a bearer token. Implementations keep
// no token state and never retry.
type Auth interface {
	GetToken(ctx context.Context, password string) (string, bool)
}
