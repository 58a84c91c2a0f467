package revocationrepo

import (
	"context"
	"time"
)

// Store persists the negative list of session tokens invalidated before
// their natural expiry. Only revocations are stored; issued tokens are not.
type Store interface {
	// Add records a token as revoked. Adding the same token twice is a no-op;
	// the first RevokedAt wins.
	Add(ctx context.Context, token string, revokedAt time.Time) error

	// Contains reports whether the token has been revoked. Revocation is
	// monotone: once true, it stays true.
	Contains(ctx context.Context, token string) (bool, error)
}
