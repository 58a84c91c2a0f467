package identityrepo

import (
	"context"
	"time"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

// Identity is the persistence shape used by the identity repository.
// Unlike domain.Identity it carries the credential hash; it is an internal
// record, not an HTTP DTO.
type Identity struct {
	ID   domain.IdentityID
	Role domain.Role

	Name  string
	Email string

	// CredentialHash is the bcrypt hash of the login secret. It is never
	// compared in plaintext and never returned past the application layer.
	CredentialHash string

	Blocked   bool
	Available bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository provides access to persisted identities.
//
// Result ordering expectations:
// - List methods return results ordered by Name ascending, then ID, to keep
//   behavior deterministic across adapters.
type Repository interface {
	Create(ctx context.Context, id Identity) error
	Update(ctx context.Context, id Identity) error
	Delete(ctx context.Context, id domain.IdentityID) error

	GetByID(ctx context.Context, id domain.IdentityID) (Identity, error)
	GetByEmail(ctx context.Context, email string) (Identity, error)

	List(ctx context.Context) ([]Identity, error)
	ListByRole(ctx context.Context, role domain.Role) ([]Identity, error)

	CountAll(ctx context.Context) (int, error)
	// CountDrivers counts driver identities; with onlyAvailable it counts
	// only drivers currently flagged available.
	CountDrivers(ctx context.Context, onlyAvailable bool) (int, error)
}
