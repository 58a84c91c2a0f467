package domain

import "time"

// Identity is the domain representation of a registered principal.
// The credential hash never leaves the ports layer; this shape is what
// services hand back to the HTTP adapter.
type Identity struct {
	ID   IdentityID
	Role Role

	Name  string
	Email string

	// Blocked identities are refused session issuance. Outstanding tokens
	// remain valid until they expire or are revoked.
	Blocked bool

	// Available is meaningful only for drivers; false until a driver
	// explicitly goes on duty.
	Available bool

	CreatedAt time.Time
	UpdatedAt time.Time
}
