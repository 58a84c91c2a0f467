package identityrepo

import "errors"

var (
	// ErrNotFound indicates the requested identity does not exist.
	ErrNotFound = errors.New("identity not found")

	// ErrAlreadyExists indicates an identity already exists with the provided ID.
	ErrAlreadyExists = errors.New("identity already exists")

	// ErrEmailTaken indicates another identity is already registered with the email.
	ErrEmailTaken = errors.New("identity email already taken")
)
