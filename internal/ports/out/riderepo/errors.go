package riderepo

import "errors"

var (
	// ErrNotFound indicates the requested ride does not exist.
	ErrNotFound = errors.New("ride not found")

	// ErrAlreadyExists indicates a ride already exists with the provided ID.
	ErrAlreadyExists = errors.New("ride already exists")

	// ErrStatusConflict indicates a conditional transition matched the ride ID
	// but not the expected prior status.
	ErrStatusConflict = errors.New("ride status conflict")
)
