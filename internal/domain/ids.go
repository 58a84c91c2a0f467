package domain

// IdentityID is an internal identifier for a registered principal
// (customer, driver, or admin). It is opaque: its format is controlled
// by the identity repository.
type IdentityID string

// RideID is an internal identifier for a ride record.
type RideID string
