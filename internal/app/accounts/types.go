package accounts

// RegisterInput carries the fields of a new registration. Role is validated
// against the closed role set; it is immutable after creation.
type RegisterInput struct {
	Name   string
	Email  string
	Secret string
	Role   string
}

// UpdateProfileInput carries optional profile fields; nil means unchanged.
type UpdateProfileInput struct {
	Name  *string
	Email *string
}

// Analytics is the admin overview of the system.
type Analytics struct {
	TotalUsers       int
	TotalDrivers     int
	AvailableDrivers int
	TotalRides       int
}
