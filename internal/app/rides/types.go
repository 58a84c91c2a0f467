package rides

// RequestRideInput carries the passenger-supplied fields of a new ride.
type RequestRideInput struct {
	Pickup  string
	Dropoff string
	Fare    float64
}
