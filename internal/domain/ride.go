package domain

import "time"

// RideStatus is the closed set of ride lifecycle states.
//
//	requested --accept--> accepted --confirm--> confirmed --complete--> completed
//	requested --cancel--> cancelled
//	accepted  --cancel--> cancelled
//
// completed and cancelled are terminal. Status never moves backward.
type RideStatus string

const (
	RideRequested RideStatus = "requested"
	RideAccepted  RideStatus = "accepted"
	RideConfirmed RideStatus = "confirmed"
	RideCompleted RideStatus = "completed"
	RideCancelled RideStatus = "cancelled"
)

// Ride is the domain representation of a single trip negotiation.
// DriverID is nil exactly while the ride is still in the requested state.
type Ride struct {
	ID          RideID
	PassengerID IdentityID
	DriverID    *IdentityID

	Pickup  string
	Dropoff string
	Fare    float64

	Status RideStatus

	CreatedAt  time.Time
	AcceptedAt *time.Time
}
