package riderepo

import (
	"context"
	"time"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

// TransitionPatch carries the fields written together with a status move.
// DriverID and AcceptedAt are set only by the accept transition.
type TransitionPatch struct {
	Status     domain.RideStatus
	DriverID   *domain.IdentityID
	AcceptedAt *time.Time
}

// Repository provides access to persisted rides.
//
// Transition is the only mutation after Create: the expected-status check and
// the write must happen as one conditional update so that two callers racing
// on the same ride cannot both succeed. A zero-match outcome is reported as
// ErrNotFound (no ride with the id) or ErrStatusConflict (ride exists, status
// differs from the expected one), never as a silent no-op.
//
// List methods return rides ordered by CreatedAt ascending, then ID.
type Repository interface {
	Create(ctx context.Context, r domain.Ride) error

	GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error)

	Transition(ctx context.Context, id domain.RideID, from domain.RideStatus, patch TransitionPatch) (domain.Ride, error)

	ListByPassenger(ctx context.Context, passengerID domain.IdentityID) ([]domain.Ride, error)
	ListByDriver(ctx context.Context, driverID domain.IdentityID) ([]domain.Ride, error)
	List(ctx context.Context) ([]domain.Ride, error)

	Count(ctx context.Context) (int, error)
}
