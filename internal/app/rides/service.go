package rides

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	clockport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/clock"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

// Service enforces the ride lifecycle. Every status move is delegated to the
// repository's conditional Transition so that concurrent callers racing on
// the same ride resolve to exactly one winner.
type Service struct {
	rides riderepo.Repository
	clk   clockport.Clock

	newRideID func() domain.RideID
}

func NewService(rides riderepo.Repository, clk clockport.Clock) *Service {
	return &Service{
		rides: rides,
		clk:   clk,
		newRideID: func() domain.RideID {
			return domain.RideID(uuid.NewString())
		},
	}
}

// SetNewRideIDForTest overrides ride ID generation for deterministic tests.
// It should not be used in production code.
func (s *Service) SetNewRideIDForTest(fn func() domain.RideID) {
	if fn != nil {
		s.newRideID = fn
	}
}

// RequestRide creates a ride in the requested state. A passenger may hold
// several open requests at once; no duplicate suppression is applied.
func (s *Service) RequestRide(ctx context.Context, passengerID domain.IdentityID, in RequestRideInput) (domain.Ride, error) {
	pickup := strings.TrimSpace(in.Pickup)
	dropoff := strings.TrimSpace(in.Dropoff)
	if pickup == "" {
		return domain.Ride{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid pickup", Details: map[string]any{"pickup": "must be non-empty"}}
	}
	if dropoff == "" {
		return domain.Ride{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid dropoff", Details: map[string]any{"dropoff": "must be non-empty"}}
	}
	if in.Fare < 0 {
		return domain.Ride{}, &Error{Status: 422, Code: "VALIDATION_ERROR", Message: "invalid fare", Details: map[string]any{"fare": "must be >= 0"}}
	}

	r := domain.Ride{
		ID:          s.newRideID(),
		PassengerID: passengerID,
		Pickup:      pickup,
		Dropoff:     dropoff,
		Fare:        in.Fare,
		Status:      domain.RideRequested,
		CreatedAt:   s.clk.Now(),
	}
	if err := s.rides.Create(ctx, r); err != nil {
		if errors.Is(err, riderepo.ErrAlreadyExists) {
			// Extremely unlikely (UUID collision); treat as conflict.
			return domain.Ride{}, &Error{Status: 409, Code: "RIDE_ID_CONFLICT", Message: "ride id conflict"}
		}
		return domain.Ride{}, err
	}
	return r, nil
}

// AcceptRide moves a requested ride to accepted and assigns the driver.
// The driver's availability flag is advisory and not consulted here.
func (s *Service) AcceptRide(ctx context.Context, driverID domain.IdentityID, rideID domain.RideID) (domain.Ride, error) {
	now := s.clk.Now()
	r, err := s.rides.Transition(ctx, rideID, domain.RideRequested, riderepo.TransitionPatch{
		Status:     domain.RideAccepted,
		DriverID:   &driverID,
		AcceptedAt: &now,
	})
	if err != nil {
		return domain.Ride{}, s.transitionError(err)
	}
	return r, nil
}

// ConfirmRide moves an accepted ride to confirmed. Only the passenger who
// requested the ride may confirm it.
func (s *Service) ConfirmRide(ctx context.Context, passengerID domain.IdentityID, rideID domain.RideID) (domain.Ride, error) {
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.Ride{}, &Error{Status: 404, Code: "RIDE_NOT_FOUND", Message: "ride not found"}
		}
		return domain.Ride{}, err
	}
	if r.PassengerID != passengerID {
		return domain.Ride{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "ride belongs to another passenger"}
	}

	r, err = s.rides.Transition(ctx, rideID, domain.RideAccepted, riderepo.TransitionPatch{
		Status: domain.RideConfirmed,
	})
	if err != nil {
		return domain.Ride{}, s.transitionError(err)
	}
	return r, nil
}

// CompleteRide moves a confirmed ride to the terminal completed state. Only
// the assigned driver may complete it.
func (s *Service) CompleteRide(ctx context.Context, driverID domain.IdentityID, rideID domain.RideID) (domain.Ride, error) {
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.Ride{}, &Error{Status: 404, Code: "RIDE_NOT_FOUND", Message: "ride not found"}
		}
		return domain.Ride{}, err
	}
	if r.DriverID == nil || *r.DriverID != driverID {
		return domain.Ride{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "ride is assigned to another driver"}
	}

	r, err = s.rides.Transition(ctx, rideID, domain.RideConfirmed, riderepo.TransitionPatch{
		Status: domain.RideCompleted,
	})
	if err != nil {
		return domain.Ride{}, s.transitionError(err)
	}
	return r, nil
}

// CancelRide moves a requested or accepted ride to the terminal cancelled
// state. Only the requesting passenger may cancel.
func (s *Service) CancelRide(ctx context.Context, passengerID domain.IdentityID, rideID domain.RideID) (domain.Ride, error) {
	r, err := s.rides.GetByID(ctx, rideID)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.Ride{}, &Error{Status: 404, Code: "RIDE_NOT_FOUND", Message: "ride not found"}
		}
		return domain.Ride{}, err
	}
	if r.PassengerID != passengerID {
		return domain.Ride{}, &Error{Status: 403, Code: "FORBIDDEN", Message: "ride belongs to another passenger"}
	}
	if r.Status != domain.RideRequested && r.Status != domain.RideAccepted {
		return domain.Ride{}, &Error{Status: 409, Code: "RIDE_INVALID_TRANSITION", Message: "ride cannot be cancelled from its current state"}
	}

	// The observed status is re-checked by the conditional update, so a race
	// against accept or a concurrent cancel resolves to a single winner.
	r, err = s.rides.Transition(ctx, rideID, r.Status, riderepo.TransitionPatch{
		Status: domain.RideCancelled,
	})
	if err != nil {
		return domain.Ride{}, s.transitionError(err)
	}
	return r, nil
}

func (s *Service) GetRide(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	r, err := s.rides.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, riderepo.ErrNotFound) {
			return domain.Ride{}, &Error{Status: 404, Code: "RIDE_NOT_FOUND", Message: "ride not found"}
		}
		return domain.Ride{}, err
	}
	return r, nil
}

func (s *Service) ListForPassenger(ctx context.Context, passengerID domain.IdentityID) ([]domain.Ride, error) {
	return s.rides.ListByPassenger(ctx, passengerID)
}

func (s *Service) ListForDriver(ctx context.Context, driverID domain.IdentityID) ([]domain.Ride, error) {
	return s.rides.ListByDriver(ctx, driverID)
}

func (s *Service) ListAll(ctx context.Context) ([]domain.Ride, error) {
	return s.rides.List(ctx)
}

func (s *Service) transitionError(err error) error {
	switch {
	case errors.Is(err, riderepo.ErrNotFound):
		return &Error{Status: 404, Code: "RIDE_NOT_FOUND", Message: "ride not found"}
	case errors.Is(err, riderepo.ErrStatusConflict):
		return &Error{Status: 409, Code: "RIDE_INVALID_TRANSITION", Message: "ride is not in the required state"}
	default:
		return err
	}
}
