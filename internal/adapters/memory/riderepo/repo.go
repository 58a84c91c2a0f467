package riderepo

import (
	"context"
	"sort"
	"sync"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

// Repo is an in-memory implementation of riderepo.Repository.
// It is safe for concurrent use; Transition performs its expected-status
// check and write under one lock so races resolve to a single winner.
type Repo struct {
	mu   sync.RWMutex
	byID map[domain.RideID]domain.Ride
}

func NewRepo() *Repo {
	return &Repo{
		byID: make(map[domain.RideID]domain.Ride),
	}
}

func (r *Repo) Create(ctx context.Context, ride domain.Ride) error {
	_ = ctx
	if ride.ID == "" {
		return riderepo.ErrAlreadyExists
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[ride.ID]; ok {
		return riderepo.ErrAlreadyExists
	}
	r.byID[ride.ID] = cloneRide(ride)
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	ride, ok := r.byID[id]
	if !ok {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	return cloneRide(ride), nil
}

func (r *Repo) Transition(ctx context.Context, id domain.RideID, from domain.RideStatus, patch riderepo.TransitionPatch) (domain.Ride, error) {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	ride, ok := r.byID[id]
	if !ok {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	if ride.Status != from {
		return domain.Ride{}, riderepo.ErrStatusConflict
	}
	ride.Status = patch.Status
	if patch.DriverID != nil {
		v := *patch.DriverID
		ride.DriverID = &v
	}
	if patch.AcceptedAt != nil {
		v := *patch.AcceptedAt
		ride.AcceptedAt = &v
	}
	r.byID[id] = cloneRide(ride)
	return cloneRide(ride), nil
}

func (r *Repo) ListByPassenger(ctx context.Context, passengerID domain.IdentityID) ([]domain.Ride, error) {
	_ = ctx
	return r.listWhere(func(ride domain.Ride) bool {
		return ride.PassengerID == passengerID
	}), nil
}

func (r *Repo) ListByDriver(ctx context.Context, driverID domain.IdentityID) ([]domain.Ride, error) {
	_ = ctx
	return r.listWhere(func(ride domain.Ride) bool {
		return ride.DriverID != nil && *ride.DriverID == driverID
	}), nil
}

func (r *Repo) List(ctx context.Context) ([]domain.Ride, error) {
	_ = ctx
	return r.listWhere(func(domain.Ride) bool { return true }), nil
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	_ = ctx
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.byID), nil
}

func (r *Repo) listWhere(keep func(domain.Ride) bool) []domain.Ride {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Ride, 0)
	for _, ride := range r.byID {
		if keep(ride) {
			out = append(out, cloneRide(ride))
		}
	}
	sortRides(out)
	return out
}

func cloneRide(ride domain.Ride) domain.Ride {
	cp := ride
	if ride.DriverID != nil {
		v := *ride.DriverID
		cp.DriverID = &v
	}
	if ride.AcceptedAt != nil {
		v := *ride.AcceptedAt
		cp.AcceptedAt = &v
	}
	return cp
}

func sortRides(rides []domain.Ride) {
	sort.Slice(rides, func(i, j int) bool {
		a, b := rides[i], rides[j]
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})
}
