package riderepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/metrocab/taxi-dispatch-api/internal/adapters/postgres"
	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	"github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

const rideColumns = `id, passenger_id, driver_id, pickup, dropoff, fare, status, created_at, accepted_at`

// Repo is a Postgres implementation of riderepo.Repository.
//
// Transition relies on a single conditional UPDATE keyed on (id, status):
// the expected-status check and the write are one statement, so concurrent
// transitions on the same ride resolve to exactly one winner without any
// explicit locking.
type Repo struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

func (r *Repo) Create(ctx context.Context, ride domain.Ride) error {
	id, err := uuid.Parse(string(ride.ID))
	if err != nil {
		return fmt.Errorf("invalid ride id: %w", err)
	}
	passengerID, err := uuid.Parse(string(ride.PassengerID))
	if err != nil {
		return fmt.Errorf("invalid passenger id: %w", err)
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO rides (`+rideColumns+`)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
	`,
		id,
		passengerID,
		driverUUID(ride.DriverID),
		ride.Pickup,
		ride.Dropoff,
		ride.Fare,
		string(ride.Status),
		ride.CreatedAt.UTC(),
		timestampPtr(ride.AcceptedAt),
	)
	if err != nil {
		if pe, ok := postgres.AsPgError(err); ok && pe.Code == postgres.UniqueViolationCode {
			return riderepo.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id domain.RideID) (domain.Ride, error) {
	rideUUID, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	row := r.pool.QueryRow(ctx, `SELECT `+rideColumns+` FROM rides WHERE id = $1`, rideUUID)
	return scanRide(row)
}

func (r *Repo) Transition(ctx context.Context, id domain.RideID, from domain.RideStatus, patch riderepo.TransitionPatch) (domain.Ride, error) {
	rideUUID, err := uuid.Parse(string(id))
	if err != nil {
		return domain.Ride{}, riderepo.ErrNotFound
	}

	row := r.pool.QueryRow(ctx, `
		UPDATE rides
		SET status = $3,
		    driver_id = COALESCE($4, driver_id),
		    accepted_at = COALESCE($5, accepted_at)
		WHERE id = $1 AND status = $2
		RETURNING `+rideColumns+`
	`,
		rideUUID,
		string(from),
		string(patch.Status),
		driverUUID(patch.DriverID),
		timestampPtr(patch.AcceptedAt),
	)
	ride, err := scanRide(row)
	if err == nil {
		return ride, nil
	}
	if !errors.Is(err, riderepo.ErrNotFound) {
		return domain.Ride{}, err
	}

	// Zero rows matched: tell "no such ride" apart from "wrong status".
	// The classifying read is advisory only; the CAS above already decided.
	var status string
	err = r.pool.QueryRow(ctx, `SELECT status FROM rides WHERE id = $1`, rideUUID).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Ride{}, riderepo.ErrNotFound
	}
	if err != nil {
		return domain.Ride{}, err
	}
	return domain.Ride{}, riderepo.ErrStatusConflict
}

func (r *Repo) ListByPassenger(ctx context.Context, passengerID domain.IdentityID) ([]domain.Ride, error) {
	pid, err := uuid.Parse(string(passengerID))
	if err != nil {
		return []domain.Ride{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE passenger_id = $1
		ORDER BY created_at ASC, id ASC
	`, pid)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (r *Repo) ListByDriver(ctx context.Context, driverID domain.IdentityID) ([]domain.Ride, error) {
	did, err := uuid.Parse(string(driverID))
	if err != nil {
		return []domain.Ride{}, nil
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		WHERE driver_id = $1
		ORDER BY created_at ASC, id ASC
	`, did)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (r *Repo) List(ctx context.Context) ([]domain.Ride, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+rideColumns+` FROM rides
		ORDER BY created_at ASC, id ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectRides(rows)
}

func (r *Repo) Count(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM rides`).Scan(&n)
	return n, err
}

func driverUUID(id *domain.IdentityID) *uuid.UUID {
	if id == nil {
		return nil
	}
	u, err := uuid.Parse(string(*id))
	if err != nil {
		return nil
	}
	return &u
}

func timestampPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := t.UTC()
	return &v
}

func scanRide(row pgx.Row) (domain.Ride, error) {
	var (
		id          uuid.UUID
		passengerID uuid.UUID
		driverID    *uuid.UUID
		ride        domain.Ride
		status      string
		createdAt   time.Time
		acceptedAt  *time.Time
	)
	err := row.Scan(&id, &passengerID, &driverID, &ride.Pickup, &ride.Dropoff, &ride.Fare, &status, &createdAt, &acceptedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Ride{}, riderepo.ErrNotFound
		}
		return domain.Ride{}, err
	}
	ride.ID = domain.RideID(id.String())
	ride.PassengerID = domain.IdentityID(passengerID.String())
	if driverID != nil {
		v := domain.IdentityID(driverID.String())
		ride.DriverID = &v
	}
	ride.Status = domain.RideStatus(status)
	ride.CreatedAt = createdAt.UTC()
	if acceptedAt != nil {
		v := acceptedAt.UTC()
		ride.AcceptedAt = &v
	}
	return ride, nil
}

func collectRides(rows pgx.Rows) ([]domain.Ride, error) {
	out := make([]domain.Ride, 0)
	for rows.Next() {
		ride, err := scanRide(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, ride)
	}
	return out, rows.Err()
}
