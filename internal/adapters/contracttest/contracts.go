package contracttest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
	identityrepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/identityrepo"
	revocationrepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/revocationrepo"
	riderepoport "github.com/metrocab/taxi-dispatch-api/internal/ports/out/riderepo"
)

type CleanupFunc = func()

type IdentityRepoFactory func(t *testing.T) (identityrepoport.Repository, CleanupFunc)
type RideRepoFactory func(t *testing.T) (riderepoport.Repository, CleanupFunc)
type RevocationStoreFactory func(t *testing.T) (revocationrepoport.Store, CleanupFunc)

// RunIdentityRepo exercises the behavior every identity repository adapter
// must share: CRUD round-trips, email uniqueness, role listings, and counts.
func RunIdentityRepo(t *testing.T, newRepo IdentityRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	now := time.Unix(1000, 0).UTC()
	driver := identityrepoport.Identity{
		ID:             domain.IdentityID(uuid.NewString()),
		Role:           domain.RoleDriver,
		Name:           "Dana Driver",
		Email:          "dana@example.com",
		CredentialHash: "$2a$10$fakehash",
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	customer := identityrepoport.Identity{
		ID:             domain.IdentityID(uuid.NewString()),
		Role:           domain.RoleCustomer,
		Name:           "Casey Customer",
		Email:          "casey@example.com",
		CredentialHash: "$2a$10$fakehash",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := repo.Create(ctx, driver); err != nil {
		t.Fatalf("Create driver: %v", err)
	}
	if err := repo.Create(ctx, customer); err != nil {
		t.Fatalf("Create customer: %v", err)
	}

	// Email uniqueness.
	dup := customer
	dup.ID = domain.IdentityID(uuid.NewString())
	if err := repo.Create(ctx, dup); !errors.Is(err, identityrepoport.ErrEmailTaken) {
		t.Fatalf("expected ErrEmailTaken, got %v", err)
	}

	got, err := repo.GetByID(ctx, driver.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Email != driver.Email || got.Role != domain.RoleDriver || got.Available {
		t.Fatalf("unexpected record: %+v", got)
	}

	got, err = repo.GetByEmail(ctx, "casey@example.com")
	if err != nil || got.ID != customer.ID {
		t.Fatalf("GetByEmail: got=%+v err=%v", got, err)
	}

	if _, err := repo.GetByID(ctx, domain.IdentityID(uuid.NewString())); !errors.Is(err, identityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Update round-trip.
	got, _ = repo.GetByID(ctx, driver.ID)
	got.Available = true
	got.Blocked = true
	got.UpdatedAt = now.Add(time.Minute)
	if err := repo.Update(ctx, got); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, _ = repo.GetByID(ctx, driver.ID)
	if !got.Available || !got.Blocked {
		t.Fatalf("update not persisted: %+v", got)
	}

	missing := driver
	missing.ID = domain.IdentityID(uuid.NewString())
	if err := repo.Update(ctx, missing); !errors.Is(err, identityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}

	// Role listing is ordered by name.
	drivers, err := repo.ListByRole(ctx, domain.RoleDriver)
	if err != nil || len(drivers) != 1 || drivers[0].ID != driver.ID {
		t.Fatalf("ListByRole drivers=%v err=%v", drivers, err)
	}
	all, err := repo.List(ctx)
	if err != nil || len(all) != 2 {
		t.Fatalf("List=%v err=%v", all, err)
	}
	if all[0].Name != "Casey Customer" {
		t.Fatalf("expected name ordering, got %q first", all[0].Name)
	}

	// Counts.
	if n, err := repo.CountAll(ctx); err != nil || n != 2 {
		t.Fatalf("CountAll=%d err=%v", n, err)
	}
	if n, err := repo.CountDrivers(ctx, false); err != nil || n != 1 {
		t.Fatalf("CountDrivers=%d err=%v", n, err)
	}
	if n, err := repo.CountDrivers(ctx, true); err != nil || n != 1 {
		t.Fatalf("CountDrivers available=%d err=%v", n, err)
	}

	// Delete.
	if err := repo.Delete(ctx, customer.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := repo.Delete(ctx, customer.ID); !errors.Is(err, identityrepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

// RunRideRepo exercises ride creation, conditional transitions, and listings.
func RunRideRepo(t *testing.T, newRepo RideRepoFactory) {
	t.Helper()
	ctx := context.Background()

	repo, cleanup := newRepo(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	passengerID := domain.IdentityID(uuid.NewString())
	driverID := domain.IdentityID(uuid.NewString())
	now := time.Unix(2000, 0).UTC()

	ride := domain.Ride{
		ID:          domain.RideID(uuid.NewString()),
		PassengerID: passengerID,
		Pickup:      "Airport",
		Dropoff:     "Harbor",
		Fare:        15,
		Status:      domain.RideRequested,
		CreatedAt:   now,
	}
	if err := repo.Create(ctx, ride); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Create(ctx, ride); !errors.Is(err, riderepoport.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	// Transition against the wrong prior status.
	if _, err := repo.Transition(ctx, ride.ID, domain.RideAccepted, riderepoport.TransitionPatch{Status: domain.RideConfirmed}); !errors.Is(err, riderepoport.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict, got %v", err)
	}

	// Transition against a missing ride.
	if _, err := repo.Transition(ctx, domain.RideID(uuid.NewString()), domain.RideRequested, riderepoport.TransitionPatch{Status: domain.RideAccepted}); !errors.Is(err, riderepoport.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// Accept sets driver and timestamp atomically with the status move.
	acceptedAt := now.Add(time.Minute)
	got, err := repo.Transition(ctx, ride.ID, domain.RideRequested, riderepoport.TransitionPatch{
		Status:     domain.RideAccepted,
		DriverID:   &driverID,
		AcceptedAt: &acceptedAt,
	})
	if err != nil {
		t.Fatalf("Transition accept: %v", err)
	}
	if got.Status != domain.RideAccepted || got.DriverID == nil || *got.DriverID != driverID {
		t.Fatalf("unexpected ride after accept: %+v", got)
	}
	if got.AcceptedAt == nil || !got.AcceptedAt.Equal(acceptedAt) {
		t.Fatalf("acceptedAt=%v", got.AcceptedAt)
	}

	// Re-running the same transition must now conflict.
	if _, err := repo.Transition(ctx, ride.ID, domain.RideRequested, riderepoport.TransitionPatch{Status: domain.RideAccepted, DriverID: &driverID, AcceptedAt: &acceptedAt}); !errors.Is(err, riderepoport.ErrStatusConflict) {
		t.Fatalf("expected ErrStatusConflict on replay, got %v", err)
	}

	// Later transitions keep driver/acceptedAt untouched.
	got, err = repo.Transition(ctx, ride.ID, domain.RideAccepted, riderepoport.TransitionPatch{Status: domain.RideConfirmed})
	if err != nil {
		t.Fatalf("Transition confirm: %v", err)
	}
	if got.DriverID == nil || *got.DriverID != driverID || got.AcceptedAt == nil {
		t.Fatalf("confirm dropped accept fields: %+v", got)
	}

	// Listings.
	mine, err := repo.ListByPassenger(ctx, passengerID)
	if err != nil || len(mine) != 1 || mine[0].ID != ride.ID {
		t.Fatalf("ListByPassenger=%v err=%v", mine, err)
	}
	assigned, err := repo.ListByDriver(ctx, driverID)
	if err != nil || len(assigned) != 1 {
		t.Fatalf("ListByDriver=%v err=%v", assigned, err)
	}
	if none, err := repo.ListByDriver(ctx, domain.IdentityID(uuid.NewString())); err != nil || len(none) != 0 {
		t.Fatalf("expected empty driver listing, got %v err=%v", none, err)
	}
	all, err := repo.List(ctx)
	if err != nil || len(all) != 1 {
		t.Fatalf("List=%v err=%v", all, err)
	}
	if n, err := repo.Count(ctx); err != nil || n != 1 {
		t.Fatalf("Count=%d err=%v", n, err)
	}
}

// RunRevocationStore exercises idempotent insertion and monotone membership.
func RunRevocationStore(t *testing.T, newStore RevocationStoreFactory) {
	t.Helper()
	ctx := context.Background()

	store, cleanup := newStore(t)
	if cleanup != nil {
		t.Cleanup(cleanup)
	}

	token := "header.payload.signature-" + uuid.NewString()
	when := time.Unix(3000, 0).UTC()

	revoked, err := store.Contains(ctx, token)
	if err != nil || revoked {
		t.Fatalf("fresh token: revoked=%v err=%v", revoked, err)
	}

	if err := store.Add(ctx, token, when); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := store.Add(ctx, token, when.Add(time.Hour)); err != nil {
		t.Fatalf("Add repeat: %v", err)
	}

	revoked, err = store.Contains(ctx, token)
	if err != nil || !revoked {
		t.Fatalf("after revoke: revoked=%v err=%v", revoked, err)
	}
}
