package rides

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	memriderepo "github.com/metrocab/taxi-dispatch-api/internal/adapters/memory/riderepo"
	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func newTestService(t *testing.T) (*Service, *memriderepo.Repo) {
	t.Helper()
	repo := memriderepo.NewRepo()
	svc := NewService(repo, fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)})
	n := 0
	svc.SetNewRideIDForTest(func() domain.RideID {
		n++
		return domain.RideID(fmt.Sprintf("ride-%d", n))
	})
	return svc, repo
}

func assertRideError(t *testing.T, err error, status int, code string) {
	t.Helper()
	var appErr *Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not a *rides.Error", err)
	}
	if appErr.Status != status || appErr.Code != code {
		t.Fatalf("error = %d %s, want %d %s", appErr.Status, appErr.Code, status, code)
	}
}

func TestService_Lifecycle(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "Central Station", Dropoff: "Airport", Fare: 42.50})
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}
	if r.Status != domain.RideRequested || r.ID != "ride-1" {
		t.Fatalf("requested ride = %+v", r)
	}
	if r.DriverID != nil || r.AcceptedAt != nil {
		t.Fatalf("new ride already has driver fields: %+v", r)
	}

	r, err = svc.AcceptRide(ctx, "driver-1", r.ID)
	if err != nil {
		t.Fatalf("AcceptRide: %v", err)
	}
	if r.Status != domain.RideAccepted {
		t.Fatalf("status after accept = %q", r.Status)
	}
	if r.DriverID == nil || *r.DriverID != "driver-1" || r.AcceptedAt == nil {
		t.Fatalf("driver fields after accept: %+v", r)
	}

	r, err = svc.ConfirmRide(ctx, "passenger-1", r.ID)
	if err != nil {
		t.Fatalf("ConfirmRide: %v", err)
	}
	if r.Status != domain.RideConfirmed {
		t.Fatalf("status after confirm = %q", r.Status)
	}
	if r.DriverID == nil || *r.DriverID != "driver-1" {
		t.Fatalf("confirm dropped driver assignment: %+v", r)
	}

	r, err = svc.CompleteRide(ctx, "driver-1", r.ID)
	if err != nil {
		t.Fatalf("CompleteRide: %v", err)
	}
	if r.Status != domain.RideCompleted {
		t.Fatalf("status after complete = %q", r.Status)
	}
}

func TestService_RequestRideValidation(t *testing.T) {
	t.Parallel()

	svc, repo := newTestService(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   RequestRideInput
	}{
		{"empty pickup", RequestRideInput{Pickup: "  ", Dropoff: "Airport", Fare: 10}},
		{"empty dropoff", RequestRideInput{Pickup: "Central", Dropoff: "", Fare: 10}},
		{"negative fare", RequestRideInput{Pickup: "Central", Dropoff: "Airport", Fare: -5}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.RequestRide(ctx, "passenger-1", tc.in)
			assertRideError(t, err, 422, "VALIDATION_ERROR")
		})
	}

	n, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Fatalf("rejected requests left %d rides behind", n)
	}
}

func TestService_RequestRideZeroFareAllowed(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	if _, err := svc.RequestRide(context.Background(), "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 0}); err != nil {
		t.Fatalf("RequestRide with zero fare: %v", err)
	}
}

func TestService_AcceptRideRace(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, err := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	if err != nil {
		t.Fatalf("RequestRide: %v", err)
	}

	const drivers = 8
	var wg sync.WaitGroup
	results := make([]error, drivers)
	for i := 0; i < drivers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.AcceptRide(ctx, domain.IdentityID(fmt.Sprintf("driver-%d", i)), r.ID)
			results[i] = err
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		default:
			var appErr *Error
			if !errors.As(err, &appErr) || appErr.Code != "RIDE_INVALID_TRANSITION" {
				t.Fatalf("unexpected error: %v", err)
			}
			conflicts++
		}
	}
	if wins != 1 || conflicts != drivers-1 {
		t.Fatalf("wins = %d, conflicts = %d", wins, conflicts)
	}

	got, err := svc.GetRide(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetRide: %v", err)
	}
	if got.Status != domain.RideAccepted || got.DriverID == nil {
		t.Fatalf("ride after race: %+v", got)
	}
}

func TestService_AcceptRideUnknownRide(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	_, err := svc.AcceptRide(context.Background(), "driver-1", "missing")
	assertRideError(t, err, 404, "RIDE_NOT_FOUND")
}

func TestService_ConfirmRideOwnership(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	if _, err := svc.AcceptRide(ctx, "driver-1", r.ID); err != nil {
		t.Fatalf("AcceptRide: %v", err)
	}

	_, err := svc.ConfirmRide(ctx, "passenger-2", r.ID)
	assertRideError(t, err, 403, "FORBIDDEN")

	got, _ := svc.GetRide(ctx, r.ID)
	if got.Status != domain.RideAccepted {
		t.Fatalf("foreign confirm changed status to %q", got.Status)
	}
}

func TestService_ConfirmRideRequiresAccepted(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	_, err := svc.ConfirmRide(ctx, "passenger-1", r.ID)
	assertRideError(t, err, 409, "RIDE_INVALID_TRANSITION")
}

func TestService_CompleteRideOwnership(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	svc.AcceptRide(ctx, "driver-1", r.ID)
	svc.ConfirmRide(ctx, "passenger-1", r.ID)

	_, err := svc.CompleteRide(ctx, "driver-2", r.ID)
	assertRideError(t, err, 403, "FORBIDDEN")

	if _, err := svc.CompleteRide(ctx, "driver-1", r.ID); err != nil {
		t.Fatalf("CompleteRide by assigned driver: %v", err)
	}
}

func TestService_CancelRide(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	// Cancel from requested.
	r, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	got, err := svc.CancelRide(ctx, "passenger-1", r.ID)
	if err != nil {
		t.Fatalf("CancelRide requested: %v", err)
	}
	if got.Status != domain.RideCancelled {
		t.Fatalf("status = %q", got.Status)
	}

	// Cancel from accepted.
	r, _ = svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	svc.AcceptRide(ctx, "driver-1", r.ID)
	if _, err := svc.CancelRide(ctx, "passenger-1", r.ID); err != nil {
		t.Fatalf("CancelRide accepted: %v", err)
	}

	// Not from confirmed.
	r, _ = svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	svc.AcceptRide(ctx, "driver-1", r.ID)
	svc.ConfirmRide(ctx, "passenger-1", r.ID)
	_, err = svc.CancelRide(ctx, "passenger-1", r.ID)
	assertRideError(t, err, 409, "RIDE_INVALID_TRANSITION")

	// Not by another passenger.
	r, _ = svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	_, err = svc.CancelRide(ctx, "passenger-2", r.ID)
	assertRideError(t, err, 403, "FORBIDDEN")
}

func TestService_TerminalStatesAreImmutable(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	r, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	svc.AcceptRide(ctx, "driver-1", r.ID)
	svc.ConfirmRide(ctx, "passenger-1", r.ID)
	svc.CompleteRide(ctx, "driver-1", r.ID)

	if _, err := svc.AcceptRide(ctx, "driver-2", r.ID); err == nil {
		t.Fatal("accept on completed ride succeeded")
	}
	_, err := svc.CancelRide(ctx, "passenger-1", r.ID)
	assertRideError(t, err, 409, "RIDE_INVALID_TRANSITION")
	_, err = svc.CompleteRide(ctx, "driver-1", r.ID)
	assertRideError(t, err, 409, "RIDE_INVALID_TRANSITION")

	got, _ := svc.GetRide(ctx, r.ID)
	if got.Status != domain.RideCompleted {
		t.Fatalf("terminal status changed to %q", got.Status)
	}
}

func TestService_Listings(t *testing.T) {
	t.Parallel()

	svc, _ := newTestService(t)
	ctx := context.Background()

	a, _ := svc.RequestRide(ctx, "passenger-1", RequestRideInput{Pickup: "A", Dropoff: "B", Fare: 10})
	b, _ := svc.RequestRide(ctx, "passenger-2", RequestRideInput{Pickup: "C", Dropoff: "D", Fare: 20})
	svc.AcceptRide(ctx, "driver-1", b.ID)

	mine, err := svc.ListForPassenger(ctx, "passenger-1")
	if err != nil {
		t.Fatalf("ListForPassenger: %v", err)
	}
	if len(mine) != 1 || mine[0].ID != a.ID {
		t.Fatalf("passenger listing = %+v", mine)
	}

	assigned, err := svc.ListForDriver(ctx, "driver-1")
	if err != nil {
		t.Fatalf("ListForDriver: %v", err)
	}
	if len(assigned) != 1 || assigned[0].ID != b.ID {
		t.Fatalf("driver listing = %+v", assigned)
	}

	all, err := svc.ListAll(ctx)
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("ListAll returned %d rides", len(all))
	}
}
