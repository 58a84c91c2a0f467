package policy

import (
	"testing"

	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

func TestPermit(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		role   domain.Role
		action Action
		want   bool
	}{
		{"customer requests ride", domain.RoleCustomer, ActionRequestRide, true},
		{"driver cannot request ride", domain.RoleDriver, ActionRequestRide, false},
		{"admin cannot request ride", domain.RoleAdmin, ActionRequestRide, false},
		{"driver accepts ride", domain.RoleDriver, ActionAcceptRide, true},
		{"customer cannot accept ride", domain.RoleCustomer, ActionAcceptRide, false},
		{"customer confirms ride", domain.RoleCustomer, ActionConfirmRide, true},
		{"driver cannot confirm ride", domain.RoleDriver, ActionConfirmRide, false},
		{"driver completes ride", domain.RoleDriver, ActionCompleteRide, true},
		{"customer cannot complete ride", domain.RoleCustomer, ActionCompleteRide, false},
		{"customer cancels ride", domain.RoleCustomer, ActionCancelRide, true},
		{"driver cannot cancel ride", domain.RoleDriver, ActionCancelRide, false},
		{"customer views own rides", domain.RoleCustomer, ActionViewOwnRides, true},
		{"driver views own rides", domain.RoleDriver, ActionViewOwnRides, true},
		{"admin views all rides", domain.RoleAdmin, ActionViewAllRides, true},
		{"customer cannot view all rides", domain.RoleCustomer, ActionViewAllRides, false},
		{"driver sets availability", domain.RoleDriver, ActionSetAvailability, true},
		{"admin cannot set availability", domain.RoleAdmin, ActionSetAvailability, false},
		{"customer views drivers", domain.RoleCustomer, ActionViewDrivers, true},
		{"driver cannot view drivers", domain.RoleDriver, ActionViewDrivers, false},
		{"driver views passengers", domain.RoleDriver, ActionViewPassengers, true},
		{"customer cannot view passengers", domain.RoleCustomer, ActionViewPassengers, false},
		{"admin blocks identity", domain.RoleAdmin, ActionBlockIdentity, true},
		{"customer cannot block identity", domain.RoleCustomer, ActionBlockIdentity, false},
		{"admin deletes identity", domain.RoleAdmin, ActionDeleteIdentity, true},
		{"admin views all users", domain.RoleAdmin, ActionViewAllUsers, true},
		{"driver cannot view all users", domain.RoleDriver, ActionViewAllUsers, false},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Permit(tc.role, tc.action); got != tc.want {
				t.Fatalf("Permit(%q, %q) = %v, want %v", tc.role, tc.action, got, tc.want)
			}
		})
	}
}

func TestPermit_UnknownInputsDenied(t *testing.T) {
	t.Parallel()

	if Permit(domain.RoleAdmin, Action("ride:teleport")) {
		t.Fatal("unknown action must be denied")
	}
	if Permit(domain.Role("superuser"), ActionViewAllRides) {
		t.Fatal("unknown role must be denied")
	}
	if Permit(domain.Role(""), ActionRequestRide) {
		t.Fatal("empty role must be denied")
	}
}

func TestPermit_EveryActionHasARow(t *testing.T) {
	t.Parallel()

	actions := []Action{
		ActionRequestRide, ActionAcceptRide, ActionConfirmRide,
		ActionCompleteRide, ActionCancelRide, ActionViewOwnRides,
		ActionViewAllRides, ActionSetAvailability, ActionViewDrivers,
		ActionViewPassengers, ActionBlockIdentity, ActionDeleteIdentity,
		ActionViewAllUsers,
	}
	for _, a := range actions {
		if _, ok := table[a]; !ok {
			t.Errorf("action %q has no authorization row", a)
		}
	}
	if len(table) != len(actions) {
		t.Fatalf("table has %d rows, expected %d", len(table), len(actions))
	}
}
