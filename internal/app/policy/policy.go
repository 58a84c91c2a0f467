package policy

import "github.com/metrocab/taxi-dispatch-api/internal/domain"

// Action names a gated operation. Handlers consult Permit before invoking
// the corresponding service operation.
type Action string

const (
	ActionRequestRide     Action = "ride:request"
	ActionAcceptRide      Action = "ride:accept"
	ActionConfirmRide     Action = "ride:confirm"
	ActionCompleteRide    Action = "ride:complete"
	ActionCancelRide      Action = "ride:cancel"
	ActionViewOwnRides    Action = "ride:view-own"
	ActionViewAllRides    Action = "ride:view-all"
	ActionSetAvailability Action = "driver:set-availability"
	ActionViewDrivers     Action = "directory:view-drivers"
	ActionViewPassengers  Action = "directory:view-passengers"
	ActionBlockIdentity   Action = "identity:block"
	ActionDeleteIdentity  Action = "identity:delete"
	ActionViewAllUsers    Action = "identity:view-all"
)

// table is the single source of truth for role-based authorization.
// Rows absent from the table are denied for every role.
var table = map[Action]map[domain.Role]bool{
	ActionRequestRide:     {domain.RoleCustomer: true},
	ActionAcceptRide:      {domain.RoleDriver: true},
	ActionConfirmRide:     {domain.RoleCustomer: true},
	ActionCompleteRide:    {domain.RoleDriver: true},
	ActionCancelRide:      {domain.RoleCustomer: true},
	ActionViewOwnRides:    {domain.RoleCustomer: true, domain.RoleDriver: true},
	ActionViewAllRides:    {domain.RoleAdmin: true},
	ActionSetAvailability: {domain.RoleDriver: true},
	ActionViewDrivers:     {domain.RoleCustomer: true},
	ActionViewPassengers:  {domain.RoleDriver: true},
	ActionBlockIdentity:   {domain.RoleAdmin: true},
	ActionDeleteIdentity:  {domain.RoleAdmin: true},
	ActionViewAllUsers:    {domain.RoleAdmin: true},
}

// Permit reports whether role may perform action. It is a pure function of
// its arguments; unknown (role, action) pairs are denied.
func Permit(role domain.Role, action Action) bool {
	allowed, ok := table[action]
	if !ok {
		return false
	}
	return allowed[role]
}
