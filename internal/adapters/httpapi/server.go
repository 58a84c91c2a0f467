package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/metrocab/taxi-dispatch-api/internal/app/accounts"
	"github.com/metrocab/taxi-dispatch-api/internal/app/policy"
	"github.com/metrocab/taxi-dispatch-api/internal/app/rides"
	"github.com/metrocab/taxi-dispatch-api/internal/app/sessions"
	"github.com/metrocab/taxi-dispatch-api/internal/domain"
)

// Server holds the application services behind the HTTP surface.
type Server struct {
	sessions *sessions.Service
	rides    *rides.Service
	accounts *accounts.Service
}

func NewServer(sessionsSvc *sessions.Service, ridesSvc *rides.Service, accountsSvc *accounts.Service) *Server {
	return &Server{
		sessions: sessionsSvc,
		rides:    ridesSvc,
		accounts: accountsSvc,
	}
}

type identityResponse struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Blocked   bool      `json:"blocked"`
	Available bool      `json:"available"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type rideResponse struct {
	ID          string     `json:"id"`
	PassengerID string     `json:"passenger_id"`
	DriverID    *string    `json:"driver_id,omitempty"`
	Pickup      string     `json:"pickup"`
	Dropoff     string     `json:"dropoff"`
	Fare        float64    `json:"fare"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	AcceptedAt  *time.Time `json:"accepted_at,omitempty"`
}

type sessionResponse struct {
	Token     string           `json:"token"`
	ExpiresAt time.Time        `json:"expires_at"`
	Identity  identityResponse `json:"identity"`
}

type analyticsResponse struct {
	TotalUsers       int `json:"total_users"`
	TotalDrivers     int `json:"total_drivers"`
	AvailableDrivers int `json:"available_drivers"`
	TotalRides       int `json:"total_rides"`
}

func toIdentityResponse(id domain.Identity) identityResponse {
	return identityResponse{
		ID:        string(id.ID),
		Role:      string(id.Role),
		Name:      id.Name,
		Email:     id.Email,
		Blocked:   id.Blocked,
		Available: id.Available,
		CreatedAt: id.CreatedAt,
		UpdatedAt: id.UpdatedAt,
	}
}

func toIdentityResponses(ids []domain.Identity) []identityResponse {
	out := make([]identityResponse, 0, len(ids))
	for _, id := range ids {
		out = append(out, toIdentityResponse(id))
	}
	return out
}

func toRideResponse(r domain.Ride) rideResponse {
	resp := rideResponse{
		ID:          string(r.ID),
		PassengerID: string(r.PassengerID),
		Pickup:      r.Pickup,
		Dropoff:     r.Dropoff,
		Fare:        r.Fare,
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		AcceptedAt:  r.AcceptedAt,
	}
	if r.DriverID != nil {
		s := string(*r.DriverID)
		resp.DriverID = &s
	}
	return resp
}

func toRideResponses(rs []domain.Ride) []rideResponse {
	out := make([]rideResponse, 0, len(rs))
	for _, r := range rs {
		out = append(out, toRideResponse(r))
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, "VALIDATION_ERROR", "malformed request body", nil)
		return false
	}
	return true
}

// principal pulls the verified identity from context; the auth middleware
// guarantees it is present on every route that reaches here.
func principal(w http.ResponseWriter, r *http.Request) (sessions.Principal, bool) {
	p, ok := PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing principal", nil)
	}
	return p, ok
}

func permit(w http.ResponseWriter, r *http.Request, p sessions.Principal, action policy.Action) bool {
	if !policy.Permit(p.Role, action) {
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "role is not allowed to perform this action", nil)
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name   string `json:"name"`
		Email  string `json:"email"`
		Secret string `json:"secret"`
		Role   string `json:"role"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := s.accounts.Register(r.Context(), accounts.RegisterInput{
		Name:   body.Name,
		Email:  body.Email,
		Secret: body.Secret,
		Role:   body.Role,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toIdentityResponse(id))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email  string `json:"email"`
		Secret string `json:"secret"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	sess, err := s.sessions.Login(r.Context(), body.Email, body.Secret)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{
		Token:     sess.Token,
		ExpiresAt: sess.ExpiresAt,
		Identity:  toIdentityResponse(sess.Identity),
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	raw, ok := TokenFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "UNAUTHENTICATED", "missing bearer token", nil)
		return
	}
	if err := s.sessions.Logout(r.Context(), raw); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	if _, ok := principal(w, r); !ok {
		return
	}
	id, err := s.accounts.GetIdentity(r.Context(), domain.IdentityID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(id))
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var body struct {
		Name  *string `json:"name"`
		Email *string `json:"email"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	id, err := s.accounts.UpdateProfile(r.Context(), p.IdentityID, p.Role, domain.IdentityID(chi.URLParam(r, "id")), accounts.UpdateProfileInput{
		Name:  body.Name,
		Email: body.Email,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(id))
}

func (s *Server) handleDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	if err := s.accounts.DeleteIdentity(r.Context(), p.IdentityID, p.Role, domain.IdentityID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListDrivers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewDrivers) {
		return
	}
	drivers, err := s.accounts.ListDrivers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponses(drivers))
}

func (s *Server) handleSetAvailability(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionSetAvailability) {
		return
	}
	id := domain.IdentityID(chi.URLParam(r, "id"))
	if id != p.IdentityID {
		writeError(w, r, http.StatusForbidden, "FORBIDDEN", "cannot set another driver's availability", nil)
		return
	}
	var body struct {
		Available bool `json:"available"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	updated, err := s.accounts.SetAvailability(r.Context(), id, body.Available)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponse(updated))
}

func (s *Server) handleListPassengers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewPassengers) {
		return
	}
	passengers, err := s.accounts.ListPassengers(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponses(passengers))
}

func (s *Server) handleRequestRide(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionRequestRide) {
		return
	}
	var body struct {
		Pickup  string  `json:"pickup"`
		Dropoff string  `json:"dropoff"`
		Fare    float64 `json:"fare"`
	}
	if !decodeJSON(w, r, &body) {
		return
	}
	ride, err := s.rides.RequestRide(r.Context(), p.IdentityID, rides.RequestRideInput{
		Pickup:  body.Pickup,
		Dropoff: body.Dropoff,
		Fare:    body.Fare,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toRideResponse(ride))
}

func (s *Server) handleMyRides(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewOwnRides) {
		return
	}
	list, err := s.rides.ListForPassenger(r.Context(), p.IdentityID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponses(list))
}

func (s *Server) handleAssignedRides(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewOwnRides) {
		return
	}
	list, err := s.rides.ListForDriver(r.Context(), p.IdentityID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponses(list))
}

func (s *Server) handleAcceptRide(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionAcceptRide) {
		return
	}
	ride, err := s.rides.AcceptRide(r.Context(), p.IdentityID, domain.RideID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponse(ride))
}

func (s *Server) handleConfirmRide(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionConfirmRide) {
		return
	}
	ride, err := s.rides.ConfirmRide(r.Context(), p.IdentityID, domain.RideID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponse(ride))
}

func (s *Server) handleCompleteRide(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionCompleteRide) {
		return
	}
	ride, err := s.rides.CompleteRide(r.Context(), p.IdentityID, domain.RideID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponse(ride))
}

func (s *Server) handleCancelRide(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionCancelRide) {
		return
	}
	ride, err := s.rides.CancelRide(r.Context(), p.IdentityID, domain.RideID(chi.URLParam(r, "id")))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponse(ride))
}

func (s *Server) handleAdminListUsers(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewAllUsers) {
		return
	}
	list, err := s.accounts.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toIdentityResponses(list))
}

func (s *Server) handleAdminDeleteUser(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionDeleteIdentity) {
		return
	}
	if err := s.accounts.DeleteIdentity(r.Context(), p.IdentityID, p.Role, domain.IdentityID(chi.URLParam(r, "id"))); err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAdminSetBlocked(blocked bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := principal(w, r)
		if !ok || !permit(w, r, p, policy.ActionBlockIdentity) {
			return
		}
		id, err := s.accounts.SetBlocked(r.Context(), domain.IdentityID(chi.URLParam(r, "id")), blocked)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, toIdentityResponse(id))
	}
}

func (s *Server) handleAdminListRides(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewAllRides) {
		return
	}
	list, err := s.rides.ListAll(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toRideResponses(list))
}

func (s *Server) handleAdminAnalytics(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok || !permit(w, r, p, policy.ActionViewAllUsers) {
		return
	}
	a, err := s.accounts.Analytics(r.Context())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, analyticsResponse{
		TotalUsers:       a.TotalUsers,
		TotalDrivers:     a.TotalDrivers,
		AvailableDrivers: a.AvailableDrivers,
		TotalRides:       a.TotalRides,
	})
}
