package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/metrocab/taxi-dispatch-api/internal/app/accounts"
	"github.com/metrocab/taxi-dispatch-api/internal/app/rides"
	"github.com/metrocab/taxi-dispatch-api/internal/app/sessions"
)

// RouterDeps collects everything the HTTP surface needs.
type RouterDeps struct {
	Sessions *sessions.Service
	Rides    *rides.Service
	Accounts *accounts.Service
	Logger   *slog.Logger
	Metrics  *Metrics
}

// NewRouter constructs the API HTTP router.
//
// This is intentionally a thin adapter: middleware resolves the principal,
// handlers gate on the policy table and delegate to the application services.
func NewRouter(deps RouterDeps) http.Handler {
	s := NewServer(deps.Sessions, deps.Rides, deps.Accounts)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if deps.Logger != nil {
		r.Use(NewLoggingMiddleware(deps.Logger))
	}
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware)
	}

	// Health endpoint is unauthenticated (used for infra checks).
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())
	}

	r.Post("/register", s.handleRegister)
	r.Post("/auth/login", s.handleLogin)

	r.Group(func(pr chi.Router) {
		pr.Use(NewAuthMiddleware(deps.Sessions))

		pr.Post("/auth/logout", s.handleLogout)

		pr.Get("/users/{id}", s.handleGetUser)
		pr.Patch("/users/{id}", s.handleUpdateUser)
		pr.Delete("/users/{id}", s.handleDeleteUser)

		pr.Get("/drivers", s.handleListDrivers)
		pr.Patch("/drivers/{id}/availability", s.handleSetAvailability)
		pr.Get("/driver/passengers", s.handleListPassengers)

		pr.Post("/rides", s.handleRequestRide)
		pr.Get("/rides/mine", s.handleMyRides)
		pr.Get("/rides/assigned", s.handleAssignedRides)
		pr.Patch("/rides/{id}/accept", s.handleAcceptRide)
		pr.Patch("/rides/{id}/confirm", s.handleConfirmRide)
		pr.Patch("/rides/{id}/complete", s.handleCompleteRide)
		pr.Patch("/rides/{id}/cancel", s.handleCancelRide)

		pr.Get("/admin/users", s.handleAdminListUsers)
		pr.Delete("/admin/users/{id}", s.handleAdminDeleteUser)
		pr.Patch("/admin/users/{id}/block", s.handleAdminSetBlocked(true))
		pr.Patch("/admin/users/{id}/unblock", s.handleAdminSetBlocked(false))
		pr.Get("/admin/rides", s.handleAdminListRides)
		pr.Get("/admin/analytics", s.handleAdminAnalytics)
	})

	return r
}
