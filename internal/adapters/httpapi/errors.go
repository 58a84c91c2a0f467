package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/oapi-codegen/nullable"

	"github.com/metrocab/taxi-dispatch-api/internal/app/accounts"
	"github.com/metrocab/taxi-dispatch-api/internal/app/rides"
	"github.com/metrocab/taxi-dispatch-api/internal/app/sessions"
)

// ErrorResponse is the error envelope returned by every failing endpoint.
type ErrorResponse struct {
	Error struct {
		Code      string                            `json:"code"`
		Message   string                            `json:"message"`
		Details   nullable.Nullable[map[string]any] `json:"details,omitempty"`
		RequestID nullable.Nullable[string]         `json:"request_id,omitempty"`
	} `json:"error"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details map[string]any) {
	var er ErrorResponse
	er.Error.Code = code
	er.Error.Message = message
	if details != nil {
		er.Error.Details = nullable.NewNullableWithValue(details)
	}
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		er.Error.RequestID = nullable.NewNullableWithValue(rid)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(er)
}

// writeServiceError translates application-layer errors into the envelope.
// Anything unrecognized is reported as an opaque 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var sessErr *sessions.Error
	var rideErr *rides.Error
	var acctErr *accounts.Error
	switch {
	case errors.As(err, &sessErr):
		writeError(w, r, sessErr.Status, sessErr.Code, sessErr.Message, sessErr.Details)
	case errors.As(err, &rideErr):
		writeError(w, r, rideErr.Status, rideErr.Code, rideErr.Message, rideErr.Details)
	case errors.As(err, &acctErr):
		writeError(w, r, acctErr.Status, acctErr.Code, acctErr.Message, acctErr.Details)
	default:
		writeError(w, r, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
	}
}
