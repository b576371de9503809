package web

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tbellembois/chimitheque-db-sub000/internal/core"
)

type errorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

// writeError writes a structured JSON error response.
func writeError(w http.ResponseWriter, r *http.Request, message, code string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := errorResponse{
		Error:     message,
		Code:      code,
		RequestID: requestIDFromContext(r.Context()),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// writeJSON writes a JSON response with status 200.
func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

// writeJSONStatus writes a JSON response with an explicit status code.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeCoreError maps the core error taxonomy onto HTTP statuses. Anything
// unrecognized is a 500 with a generic message so internals never leak.
func writeCoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, core.ErrNotFound):
		writeError(w, r, "not found", "NOT_FOUND", http.StatusNotFound)
	case errors.Is(err, core.ErrCycleDetected):
		writeError(w, r, "operation would create a cycle", "CYCLE_DETECTED", http.StatusConflict)
	case errors.Is(err, core.ErrIncompatibleUnitType):
		writeError(w, r, "incompatible units", "INCOMPATIBLE_UNITS", http.StatusBadRequest)
	case errors.Is(err, core.ErrInvalidBarcodeFormat):
		writeError(w, r, "invalid barcode format", "INVALID_BARCODE", http.StatusBadRequest)
	case errors.Is(err, core.ErrMissingProductID),
		errors.Is(err, core.ErrMissingPersonID),
		errors.Is(err, core.ErrMissingStoreLocationID):
		writeError(w, r, err.Error(), "BAD_REQUEST", http.StatusBadRequest)
	default:
		writeError(w, r, "internal server error", "INTERNAL_ERROR", http.StatusInternalServerError)
	}
}
