package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/openshelf/circulation/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeServiceError maps a coded domain error to an HTTP response. Invariant
// violations are logged loudly and surfaced as a generic failure.
func writeServiceError(w http.ResponseWriter, err error) {
	code := service.Code(err)
	switch code {
	case service.ErrOutOfStock:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "no copy available", "code": string(code)})
	case service.ErrDuplicateLoan:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "borrower already holds this title", "code": string(code)})
	case service.ErrAlreadyHeld:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "a pending hold already exists", "code": string(code)})
	case service.ErrHoldNotPending:
		writeJSON(w, http.StatusConflict, map[string]string{"error": "hold is no longer pending", "code": string(code)})
	case service.ErrNotFound:
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found", "code": string(code)})
	case service.ErrStoreUnavailable:
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "temporarily unavailable, retry", "code": string(code)})
	case service.ErrInvariantViolation:
		log.Printf("handlers: invariant violation: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	default:
		log.Printf("handlers: unexpected error: %v", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}
