package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/circulation/middleware"
	"github.com/openshelf/circulation/models"
	"github.com/openshelf/circulation/service"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HoldsHandler struct {
	Reservation *service.Reservation
}

type CreateHoldRequest struct {
	ISBN13    string `json:"isbn13"`
	LibraryID string `json:"libraryId"`
}

// Create places a pre-booking hold for the calling user.
func (h *HoldsHandler) Create(w http.ResponseWriter, r *http.Request) {
	email := middleware.EmailFromContext(r.Context())
	if email == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	var req CreateHoldRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ISBN13 == "" || req.LibraryID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "isbn13 and libraryId required"})
		return
	}
	hold, err := h.Reservation.CreateHold(r.Context(), req.ISBN13, req.LibraryID, email)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, hold)
}

// Confirm marks a hold as collected. It does not issue the copy; the client
// follows up with POST /api/loans. Admin only.
func (h *HoldsHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid hold id"})
		return
	}
	if err := h.Reservation.Confirm(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List shows holds. Admins may filter by any user email; other callers only
// see their own.
func (h *HoldsHandler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		email = middleware.EmailFromContext(r.Context())
	}
	holds, err := h.Reservation.Holds(r.Context(), email, models.HoldStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if holds == nil {
		holds = []models.PreBooking{}
	}
	writeJSON(w, http.StatusOK, holds)
}
