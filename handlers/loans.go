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

type LoansHandler struct {
	Circulation *service.Circulation
}

type IssueRequest struct {
	ISBN13         string `json:"isbn13"`
	LibraryID      string `json:"libraryId"`
	BorrowerEmail  string `json:"borrowerEmail"`
	LoanPeriodDays int    `json:"loanPeriodDays"`
}

// Issue lends a copy to a borrower. Admin (librarian) only.
func (h *LoansHandler) Issue(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	var req IssueRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.ISBN13 == "" || req.LibraryID == "" || req.BorrowerEmail == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "isbn13, libraryId and borrowerEmail required"})
		return
	}
	loan, err := h.Circulation.Issue(r.Context(), req.ISBN13, req.LibraryID, req.BorrowerEmail, req.LoanPeriodDays)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, loan)
}

// Return marks a loan returned. Idempotent; a duplicate request succeeds
// without releasing a second copy. Admin only.
func (h *LoansHandler) Return(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid loan id"})
		return
	}
	if err := h.Circulation.Return(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// List shows loans. Admins may filter by any borrower email; other callers
// only see their own.
func (h *LoansHandler) List(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		email = middleware.EmailFromContext(r.Context())
	}
	loans, err := h.Circulation.Loans(r.Context(), email, models.LoanStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if loans == nil {
		loans = []models.IssuedBook{}
	}
	writeJSON(w, http.StatusOK, loans)
}
