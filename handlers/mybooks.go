package handlers

import (
	"net/http"
	"time"

	"github.com/openshelf/circulation/middleware"
	"github.com/openshelf/circulation/models"
	"github.com/openshelf/circulation/service"
)

type MyBooksHandler struct {
	Circulation   *service.Circulation
	Reservation   *service.Reservation
	LateFeePerDay int64
}

// MyBooksResponse unions the caller's loans and holds, the shape the
// my-books screen aggregates.
type MyBooksResponse struct {
	Loans []LoanView          `json:"loans"`
	Holds []models.PreBooking `json:"holds"`
}

// LoanView decorates a loan with the fine as of now, computed on read so the
// figure is current even between sweeps.
type LoanView struct {
	models.IssuedBook
	CurrentFine int64 `json:"currentFine"`
}

func (h *MyBooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	email := middleware.EmailFromContext(r.Context())
	if email == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	loans, err := h.Circulation.Loans(r.Context(), email, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}
	holds, err := h.Reservation.Holds(r.Context(), email, "")
	if err != nil {
		writeServiceError(w, err)
		return
	}

	now := time.Now().UTC()
	views := make([]LoanView, 0, len(loans))
	for i := range loans {
		views = append(views, LoanView{
			IssuedBook:  loans[i],
			CurrentFine: service.ComputeFine(&loans[i], now, h.LateFeePerDay),
		})
	}
	if holds == nil {
		holds = []models.PreBooking{}
	}
	writeJSON(w, http.StatusOK, MyBooksResponse{Loans: views, Holds: holds})
}
