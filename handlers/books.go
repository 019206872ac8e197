package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/openshelf/circulation/middleware"
	"github.com/openshelf/circulation/models"
	"github.com/openshelf/circulation/service"
	"github.com/openshelf/circulation/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type BooksHandler struct {
	DB        *store.DB
	Catalog   *service.CatalogClient
	Inventory *service.Inventory
}

type AddBookRequest struct {
	ISBN13    string `json:"isbn13"`
	Query     string `json:"query"`
	LibraryID string `json:"libraryId"`
	Quantity  int64  `json:"quantity"`
}

// Add creates a Title+Inventory row for one library, populating the catalog
// metadata from the lookup service. Admin only.
func (h *BooksHandler) Add(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	var req AddBookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if req.LibraryID == "" || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "libraryId and positive quantity required"})
		return
	}

	var vol *service.CatalogVolume
	var err error
	switch {
	case req.ISBN13 != "":
		vol, err = h.Catalog.LookupISBN(req.ISBN13)
	case req.Query != "":
		vol, err = h.Catalog.Search(req.Query)
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "isbn13 or query required"})
		return
	}
	if err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "catalog lookup failed: " + err.Error()})
		return
	}
	if vol.ISBN13 == "" {
		vol.ISBN13 = req.ISBN13
	}
	if vol.ISBN13 == "" {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": "catalog volume has no ISBN-13"})
		return
	}

	existing, err := h.DB.BookByISBN(r.Context(), vol.ISBN13, req.LibraryID)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add book"})
		return
	}
	if existing != nil {
		writeJSON(w, http.StatusConflict, map[string]string{"error": "title already in this library's catalog"})
		return
	}

	book := &models.Book{
		LibraryID:         req.LibraryID,
		Title:             vol.Title,
		Authors:           vol.Authors,
		Publisher:         vol.Publisher,
		PublishedDate:     vol.PublishedDate,
		Description:       vol.Description,
		PageCount:         vol.PageCount,
		Categories:        vol.Categories,
		CoverImageRef:     vol.CoverImageURL,
		ISBN13:            vol.ISBN13,
		Language:          vol.Language,
		Quantity:          req.Quantity,
		AvailableQuantity: req.Quantity,
		CurrentlyBorrowed: 0,
		TotalCheckouts:    0,
		Status:            models.StatusAvailable,
		CreatedAt:         time.Now().UTC(),
	}
	id, err := h.DB.InsertBook(r.Context(), book)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to add book"})
		return
	}
	book.ID = id
	writeJSON(w, http.StatusCreated, book)
}

func (h *BooksHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.DB.BooksByLibrary(r.Context(), r.URL.Query().Get("libraryId"))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list books"})
		return
	}
	if books == nil {
		books = []models.Book{}
	}
	writeJSON(w, http.StatusOK, books)
}

func (h *BooksHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book id"})
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load book"})
		return
	}
	if book == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not found"})
		return
	}
	writeJSON(w, http.StatusOK, book)
}

type AddCopiesRequest struct {
	N int64 `json:"n"`
}

// AddCopies grows a title's owned and available counts. Admin only.
func (h *BooksHandler) AddCopies(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book id"})
		return
	}
	var req AddCopiesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.N <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "positive n required"})
		return
	}
	book, err := h.DB.BookByID(r.Context(), id)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load book"})
		return
	}
	if book == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "book not found"})
		return
	}
	if err := h.Inventory.AddCopies(r.Context(), book.ISBN13, book.LibraryID, req.N); err != nil {
		writeServiceError(w, err)
		return
	}
	book, err = h.DB.BookByID(r.Context(), id)
	if err != nil || book == nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load book"})
		return
	}
	writeJSON(w, http.StatusOK, book)
}

// Delete removes a title from the catalog. Admin only.
func (h *BooksHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if middleware.RoleFromContext(r.Context()) != models.RoleAdmin {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "admin only"})
		return
	}
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid book id"})
		return
	}
	if err := h.Inventory.RemoveTitle(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
