package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/openshelf/circulation/models"
	"github.com/openshelf/circulation/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory stand-in for the Mongo store. Every guarded
// update takes the mutex for the whole check-and-write, mirroring the
// atomicity of a conditional document update, so the concurrency tests
// exercise the same semantics the real store provides.
type memStore struct {
	mu    sync.Mutex
	books map[string]*models.Book
	loans map[primitive.ObjectID]*models.IssuedBook
	holds map[primitive.ObjectID]*models.PreBooking

	failInsertLoan  bool
	failReleaseOnce bool // next ReleaseCopy errors, then clears
	failHoldID      primitive.ObjectID // HoldByID errors for this id
}

func newMemStore() *memStore {
	return &memStore{
		books: make(map[string]*models.Book),
		loans: make(map[primitive.ObjectID]*models.IssuedBook),
		holds: make(map[primitive.ObjectID]*models.PreBooking),
	}
}

func bookKey(isbn13, libraryID string) string { return isbn13 + "|" + libraryID }

func (m *memStore) addBook(b *models.Book) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b.ID.IsZero() {
		b.ID = primitive.NewObjectID()
	}
	m.books[bookKey(b.ISBN13, b.LibraryID)] = b
}

// ----- InventoryStore -----

func (m *memStore) BookByISBN(_ context.Context, isbn13, libraryID string) (*models.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookKey(isbn13, libraryID)]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}

func (m *memStore) ReserveCopy(_ context.Context, isbn13, libraryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookKey(isbn13, libraryID)]
	if !ok || b.AvailableQuantity <= 0 {
		return false, nil
	}
	b.AvailableQuantity--
	b.CurrentlyBorrowed++
	if b.AvailableQuantity > 0 {
		b.Status = models.StatusAvailable
	} else {
		b.Status = models.StatusBorrowed
	}
	return true, nil
}

func (m *memStore) ReleaseCopy(_ context.Context, isbn13, libraryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failReleaseOnce {
		m.failReleaseOnce = false
		return false, errors.New("injected release failure")
	}
	b, ok := m.books[bookKey(isbn13, libraryID)]
	if !ok || b.CurrentlyBorrowed <= 0 {
		return false, nil
	}
	b.AvailableQuantity++
	b.CurrentlyBorrowed--
	b.Status = models.StatusAvailable
	return true, nil
}

func (m *memStore) IncrementCheckouts(_ context.Context, isbn13, libraryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookKey(isbn13, libraryID)]
	if !ok {
		return false, nil
	}
	b.TotalCheckouts++
	return true, nil
}

func (m *memStore) AddCopies(_ context.Context, isbn13, libraryID string, n int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.books[bookKey(isbn13, libraryID)]
	if !ok {
		return false, nil
	}
	b.Quantity += n
	b.AvailableQuantity += n
	b.Status = models.StatusAvailable
	return true, nil
}

func (m *memStore) DeleteBook(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k, b := range m.books {
		if b.ID == id {
			delete(m.books, k)
			return true, nil
		}
	}
	return false, nil
}

// ----- LoanStore -----

func (m *memStore) InsertLoan(_ context.Context, loan *models.IssuedBook) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsertLoan {
		return primitive.NilObjectID, errors.New("injected insert failure")
	}
	id := primitive.NewObjectID()
	cp := *loan
	cp.ID = id
	m.loans[id] = &cp
	return id, nil
}

func (m *memStore) LoanByID(_ context.Context, id primitive.ObjectID) (*models.IssuedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok {
		return nil, nil
	}
	cp := *loan
	return &cp, nil
}

func (m *memStore) ActiveLoanExists(_ context.Context, email, isbn13, libraryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, loan := range m.loans {
		if loan.BorrowerEmail == email && loan.ISBN13 == isbn13 && loan.LibraryID == libraryID && loan.Active() {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) MarkReturned(_ context.Context, id primitive.ObjectID, returnedAt time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok || !loan.Active() {
		return false, nil
	}
	loan.Status = models.LoanReturned
	loan.ReturnDate = &returnedAt
	return true, nil
}

func (m *memStore) ReopenLoan(_ context.Context, id primitive.ObjectID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok || loan.Status != models.LoanReturned {
		return false, nil
	}
	loan.Status = models.LoanBorrowed
	loan.ReturnDate = nil
	return true, nil
}

func (m *memStore) MarkOverdue(_ context.Context, id primitive.ObjectID, fine int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	loan, ok := m.loans[id]
	if !ok || !loan.Active() {
		return false, nil
	}
	loan.Status = models.LoanOverdue
	loan.Fine = fine
	return true, nil
}

func (m *memStore) QueryLoans(_ context.Context, email string, status models.LoanStatus) ([]models.IssuedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IssuedBook
	for _, loan := range m.loans {
		if email != "" && loan.BorrowerEmail != email {
			continue
		}
		if status != "" && loan.Status != status {
			continue
		}
		out = append(out, *loan)
	}
	return out, nil
}

func (m *memStore) OverdueCandidates(_ context.Context, asOf time.Time) ([]models.IssuedBook, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.IssuedBook
	for _, loan := range m.loans {
		if loan.Active() && loan.DueDate.Before(asOf) {
			out = append(out, *loan)
		}
	}
	return out, nil
}

// ----- HoldStore / SweepSource -----

func (m *memStore) InsertHold(_ context.Context, hold *models.PreBooking) (primitive.ObjectID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holds {
		if h.UserEmail == hold.UserEmail && h.ISBN13 == hold.ISBN13 && h.LibraryID == hold.LibraryID && h.Status == models.HoldPending {
			return primitive.NilObjectID, store.ErrDuplicatePendingHold
		}
	}
	id := primitive.NewObjectID()
	cp := *hold
	cp.ID = id
	m.holds[id] = &cp
	return id, nil
}

func (m *memStore) HoldByID(_ context.Context, id primitive.ObjectID) (*models.PreBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if id == m.failHoldID {
		return nil, errors.New("injected read failure")
	}
	hold, ok := m.holds[id]
	if !ok {
		return nil, nil
	}
	cp := *hold
	return &cp, nil
}

func (m *memStore) PendingHoldExists(_ context.Context, email, isbn13, libraryID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, h := range m.holds {
		if h.UserEmail == email && h.ISBN13 == isbn13 && h.LibraryID == libraryID && h.Status == models.HoldPending {
			return true, nil
		}
	}
	return false, nil
}

func (m *memStore) CountPendingHolds(_ context.Context, isbn13, libraryID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, h := range m.holds {
		if h.ISBN13 == isbn13 && h.LibraryID == libraryID && h.Status == models.HoldPending {
			n++
		}
	}
	return n, nil
}

func (m *memStore) TransitionHold(_ context.Context, id primitive.ObjectID, from, to models.HoldStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	hold, ok := m.holds[id]
	if !ok || hold.Status != from {
		return false, nil
	}
	hold.Status = to
	return true, nil
}

func (m *memStore) QueryHolds(_ context.Context, email string, status models.HoldStatus) ([]models.PreBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PreBooking
	for _, h := range m.holds {
		if email != "" && h.UserEmail != email {
			continue
		}
		if status != "" && h.Status != status {
			continue
		}
		out = append(out, *h)
	}
	return out, nil
}

func (m *memStore) ExpiredPendingHolds(_ context.Context, now time.Time) ([]models.PreBooking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.PreBooking
	for _, h := range m.holds {
		if h.Status == models.HoldPending && h.ExpiresAt.Before(now) {
			out = append(out, *h)
		}
	}
	return out, nil
}
