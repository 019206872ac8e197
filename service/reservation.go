package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/circulation/config"
	"github.com/openshelf/circulation/models"
	"github.com/openshelf/circulation/store"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HoldStore is the slice of the document store the reservation manager needs.
type HoldStore interface {
	InsertHold(ctx context.Context, hold *models.PreBooking) (primitive.ObjectID, error)
	HoldByID(ctx context.Context, id primitive.ObjectID) (*models.PreBooking, error)
	PendingHoldExists(ctx context.Context, email, isbn13, libraryID string) (bool, error)
	CountPendingHolds(ctx context.Context, isbn13, libraryID string) (int64, error)
	TransitionHold(ctx context.Context, id primitive.ObjectID, from, to models.HoldStatus) (bool, error)
	QueryHolds(ctx context.Context, email string, status models.HoldStatus) ([]models.PreBooking, error)
}

// Reservation creates, confirms and expires pre-booking holds.
//
// Creating a hold does not take a copy off the shelf: availableQuantity is
// untouched until a librarian confirms and issues. Expiry therefore has no
// inventory to release.
type Reservation struct {
	inv   *Inventory
	holds HoldStore
	books interface {
		BookByISBN(ctx context.Context, isbn13, libraryID string) (*models.Book, error)
	}

	holdWindow time.Duration
	policy     config.HoldPolicy
	now        func() time.Time
}

func NewReservation(inv *Inventory, holds HoldStore, books InventoryStore, holdWindow time.Duration, policy config.HoldPolicy) *Reservation {
	return &Reservation{
		inv:        inv,
		holds:      holds,
		books:      books,
		holdWindow: holdWindow,
		policy:     policy,
		now:        time.Now,
	}
}

// CreateHold places a Pending hold for the user. The steps run in the same
// order the views chain them: existing-hold check, capacity check, hold
// write, checkout counter increment.
func (r *Reservation) CreateHold(ctx context.Context, isbn13, libraryID, userEmail string) (*models.PreBooking, error) {
	exists, err := r.holds.PendingHoldExists(ctx, userEmail, isbn13, libraryID)
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	if exists {
		return nil, makeErr(ErrAlreadyHeld, userEmail+" already holds "+isbn13)
	}

	book, err := r.books.BookByISBN(ctx, isbn13, libraryID)
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	if book == nil {
		return nil, makeErr(ErrNotFound, "title "+isbn13+" at "+libraryID)
	}
	if err := r.checkCapacity(ctx, book); err != nil {
		return nil, err
	}

	now := r.now().UTC()
	hold := &models.PreBooking{
		HoldRef:   uuid.New().String(),
		ISBN13:    isbn13,
		UserEmail: userEmail,
		LibraryID: libraryID,
		CreatedAt: now,
		ExpiresAt: now.Add(r.holdWindow),
		Status:    models.HoldPending,
	}
	id, err := r.holds.InsertHold(ctx, hold)
	if errors.Is(err, store.ErrDuplicatePendingHold) {
		// Two requests raced past the existence check; the index kept one.
		return nil, makeErr(ErrAlreadyHeld, userEmail+" already holds "+isbn13)
	}
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	hold.ID = id

	// Demand counter; the hold stands even if the increment fails.
	if err := r.inv.IncrementCheckoutCounter(ctx, isbn13, libraryID); err != nil {
		log.Printf("reservation: totalCheckouts increment failed for %s@%s: %v", isbn13, libraryID, err)
	}
	return hold, nil
}

// checkCapacity applies the configured hold admission policy.
//
// The legacy comparison (totalCheckouts >= availableQuantity) is what the
// original application ships: it measures lifetime demand against live
// stock, so a popular title eventually rejects all holds even with copies on
// the shelf. It is preserved verbatim as the default; the strict policy is
// the corrected live-capacity check.
func (r *Reservation) checkCapacity(ctx context.Context, book *models.Book) error {
	switch r.policy {
	case config.HoldPolicyStrict:
		pending, err := r.holds.CountPendingHolds(ctx, book.ISBN13, book.LibraryID)
		if err != nil {
			return makeErr(ErrStoreUnavailable, err.Error())
		}
		if book.CurrentlyBorrowed+pending >= book.Quantity {
			return makeErr(ErrOutOfStock, "no holdable copy of "+book.ISBN13)
		}
	default: // legacy
		if book.TotalCheckouts >= book.AvailableQuantity {
			return makeErr(ErrOutOfStock, "no holdable copy of "+book.ISBN13)
		}
	}
	return nil
}

// Confirm transitions a Pending hold to Confirmed. It does not create a
// loan; callers chain Circulation.Issue when the patron collects the copy.
func (r *Reservation) Confirm(ctx context.Context, holdID primitive.ObjectID) error {
	hold, err := r.holds.HoldByID(ctx, holdID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if hold == nil {
		return makeErr(ErrNotFound, "hold "+holdID.Hex())
	}
	ok, err := r.holds.TransitionHold(ctx, holdID, models.HoldPending, models.HoldConfirmed)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if !ok {
		// Lost a race or the hold was already terminal.
		hold, err = r.holds.HoldByID(ctx, holdID)
		if err != nil {
			return makeErr(ErrStoreUnavailable, err.Error())
		}
		if hold != nil && hold.Status == models.HoldConfirmed {
			return nil
		}
		return makeErr(ErrHoldNotPending, "hold "+holdID.Hex())
	}
	return nil
}

// Expire transitions a Pending hold past its deadline to TimeOver. No-op
// for holds that are not yet due, already terminal, or concurrently
// transitioned — expiry is idempotent and safe to retry. Confirmed holds
// are never expired.
func (r *Reservation) Expire(ctx context.Context, holdID primitive.ObjectID) error {
	hold, err := r.holds.HoldByID(ctx, holdID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if hold == nil {
		return makeErr(ErrNotFound, "hold "+holdID.Hex())
	}
	if hold.Status != models.HoldPending || !hold.Expired(r.now().UTC()) {
		return nil
	}
	if _, err := r.holds.TransitionHold(ctx, holdID, models.HoldPending, models.HoldTimeOver); err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Holds lists holds by user email and/or status; empty filters list all.
func (r *Reservation) Holds(ctx context.Context, email string, status models.HoldStatus) ([]models.PreBooking, error) {
	holds, err := r.holds.QueryHolds(ctx, email, status)
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	return holds, nil
}
