package service

import (
	"context"
	"log"

	"github.com/openshelf/circulation/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InventoryStore is the slice of the document store the ledger needs. The
// bool results report whether the guarded update matched its filter; the
// store applies guard and write atomically.
type InventoryStore interface {
	BookByISBN(ctx context.Context, isbn13, libraryID string) (*models.Book, error)
	ReserveCopy(ctx context.Context, isbn13, libraryID string) (bool, error)
	ReleaseCopy(ctx context.Context, isbn13, libraryID string) (bool, error)
	IncrementCheckouts(ctx context.Context, isbn13, libraryID string) (bool, error)
	AddCopies(ctx context.Context, isbn13, libraryID string, n int64) (bool, error)
	DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error)
}

// Inventory owns the per-title copy counts and keeps them in bounds. All
// mutation goes through the store's conditional updates; this type only
// interprets the outcome.
type Inventory struct {
	store InventoryStore
}

func NewInventory(store InventoryStore) *Inventory {
	return &Inventory{store: store}
}

// ReserveCopy takes one copy off the shelf. Returns ErrOutOfStock when no
// copy is available and ErrNotFound when the title does not exist.
func (inv *Inventory) ReserveCopy(ctx context.Context, isbn13, libraryID string) error {
	ok, err := inv.store.ReserveCopy(ctx, isbn13, libraryID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if ok {
		return nil
	}
	return inv.classifyGuardMiss(ctx, isbn13, libraryID, ErrOutOfStock)
}

// ReleaseCopy puts one copy back. A release that would exceed quantity means
// an earlier double-release or lost update; that is reported as
// ErrInvariantViolation, never silently clamped away.
func (inv *Inventory) ReleaseCopy(ctx context.Context, isbn13, libraryID string) error {
	ok, err := inv.store.ReleaseCopy(ctx, isbn13, libraryID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if ok {
		return nil
	}
	err = inv.classifyGuardMiss(ctx, isbn13, libraryID, ErrInvariantViolation)
	if Code(err) == ErrInvariantViolation {
		log.Printf("inventory: release would exceed quantity for %s@%s", isbn13, libraryID)
	}
	return err
}

// IncrementCheckoutCounter bumps the lifetime totalCheckouts counter. It is
// independent of availability and never fails on capacity.
func (inv *Inventory) IncrementCheckoutCounter(ctx context.Context, isbn13, libraryID string) error {
	ok, err := inv.store.IncrementCheckouts(ctx, isbn13, libraryID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if !ok {
		return makeErr(ErrNotFound, "title "+isbn13+" at "+libraryID)
	}
	return nil
}

// AddCopies grows quantity and availableQuantity by n.
func (inv *Inventory) AddCopies(ctx context.Context, isbn13, libraryID string, n int64) error {
	if n <= 0 {
		return makeErr(ErrInvariantViolation, "addCopies requires n > 0")
	}
	ok, err := inv.store.AddCopies(ctx, isbn13, libraryID, n)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if !ok {
		return makeErr(ErrNotFound, "title "+isbn13+" at "+libraryID)
	}
	return nil
}

func (inv *Inventory) RemoveTitle(ctx context.Context, id primitive.ObjectID) error {
	ok, err := inv.store.DeleteBook(ctx, id)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if !ok {
		return makeErr(ErrNotFound, "title "+id.Hex())
	}
	return nil
}

// classifyGuardMiss decides whether a failed guard means the row is missing
// or the guard condition failed. The follow-up read is advisory; the guard
// itself is what prevented the write.
func (inv *Inventory) classifyGuardMiss(ctx context.Context, isbn13, libraryID string, guardCode ErrCode) error {
	book, err := inv.store.BookByISBN(ctx, isbn13, libraryID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if book == nil {
		return makeErr(ErrNotFound, "title "+isbn13+" at "+libraryID)
	}
	return makeErr(guardCode, "title "+isbn13+" at "+libraryID)
}
