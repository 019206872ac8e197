package service

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/openshelf/circulation/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LoanStore is the slice of the document store the circulation manager needs.
type LoanStore interface {
	InsertLoan(ctx context.Context, loan *models.IssuedBook) (primitive.ObjectID, error)
	LoanByID(ctx context.Context, id primitive.ObjectID) (*models.IssuedBook, error)
	ActiveLoanExists(ctx context.Context, email, isbn13, libraryID string) (bool, error)
	MarkReturned(ctx context.Context, id primitive.ObjectID, returnedAt time.Time) (bool, error)
	ReopenLoan(ctx context.Context, id primitive.ObjectID) (bool, error)
	MarkOverdue(ctx context.Context, id primitive.ObjectID, fine int64) (bool, error)
	QueryLoans(ctx context.Context, email string, status models.LoanStatus) ([]models.IssuedBook, error)
}

// Circulation issues and returns copies against the inventory ledger and
// computes overdue fines.
type Circulation struct {
	inv   *Inventory
	loans LoanStore

	loanPeriodDays int
	lateFeePerDay  int64
	now            func() time.Time
}

func NewCirculation(inv *Inventory, loans LoanStore, loanPeriodDays int, lateFeePerDay int64) *Circulation {
	return &Circulation{
		inv:            inv,
		loans:          loans,
		loanPeriodDays: loanPeriodDays,
		lateFeePerDay:  lateFeePerDay,
		now:            time.Now,
	}
}

// Issue lends one copy to the borrower. loanPeriodDays <= 0 falls back to
// the configured default. A borrower may not hold the same title twice
// unreturned; issuing N copies of one title needs N distinct borrowers.
func (c *Circulation) Issue(ctx context.Context, isbn13, libraryID, borrowerEmail string, loanPeriodDays int) (*models.IssuedBook, error) {
	held, err := c.loans.ActiveLoanExists(ctx, borrowerEmail, isbn13, libraryID)
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	if held {
		return nil, makeErr(ErrDuplicateLoan, borrowerEmail+" already holds "+isbn13)
	}

	if err := c.inv.ReserveCopy(ctx, isbn13, libraryID); err != nil {
		return nil, err
	}

	if loanPeriodDays <= 0 {
		loanPeriodDays = c.loanPeriodDays
	}
	now := c.now().UTC()
	loan := &models.IssuedBook{
		LoanRef:       uuid.New().String(),
		ISBN13:        isbn13,
		LibraryID:     libraryID,
		BorrowerEmail: borrowerEmail,
		IssueDate:     now,
		DueDate:       now.AddDate(0, 0, loanPeriodDays),
		Fine:          0,
		Status:        models.LoanBorrowed,
	}
	id, err := c.loans.InsertLoan(ctx, loan)
	if err != nil {
		// Put the copy back so the ledger invariant survives a failed insert.
		if relErr := c.inv.ReleaseCopy(ctx, isbn13, libraryID); relErr != nil {
			log.Printf("circulation: compensating release failed for %s@%s: %v", isbn13, libraryID, relErr)
		}
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	loan.ID = id

	// Analytics counter; a failure here does not undo the loan.
	if err := c.inv.IncrementCheckoutCounter(ctx, isbn13, libraryID); err != nil {
		log.Printf("circulation: totalCheckouts increment failed for %s@%s: %v", isbn13, libraryID, err)
	}
	return loan, nil
}

// Return marks the loan returned and releases the copy. Idempotent and
// retryable: a second return of the same loan is a no-op success, the guarded
// status transition ensures the copy is released exactly once, and a failed
// release reopens the loan so a retry runs the whole return again.
func (c *Circulation) Return(ctx context.Context, loanID primitive.ObjectID) error {
	loan, err := c.loans.LoanByID(ctx, loanID)
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if loan == nil {
		return makeErr(ErrNotFound, "loan "+loanID.Hex())
	}
	transitioned, err := c.loans.MarkReturned(ctx, loanID, c.now().UTC())
	if err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	if !transitioned {
		// Already returned, possibly by a concurrent request.
		return nil
	}
	if err := c.inv.ReleaseCopy(ctx, loan.ISBN13, loan.LibraryID); err != nil {
		// Undo the transition, otherwise the retry would hit the no-op
		// branch above and the copy would stay off the shelf forever.
		if ok, revErr := c.loans.ReopenLoan(ctx, loanID); revErr != nil || !ok {
			log.Printf("circulation: loan %s marked returned but copy %s@%s not released: %v",
				loanID.Hex(), loan.ISBN13, loan.LibraryID, err)
		}
		return err
	}
	return nil
}

// MarkOverdueAsOf persists Overdue status and the recomputed fine for one
// loan. The status flips as soon as asOf passes the due date, even while the
// fine is still zero for the first partial day. The guarded update skips
// loans returned in the meantime, so it is safe to call from the periodic
// sweep at any time.
func (c *Circulation) MarkOverdueAsOf(ctx context.Context, loan *models.IssuedBook, asOf time.Time) error {
	if !asOf.After(loan.DueDate) {
		return nil
	}
	fine := ComputeFine(loan, asOf, c.lateFeePerDay)
	if _, err := c.loans.MarkOverdue(ctx, loan.ID, fine); err != nil {
		return makeErr(ErrStoreUnavailable, err.Error())
	}
	return nil
}

// Loans lists loans by borrower email and/or status; empty filters list all.
func (c *Circulation) Loans(ctx context.Context, email string, status models.LoanStatus) ([]models.IssuedBook, error) {
	loans, err := c.loans.QueryLoans(ctx, email, status)
	if err != nil {
		return nil, makeErr(ErrStoreUnavailable, err.Error())
	}
	return loans, nil
}

// ComputeFine is pure: it derives the fine owed at asOf without touching
// stored state, so it can run on every read. Returned loans owe nothing;
// an unreturned loan owes lateFeePerDay per full day past due.
func ComputeFine(loan *models.IssuedBook, asOf time.Time, lateFeePerDay int64) int64 {
	if loan.Status == models.LoanReturned {
		return 0
	}
	end := asOf
	if loan.ReturnDate != nil && loan.ReturnDate.Before(asOf) {
		end = *loan.ReturnDate
	}
	if !end.After(loan.DueDate) {
		return 0
	}
	days := int64(end.Sub(loan.DueDate) / (24 * time.Hour))
	return lateFeePerDay * days
}
