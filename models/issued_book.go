package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LoanStatus string

const (
	LoanBorrowed LoanStatus = "Borrowed"
	LoanReturned LoanStatus = "Returned"
	LoanOverdue  LoanStatus = "Overdue"
)

// IssuedBook is one active or historical loan. Rows are never deleted; a
// return flips the status and the record stays as the audit trail.
type IssuedBook struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LoanRef       string             `bson:"loanRef" json:"loanRef"`
	ISBN13        string             `bson:"isbn13" json:"isbn13"`
	LibraryID     string             `bson:"libraryId" json:"libraryId"`
	BorrowerEmail string             `bson:"email" json:"email"`
	IssueDate     time.Time          `bson:"issueDate" json:"issueDate"`
	DueDate       time.Time          `bson:"dueDate" json:"dueDate"`
	ReturnDate    *time.Time         `bson:"returnDate,omitempty" json:"returnDate,omitempty"`
	Fine          int64              `bson:"fine" json:"fine"`
	Status        LoanStatus         `bson:"status" json:"status"`
}

// Active reports whether the loan still holds a copy.
func (b *IssuedBook) Active() bool {
	return b.Status == LoanBorrowed || b.Status == LoanOverdue
}
