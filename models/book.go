package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Display labels for a title's stock status. Derived from availableQuantity;
// maintained in the same atomic update that changes the counts.
const (
	StatusAvailable = "available"
	StatusBorrowed  = "borrowed"
)

// Book is one catalogued title at one library, with its copy inventory
// embedded. A given ISBN may appear once per library (the catalog is
// library-scoped, not global). Metadata is immutable once added except the
// cover reference.
type Book struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LibraryID     string             `bson:"libraryId" json:"libraryId"`
	Title         string             `bson:"title" json:"title"`
	Authors       []string           `bson:"authors,omitempty" json:"authors,omitempty"`
	Publisher     string             `bson:"publisher,omitempty" json:"publisher,omitempty"`
	PublishedDate string             `bson:"publishedDate,omitempty" json:"publishedDate,omitempty"`
	Description   string             `bson:"description,omitempty" json:"description,omitempty"`
	PageCount     int                `bson:"pageCount,omitempty" json:"pageCount,omitempty"`
	Categories    []string           `bson:"categories,omitempty" json:"categories,omitempty"`
	CoverImageRef string             `bson:"coverImageRef,omitempty" json:"coverImageRef,omitempty"`
	ISBN13        string             `bson:"isbn13" json:"isbn13"`
	Language      string             `bson:"language,omitempty" json:"language,omitempty"`

	// Inventory counters. Invariant: 0 <= AvailableQuantity <= Quantity and
	// CurrentlyBorrowed == Quantity - AvailableQuantity after every mutation.
	Quantity          int64 `bson:"quantity" json:"quantity"`
	AvailableQuantity int64 `bson:"availableQuantity" json:"availableQuantity"`
	CurrentlyBorrowed int64 `bson:"currentlyBorrowed" json:"currentlyBorrowed"`
	// TotalCheckouts is a monotonic lifetime demand counter; it increments on
	// every successful issue and on every successful pre-booking.
	TotalCheckouts int64  `bson:"totalCheckouts" json:"totalCheckouts"`
	Status         string `bson:"status" json:"status"`

	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}
