package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type HoldStatus string

const (
	HoldPending   HoldStatus = "Pending"
	HoldConfirmed HoldStatus = "Confirmed"
	HoldTimeOver  HoldStatus = "TimeOver"
)

// PreBooking is a time-boxed reservation hold on a title at one library.
// Pending -> Confirmed (librarian) and Pending -> TimeOver (sweeper) are the
// only transitions; both end states are terminal. At most one Pending hold
// may exist per (userEmail, isbn13, libraryId).
//
// A Pending hold does not decrement availableQuantity, so it does not keep
// the copy from being issued to someone else before confirmation. That
// matches the original application; expiry therefore releases no inventory.
type PreBooking struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	HoldRef   string             `bson:"holdRef" json:"holdRef"`
	ISBN13    string             `bson:"isbn13" json:"isbn13"`
	UserEmail string             `bson:"userEmail" json:"userEmail"`
	LibraryID string             `bson:"libraryId" json:"libraryId"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	ExpiresAt time.Time          `bson:"expiresAt" json:"expiresAt"`
	Status    HoldStatus         `bson:"status" json:"status"`
}

// Expired reports whether the hold window has passed at the given instant.
func (p *PreBooking) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
