package store

import (
	"context"
	"errors"
	"time"

	"github.com/openshelf/circulation/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicatePendingHold is returned by InsertHold when the partial unique
// index rejects a second Pending hold for the same (userEmail, isbn13,
// libraryId) tuple.
var ErrDuplicatePendingHold = errors.New("duplicate pending hold")

func (db *DB) InsertHold(ctx context.Context, hold *models.PreBooking) (primitive.ObjectID, error) {
	res, err := db.PreBookings().InsertOne(ctx, hold)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicatePendingHold
	}
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) HoldByID(ctx context.Context, id primitive.ObjectID) (*models.PreBooking, error) {
	var hold models.PreBooking
	err := db.PreBookings().FindOne(ctx, bson.M{"_id": id}).Decode(&hold)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &hold, nil
}

func (db *DB) PendingHoldExists(ctx context.Context, email, isbn13, libraryID string) (bool, error) {
	n, err := db.PreBookings().CountDocuments(ctx, bson.M{
		"userEmail": email,
		"isbn13":    isbn13,
		"libraryId": libraryID,
		"status":    models.HoldPending,
	})
	return n > 0, err
}

func (db *DB) CountPendingHolds(ctx context.Context, isbn13, libraryID string) (int64, error) {
	return db.PreBookings().CountDocuments(ctx, bson.M{
		"isbn13":    isbn13,
		"libraryId": libraryID,
		"status":    models.HoldPending,
	})
}

// TransitionHold moves a hold from one status to another. The from-status
// guard is the compare-and-swap: an expire racing a confirm on the same row
// cannot both apply.
func (db *DB) TransitionHold(ctx context.Context, id primitive.ObjectID, from, to models.HoldStatus) (bool, error) {
	res, err := db.PreBookings().UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// QueryHolds lists holds filtered by user email and/or status; empty
// arguments are ignored.
func (db *DB) QueryHolds(ctx context.Context, email string, status models.HoldStatus) ([]models.PreBooking, error) {
	filter := bson.M{}
	if email != "" {
		filter["userEmail"] = email
	}
	if status != "" {
		filter["status"] = status
	}
	cur, err := db.PreBookings().Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var holds []models.PreBooking
	if err := cur.All(ctx, &holds); err != nil {
		return nil, err
	}
	return holds, nil
}

func (db *DB) ExpiredPendingHolds(ctx context.Context, now time.Time) ([]models.PreBooking, error) {
	cur, err := db.PreBookings().Find(ctx, bson.M{
		"status":    models.HoldPending,
		"expiresAt": bson.M{"$lt": now},
	}, options.Find().SetSort(bson.M{"expiresAt": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var holds []models.PreBooking
	if err := cur.All(ctx, &holds); err != nil {
		return nil, err
	}
	return holds, nil
}
