package store

import (
	"context"

	"github.com/openshelf/circulation/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Inventory mutations are single conditional updates: the guard filter and
// the write apply as one atomic unit on the document, so two racing calls
// can never both succeed past a count boundary. The bool result reports
// whether the guard matched; callers distinguish "guard failed" from "row
// missing" with a follow-up read.

func (db *DB) InsertBook(ctx context.Context, book *models.Book) (primitive.ObjectID, error) {
	res, err := db.Books().InsertOne(ctx, book)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) BookByID(ctx context.Context, id primitive.ObjectID) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"_id": id}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) BookByISBN(ctx context.Context, isbn13, libraryID string) (*models.Book, error) {
	var book models.Book
	err := db.Books().FindOne(ctx, bson.M{"isbn13": isbn13, "libraryId": libraryID}).Decode(&book)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

func (db *DB) BooksByLibrary(ctx context.Context, libraryID string) ([]models.Book, error) {
	filter := bson.M{}
	if libraryID != "" {
		filter["libraryId"] = libraryID
	}
	cur, err := db.Books().Find(ctx, filter, options.Find().SetSort(bson.M{"createdAt": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var books []models.Book
	if err := cur.All(ctx, &books); err != nil {
		return nil, err
	}
	return books, nil
}

// ReserveCopy decrements availableQuantity and increments currentlyBorrowed,
// guarded on availableQuantity > 0. The pipeline update also maintains the
// derived status label in the same atomic write.
func (db *DB) ReserveCopy(ctx context.Context, isbn13, libraryID string) (bool, error) {
	filter := bson.M{
		"isbn13":            isbn13,
		"libraryId":         libraryID,
		"availableQuantity": bson.M{"$gt": 0},
	}
	update := bson.A{bson.M{"$set": bson.M{
		"availableQuantity": bson.M{"$subtract": bson.A{"$availableQuantity", 1}},
		"currentlyBorrowed": bson.M{"$add": bson.A{"$currentlyBorrowed", 1}},
		"status": bson.M{"$cond": bson.A{
			bson.M{"$gt": bson.A{"$availableQuantity", 1}},
			models.StatusAvailable,
			models.StatusBorrowed,
		}},
	}}}
	res, err := db.Books().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// ReleaseCopy is the inverse, guarded on currentlyBorrowed > 0 so a double
// release cannot push availableQuantity past quantity.
func (db *DB) ReleaseCopy(ctx context.Context, isbn13, libraryID string) (bool, error) {
	filter := bson.M{
		"isbn13":            isbn13,
		"libraryId":         libraryID,
		"currentlyBorrowed": bson.M{"$gt": 0},
	}
	update := bson.A{bson.M{"$set": bson.M{
		"availableQuantity": bson.M{"$add": bson.A{"$availableQuantity", 1}},
		"currentlyBorrowed": bson.M{"$subtract": bson.A{"$currentlyBorrowed", 1}},
		"status":            models.StatusAvailable,
	}}}
	res, err := db.Books().UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (db *DB) IncrementCheckouts(ctx context.Context, isbn13, libraryID string) (bool, error) {
	res, err := db.Books().UpdateOne(ctx,
		bson.M{"isbn13": isbn13, "libraryId": libraryID},
		bson.M{"$inc": bson.M{"totalCheckouts": 1}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// AddCopies grows both quantity and availableQuantity by n.
func (db *DB) AddCopies(ctx context.Context, isbn13, libraryID string, n int64) (bool, error) {
	res, err := db.Books().UpdateOne(ctx,
		bson.M{"isbn13": isbn13, "libraryId": libraryID},
		bson.M{
			"$inc": bson.M{"quantity": n, "availableQuantity": n},
			"$set": bson.M{"status": models.StatusAvailable},
		})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

func (db *DB) DeleteBook(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.Books().DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, err
	}
	return res.DeletedCount == 1, nil
}
