package store

import (
	"context"
	"time"

	"github.com/openshelf/circulation/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var activeLoanStatuses = bson.A{models.LoanBorrowed, models.LoanOverdue}

func (db *DB) InsertLoan(ctx context.Context, loan *models.IssuedBook) (primitive.ObjectID, error) {
	res, err := db.IssuedBooks().InsertOne(ctx, loan)
	if err != nil {
		return primitive.NilObjectID, err
	}
	return res.InsertedID.(primitive.ObjectID), nil
}

func (db *DB) LoanByID(ctx context.Context, id primitive.ObjectID) (*models.IssuedBook, error) {
	var loan models.IssuedBook
	err := db.IssuedBooks().FindOne(ctx, bson.M{"_id": id}).Decode(&loan)
	if err == mongo.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &loan, nil
}

func (db *DB) ActiveLoanExists(ctx context.Context, email, isbn13, libraryID string) (bool, error) {
	n, err := db.IssuedBooks().CountDocuments(ctx, bson.M{
		"email":     email,
		"isbn13":    isbn13,
		"libraryId": libraryID,
		"status":    bson.M{"$in": activeLoanStatuses},
	})
	return n > 0, err
}

// MarkReturned flips an active loan to Returned. The status guard makes the
// transition apply at most once, so a duplicate return cannot double-release
// the copy.
func (db *DB) MarkReturned(ctx context.Context, id primitive.ObjectID, returnedAt time.Time) (bool, error) {
	res, err := db.IssuedBooks().UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": activeLoanStatuses}},
		bson.M{"$set": bson.M{"status": models.LoanReturned, "returnDate": returnedAt}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ReopenLoan reverts a Returned loan to Borrowed. Used when the copy release
// after a return fails: the loan goes back to active so a retry of the
// return runs the whole transition again instead of no-opping.
func (db *DB) ReopenLoan(ctx context.Context, id primitive.ObjectID) (bool, error) {
	res, err := db.IssuedBooks().UpdateOne(ctx,
		bson.M{"_id": id, "status": models.LoanReturned},
		bson.M{"$set": bson.M{"status": models.LoanBorrowed}, "$unset": bson.M{"returnDate": ""}})
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// MarkOverdue persists the recomputed fine and Overdue status. The guard
// excludes Returned rows so a racing return wins.
func (db *DB) MarkOverdue(ctx context.Context, id primitive.ObjectID, fine int64) (bool, error) {
	res, err := db.IssuedBooks().UpdateOne(ctx,
		bson.M{"_id": id, "status": bson.M{"$in": activeLoanStatuses}},
		bson.M{"$set": bson.M{"status": models.LoanOverdue, "fine": fine}})
	if err != nil {
		return false, err
	}
	return res.MatchedCount == 1, nil
}

// QueryLoans lists loans filtered by borrower email and/or status; empty
// arguments are ignored.
func (db *DB) QueryLoans(ctx context.Context, email string, status models.LoanStatus) ([]models.IssuedBook, error) {
	filter := bson.M{}
	if email != "" {
		filter["email"] = email
	}
	if status != "" {
		filter["status"] = status
	}
	cur, err := db.IssuedBooks().Find(ctx, filter, options.Find().SetSort(bson.M{"issueDate": -1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var loans []models.IssuedBook
	if err := cur.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}

// OverdueCandidates returns unreturned loans past due at asOf. Rows already
// marked Overdue are included so the fine keeps accruing each sweep.
func (db *DB) OverdueCandidates(ctx context.Context, asOf time.Time) ([]models.IssuedBook, error) {
	cur, err := db.IssuedBooks().Find(ctx, bson.M{
		"status":  bson.M{"$in": activeLoanStatuses},
		"dueDate": bson.M{"$lt": asOf},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var loans []models.IssuedBook
	if err := cur.All(ctx, &loans); err != nil {
		return nil, err
	}
	return loans, nil
}
