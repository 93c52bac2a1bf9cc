package users

import (
	"context"
	"errors"
	"time"

	"github.com/arogya-ai/arogya/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// UserRepository defines persistence operations for users
type UserRepository interface {
	// CreateIfAbsent inserts u unless a record with the same ID exists. It returns
	// the stored record and whether this call created it.
	CreateIfAbsent(ctx context.Context, u *models.User) (*models.User, bool, error)
	GetBySub(ctx context.Context, sub string) (*models.User, error)
}

// MongoUserRepository implements UserRepository using MongoDB
type MongoUserRepository struct {
	col *mongo.Collection
}

// NewMongoUserRepository creates a new repository for the given collection
func NewMongoUserRepository(col *mongo.Collection) *MongoUserRepository {
	return &MongoUserRepository{col: col}
}

// CreateIfAbsent relies on a single upsert with $setOnInsert keyed on _id, so
// concurrent first logins for one subject converge on one document and the
// first writer's createdAt.
func (r *MongoUserRepository) CreateIfAbsent(ctx context.Context, u *models.User) (*models.User, bool, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	// BSON dates hold milliseconds; the creator must see what later reads see
	u.CreatedAt = u.CreatedAt.Truncate(time.Millisecond)
	filter := bson.M{"_id": u.ID}
	update := bson.M{"$setOnInsert": bson.M{
		"name":      u.Name,
		"email":     u.Email,
		"createdAt": u.CreatedAt,
	}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.Before)

	var existing models.User
	err := r.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&existing)
	switch {
	case err == nil:
		return &existing, false, nil
	case errors.Is(err, mongo.ErrNoDocuments):
		// no pre-image: this call inserted the document
		created := *u
		return &created, true, nil
	case mongo.IsDuplicateKeyError(err):
		// lost an upsert race; the winner's document is authoritative
		winner, gerr := r.GetBySub(ctx, u.ID)
		if gerr != nil {
			return nil, false, gerr
		}
		if winner == nil {
			return nil, false, err
		}
		return winner, false, nil
	default:
		return nil, false, err
	}
}

func (r *MongoUserRepository) GetBySub(ctx context.Context, sub string) (*models.User, error) {
	var u models.User
	if err := r.col.FindOne(ctx, bson.M{"_id": sub}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &u, nil
}
