package mongo

import (
	"alcyxob/gym-tracker/internal/domain"
	"alcyxob/gym-tracker/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const weightCollectionName = "weights"

type mongoWeightRepository struct {
	collection *mongo.Collection
}

// NewMongoWeightRepository creates a new Weight repository.
func NewMongoWeightRepository(db *mongo.Database) repository.WeightRepository {
	return &mongoWeightRepository{
		collection: db.Collection(weightCollectionName),
	}
}

// Create inserts a weight entry. The unique {userId, day} index rejects a second
// entry for the same calendar day.
func (r *mongoWeightRepository) Create(ctx context.Context, weight *domain.Weight) (primitive.ObjectID, error) {
	if weight.UserID == primitive.NilObjectID || weight.Day == "" {
		return primitive.NilObjectID, errors.New("weight requires userId and day")
	}
	weight.ID = primitive.NewObjectID()
	weight.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, weight)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted weight ID")
	}
	return insertedID, nil
}

func (r *mongoWeightRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Weight, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoWeightRepository) GetByDay(ctx context.Context, userID primitive.ObjectID, day string) (*domain.Weight, error) {
	return r.findOne(ctx, bson.M{"userId": userID, "day": day})
}

func (r *mongoWeightRepository) findOne(ctx context.Context, filter bson.M) (*domain.Weight, error) {
	var weight domain.Weight
	if err := r.collection.FindOne(ctx, filter).Decode(&weight); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &weight, nil
}

// ListByUser returns the latest entries of a user, newest first.
func (r *mongoWeightRepository) ListByUser(ctx context.Context, userID primitive.ObjectID, limit int) ([]domain.Weight, error) {
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(int64(limit))
	}
	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	weights := []domain.Weight{}
	if err = cursor.All(ctx, &weights); err != nil {
		return nil, err
	}
	return weights, nil
}

func (r *mongoWeightRepository) SetPhotoKey(ctx context.Context, id, userID primitive.ObjectID, key string) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id, "userId": userID},
		bson.M{"$set": bson.M{"photoKey": key}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoWeightRepository) Delete(ctx context.Context, id, userID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "userId": userID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureWeightIndexes creates the per-user per-day uniqueness index.
func EnsureWeightIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "day", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	})
}
