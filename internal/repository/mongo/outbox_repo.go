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

const outboxCollectionName = "outbox"

type mongoOutboxRepository struct {
	collection *mongo.Collection
}

// NewMongoOutboxRepository creates a new outbox repository.
func NewMongoOutboxRepository(db *mongo.Database) repository.OutboxRepository {
	return &mongoOutboxRepository{
		collection: db.Collection(outboxCollectionName),
	}
}

func (r *mongoOutboxRepository) Enqueue(ctx context.Context, event *domain.OutboxEvent) error {
	event.ID = primitive.NewObjectID()
	event.Status = domain.OutboxPending
	event.CreatedAt = time.Now().UTC()
	_, err := r.collection.InsertOne(ctx, event)
	return err
}

// ClaimBatch claims events one at a time with FindOneAndUpdate so that concurrent
// dispatchers never receive the same event.
func (r *mongoOutboxRepository) ClaimBatch(ctx context.Context, limit int, claimTimeout time.Duration) ([]domain.OutboxEvent, error) {
	now := time.Now().UTC()
	filter := bson.M{
		"status": domain.OutboxPending,
		"$or": bson.A{
			bson.M{"claimedAt": nil},
			bson.M{"claimedAt": bson.M{"$lt": now.Add(-claimTimeout)}},
		},
	}
	update := bson.M{"$set": bson.M{"claimedAt": now}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "createdAt", Value: 1}}).
		SetReturnDocument(options.After)

	events := make([]domain.OutboxEvent, 0, limit)
	for len(events) < limit {
		var event domain.OutboxEvent
		err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&event)
		if err != nil {
			if errors.Is(err, mongo.ErrNoDocuments) {
				break
			}
			return events, err
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *mongoOutboxRepository) MarkProcessed(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{
			"status":      domain.OutboxProcessed,
			"processedAt": time.Now().UTC(),
		},
	})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoOutboxRepository) MarkFailed(ctx context.Context, id primitive.ObjectID, reason string, maxAttempts int) error {
	var event domain.OutboxEvent
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{
			"$inc":   bson.M{"attempts": 1},
			"$set":   bson.M{"lastError": reason},
			"$unset": bson.M{"claimedAt": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&event)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return err
	}

	if maxAttempts > 0 && event.Attempts >= maxAttempts {
		_, err = r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
			"$set": bson.M{"status": domain.OutboxDead},
		})
		return err
	}
	return nil
}

func EnsureOutboxIndexes(ctx context.Context, collection *mongo.Collection) error {
	return createIndexes(ctx, collection, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
	})
}
