package persistence

import (
	"context"

	"social-publisher/domain/model"
	"social-publisher/domain/repository"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const attemptCollection = "publish_attempts"

// AttemptLogRepository appends every tracked publish result to MongoDB as an
// audit trail; the relational store only keeps the latest state.
type AttemptLogRepository struct {
	collection *mongo.Collection
}

func NewAttemptLogRepository(client *mongo.Client, database string) *AttemptLogRepository {
	return &AttemptLogRepository{collection: client.Database(database).Collection(attemptCollection)}
}

var (
	_ repository.IPublishNotifier    = (*AttemptLogRepository)(nil)
	_ repository.IPublishAttemptLog = (*AttemptLogRepository)(nil)
)

func (r *AttemptLogRepository) Notify(ctx context.Context, rec *model.PublishResult) error {
	_, err := r.collection.InsertOne(ctx, model.NewPublishAttempt(rec))
	return err
}

// ListByPost returns the user's newest attempts for a post first.
func (r *AttemptLogRepository) ListByPost(ctx context.Context, userID, postID string, limit int64) ([]model.PublishAttempt, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}
	cursor, err := r.collection.Find(ctx, bson.D{{Key: "postId", Value: postID}, {Key: "userId", Value: userID}}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var attempts []model.PublishAttempt
	if err := cursor.All(ctx, &attempts); err != nil {
		return nil, err
	}
	return attempts, nil
}
