package repositories

import (
	"context"
	"time"

	"github.com/anonto42/postshare/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// RenameRepository persists rename saga progress markers, one per user.
type RenameRepository interface {
	// Begin stores the marker, replacing any unfinished marker for the same user.
	Begin(ctx context.Context, saga *models.RenameSaga) error
	Advance(ctx context.Context, userID primitive.ObjectID, step int) error
	Complete(ctx context.Context, userID primitive.ObjectID) error
	Pending(ctx context.Context) ([]models.RenameSaga, error)
}

type MongoRenameRepository struct {
	collection *mongo.Collection
}

func NewMongoRenameRepository(db *mongo.Database) *MongoRenameRepository {
	return &MongoRenameRepository{collection: db.Collection("renames")}
}

func (r *MongoRenameRepository) Begin(ctx context.Context, saga *models.RenameSaga) error {
	now := time.Now().UTC()
	if saga.StartedAt.IsZero() {
		saga.StartedAt = now
	}
	saga.UpdatedAt = now
	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": saga.UserID}, saga, options.Replace().SetUpsert(true))
	return err
}

func (r *MongoRenameRepository) Advance(ctx context.Context, userID primitive.ObjectID, step int) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$set": bson.M{"step": step, "updatedAt": time.Now().UTC()}},
	)
	return err
}

func (r *MongoRenameRepository) Complete(ctx context.Context, userID primitive.ObjectID) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": userID})
	return err
}

func (r *MongoRenameRepository) Pending(ctx context.Context) ([]models.RenameSaga, error) {
	sagas := []models.RenameSaga{}
	cursor, err := r.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "startedAt", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &sagas); err != nil {
		return nil, err
	}
	return sagas, nil
}
