package mongo

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const recommendationCollectionName = "recommendations"

// mongoRecommendationRepository implements repository.RecommendationRepository.
type mongoRecommendationRepository struct {
	collection *mongo.Collection
}

// NewMongoRecommendationRepository creates a new Recommendation repository backed by MongoDB.
func NewMongoRecommendationRepository(db *mongo.Database) repository.RecommendationRepository {
	return &mongoRecommendationRepository{
		collection: db.Collection(recommendationCollectionName),
	}
}

// Create inserts a new recommendation. The exercises list is stored as a
// native BSON array; no serialization happens above this layer.
func (r *mongoRecommendationRepository) Create(ctx context.Context, rec *domain.Recommendation) (primitive.ObjectID, error) {
	if rec.ClientID == primitive.NilObjectID || rec.CoachID == primitive.NilObjectID || rec.Title == "" {
		return primitive.NilObjectID, errors.New("recommendation client ID, coach ID and title are required")
	}

	rec.ID = primitive.NewObjectID()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, rec)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByClientID retrieves up to limit recommendations for a client, newest first.
func (r *mongoRecommendationRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.Recommendation, error) {
	var recs []domain.Recommendation
	filter := bson.M{"clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &recs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return recs, nil
}

// Delete removes a recommendation, ensuring it belongs to the specified coach.
func (r *mongoRecommendationRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	// The coachId in the filter stops a coach deleting another coach's advice.
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureRecommendationIndexes creates necessary indexes for the recommendations collection.
func EnsureRecommendationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create recommendation indexes: %v", err)
	}
}
