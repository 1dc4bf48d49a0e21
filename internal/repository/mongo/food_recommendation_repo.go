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

const foodRecommendationCollectionName = "food_recommendations"

// mongoFoodRecommendationRepository implements repository.FoodRecommendationRepository.
type mongoFoodRecommendationRepository struct {
	collection *mongo.Collection
}

// NewMongoFoodRecommendationRepository creates a new FoodRecommendation repository backed by MongoDB.
func NewMongoFoodRecommendationRepository(db *mongo.Database) repository.FoodRecommendationRepository {
	return &mongoFoodRecommendationRepository{
		collection: db.Collection(foodRecommendationCollectionName),
	}
}

// Create inserts a new food recommendation.
func (r *mongoFoodRecommendationRepository) Create(ctx context.Context, rec *domain.FoodRecommendation) (primitive.ObjectID, error) {
	if rec.ClientID == primitive.NilObjectID || rec.CoachID == primitive.NilObjectID || rec.Title == "" {
		return primitive.NilObjectID, errors.New("food recommendation client ID, coach ID and title are required")
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

// GetByClientID retrieves all food recommendations for a client, newest first.
func (r *mongoFoodRecommendationRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.FoodRecommendation, error) {
	var recs []domain.FoodRecommendation
	filter := bson.M{"clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

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

// Delete removes a food recommendation, ensuring it belongs to the specified coach.
func (r *mongoFoodRecommendationRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureFoodRecommendationIndexes creates necessary indexes for the food_recommendations collection.
func EnsureFoodRecommendationIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create food recommendation indexes: %v", err)
	}
}
