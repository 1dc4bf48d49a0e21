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

const proofCollectionName = "workout_proofs"

// mongoWorkoutProofRepository implements repository.WorkoutProofRepository.
type mongoWorkoutProofRepository struct {
	collection *mongo.Collection
}

// NewMongoWorkoutProofRepository creates a new WorkoutProof repository backed by MongoDB.
func NewMongoWorkoutProofRepository(db *mongo.Database) repository.WorkoutProofRepository {
	return &mongoWorkoutProofRepository{
		collection: db.Collection(proofCollectionName),
	}
}

// Create inserts a new workout proof.
func (r *mongoWorkoutProofRepository) Create(ctx context.Context, proof *domain.WorkoutProof) (primitive.ObjectID, error) {
	if proof.ClientID == primitive.NilObjectID || proof.ImageKey == "" {
		return primitive.NilObjectID, errors.New("proof client ID and image key are required")
	}

	proof.ID = primitive.NewObjectID()
	if proof.CreatedAt.IsZero() {
		proof.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, proof)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByClientID retrieves up to limit proofs for a client, newest first.
func (r *mongoWorkoutProofRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.WorkoutProof, error) {
	filter := bson.M{"clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	if limit > 0 {
		findOptions.SetLimit(limit)
	}
	return r.findProofs(ctx, filter, findOptions)
}

// GetSince retrieves proofs created at or after the given instant,
// newest first. Used for the "trained today" check.
func (r *mongoWorkoutProofRepository) GetSince(ctx context.Context, clientID primitive.ObjectID, since time.Time) ([]domain.WorkoutProof, error) {
	filter := bson.M{"clientId": clientID, "createdAt": bson.M{"$gte": since}}
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return r.findProofs(ctx, filter, findOptions)
}

func (r *mongoWorkoutProofRepository) findProofs(ctx context.Context, filter bson.M, findOptions *options.FindOptions) ([]domain.WorkoutProof, error) {
	var proofs []domain.WorkoutProof

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &proofs); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return proofs, nil
}

// EnsureWorkoutProofIndexes creates necessary indexes for the workout_proofs collection.
func EnsureWorkoutProofIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create workout proof indexes: %v", err)
	}
}
