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

const imtHistoryCollectionName = "imt_history"

// mongoIMTHistoryRepository implements repository.IMTHistoryRepository.
// The collection is append-only; there are no update or delete paths.
type mongoIMTHistoryRepository struct {
	collection *mongo.Collection
}

// NewMongoIMTHistoryRepository creates a new IMT history repository backed by MongoDB.
func NewMongoIMTHistoryRepository(db *mongo.Database) repository.IMTHistoryRepository {
	return &mongoIMTHistoryRepository{
		collection: db.Collection(imtHistoryCollectionName),
	}
}

// Create appends a new IMT record. Same-day duplicates are allowed by
// design; every submission produces its own row.
func (r *mongoIMTHistoryRepository) Create(ctx context.Context, record *domain.IMTRecord) (primitive.ObjectID, error) {
	if record.ClientID == primitive.NilObjectID {
		return primitive.NilObjectID, errors.New("client ID is required")
	}

	record.ID = primitive.NewObjectID()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, record)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetLatestByClientID retrieves the most recent record for a client.
func (r *mongoIMTHistoryRepository) GetLatestByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.IMTRecord, error) {
	var record domain.IMTRecord
	filter := bson.M{"clientId": clientID}
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, filter, findOptions).Decode(&record)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &record, nil
}

// GetByClientID retrieves up to limit records for a client, newest first.
func (r *mongoIMTHistoryRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.IMTRecord, error) {
	var records []domain.IMTRecord
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

	if err = cursor.All(ctx, &records); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return records, nil
}

// EnsureIMTHistoryIndexes creates necessary indexes for the imt_history collection.
func EnsureIMTHistoryIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// Latest-record lookups sort on createdAt within a client
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create IMT history indexes: %v", err)
	}
}
