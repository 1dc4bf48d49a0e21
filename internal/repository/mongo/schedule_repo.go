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

const scheduleCollectionName = "schedules"

// mongoScheduleRepository implements repository.ScheduleRepository.
type mongoScheduleRepository struct {
	collection *mongo.Collection
}

// NewMongoScheduleRepository creates a new Schedule repository backed by MongoDB.
func NewMongoScheduleRepository(db *mongo.Database) repository.ScheduleRepository {
	return &mongoScheduleRepository{
		collection: db.Collection(scheduleCollectionName),
	}
}

// Create inserts a new schedule row. The date is normalized to midnight
// UTC before insertion so the (clientId, date) unique index holds at day
// granularity. A duplicate day surfaces as repository.ErrDuplicate.
func (r *mongoScheduleRepository) Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error) {
	if schedule.ClientID == primitive.NilObjectID || schedule.Date.IsZero() {
		return primitive.NilObjectID, errors.New("schedule client ID and date are required")
	}

	schedule.ID = primitive.NewObjectID()
	schedule.Date = domain.NormalizeToDay(schedule.Date)
	now := time.Now().UTC()
	schedule.CreatedAt = now
	schedule.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, schedule)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a schedule row by its ID.
func (r *mongoScheduleRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Schedule, error) {
	var schedule domain.Schedule
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// GetByClientID retrieves all schedule rows for a client, earliest date first.
func (r *mongoScheduleRepository) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Schedule, error) {
	var schedules []domain.Schedule
	filter := bson.M{"clientId": clientID}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return schedules, nil
}

// GetByClientAndDate retrieves the schedule row for a specific calendar day.
func (r *mongoScheduleRepository) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.Schedule, error) {
	var schedule domain.Schedule
	filter := bson.M{"clientId": clientID, "date": domain.NormalizeToDay(day)}

	err := r.collection.FindOne(ctx, filter).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// SetCompleted flips the completed flag and returns the updated row.
func (r *mongoScheduleRepository) SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool) (*domain.Schedule, error) {
	filter := bson.M{"_id": id}
	update := bson.M{
		"$set": bson.M{
			"completed": completed,
			"updatedAt": time.Now().UTC(),
		},
	}
	findOptions := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var schedule domain.Schedule
	err := r.collection.FindOneAndUpdate(ctx, filter, update, findOptions).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// Delete removes a schedule row.
func (r *mongoScheduleRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureScheduleIndexes creates necessary indexes for the schedules collection.
func EnsureScheduleIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			// One schedule row per client per calendar day
			Keys:    bson.D{{Key: "clientId", Value: 1}, {Key: "date", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Without the unique index, duplicate-day inserts stop surfacing
		// ErrDuplicate; make the failure visible.
		logrus.Warnf("Could not create schedule indexes: %v", err)
	}
}
