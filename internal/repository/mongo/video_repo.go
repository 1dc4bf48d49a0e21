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

const videoCollectionName = "videos"

// mongoVideoRepository implements repository.VideoRepository.
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository creates a new Video repository backed by MongoDB.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{
		collection: db.Collection(videoCollectionName),
	}
}

// Create inserts a new video.
func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	if video.CoachID == primitive.NilObjectID || video.Title == "" || video.VideoURL == "" {
		return primitive.NilObjectID, errors.New("video coach ID, title and URL are required")
	}

	video.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, video)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// GetByID retrieves a video by its ID.
func (r *mongoVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// GetByCoachID retrieves all videos published by a coach, newest first.
func (r *mongoVideoRepository) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Video, error) {
	return r.findVideos(ctx, bson.M{"coachId": coachID})
}

// GetForClient retrieves videos owned by the client's coach or tagged with
// the client's current category. Either arm may match; results are newest
// first. A client without a coach still sees category-tagged content.
func (r *mongoVideoRepository) GetForClient(ctx context.Context, coachID *primitive.ObjectID, category domain.Category) ([]domain.Video, error) {
	or := bson.A{bson.M{"category": category}}
	if coachID != nil {
		or = append(or, bson.M{"coachId": *coachID})
	}
	return r.findVideos(ctx, bson.M{"$or": or})
}

// GetAll retrieves every video, newest first.
func (r *mongoVideoRepository) GetAll(ctx context.Context) ([]domain.Video, error) {
	return r.findVideos(ctx, bson.M{})
}

func (r *mongoVideoRepository) findVideos(ctx context.Context, filter bson.M) ([]domain.Video, error) {
	var videos []domain.Video
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return videos, nil
}

// Count counts all videos (admin stats).
func (r *mongoVideoRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// Update modifies an existing video. The CoachID is never changed here.
func (r *mongoVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	if video.ID == primitive.NilObjectID {
		return errors.New("video ID is required for update")
	}
	if video.Title == "" || video.VideoURL == "" {
		return errors.New("video title and URL cannot be empty")
	}

	filter := bson.M{"_id": video.ID}
	update := bson.M{
		"$set": bson.M{
			"title":       video.Title,
			"description": video.Description,
			"videoUrl":    video.VideoURL,
			"category":    video.Category,
			"updatedAt":   time.Now().UTC(),
		},
	}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete removes a video, ensuring it belongs to the specified coach.
func (r *mongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id, "coachId": coachID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureVideoIndexes creates necessary indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "category", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create video indexes: %v", err)
	}
}
