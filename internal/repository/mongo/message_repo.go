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

const messageCollectionName = "messages"

// mongoMessageRepository implements repository.MessageRepository.
type mongoMessageRepository struct {
	collection *mongo.Collection
}

// NewMongoMessageRepository creates a new Message repository backed by MongoDB.
func NewMongoMessageRepository(db *mongo.Database) repository.MessageRepository {
	return &mongoMessageRepository{
		collection: db.Collection(messageCollectionName),
	}
}

// Create inserts a new message. Messages start unread.
func (r *mongoMessageRepository) Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error) {
	if message.SenderID == primitive.NilObjectID || message.ReceiverID == primitive.NilObjectID || message.Content == "" {
		return primitive.NilObjectID, errors.New("message sender, receiver and content are required")
	}

	message.ID = primitive.NewObjectID()
	message.IsRead = false
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}

	result, err := r.collection.InsertOne(ctx, message)
	if err != nil {
		return primitive.NilObjectID, err
	}

	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}

	return insertedID, nil
}

// threadFilter matches messages between a and b in either direction.
func threadFilter(a, b primitive.ObjectID) bson.M {
	return bson.M{
		"$or": bson.A{
			bson.M{"senderId": a, "receiverId": b},
			bson.M{"senderId": b, "receiverId": a},
		},
	}
}

// GetThread returns all messages between the two users, oldest first.
func (r *mongoMessageRepository) GetThread(ctx context.Context, a, b primitive.ObjectID) ([]domain.Message, error) {
	var messages []domain.Message
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}})

	cursor, err := r.collection.Find(ctx, threadFilter(a, b), findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &messages); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}

	return messages, nil
}

// GetLatestInThread returns the most recent message between the two users.
func (r *mongoMessageRepository) GetLatestInThread(ctx context.Context, a, b primitive.ObjectID) (*domain.Message, error) {
	var message domain.Message
	findOptions := options.FindOne().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	err := r.collection.FindOne(ctx, threadFilter(a, b), findOptions).Decode(&message)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &message, nil
}

// MarkThreadRead flips all unread messages from sender to receiver and
// returns the number newly marked. Repeat calls modify nothing and
// return zero.
func (r *mongoMessageRepository) MarkThreadRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	filter := bson.M{"senderId": senderID, "receiverId": receiverID, "isRead": false}
	update := bson.M{"$set": bson.M{"isRead": true}}

	result, err := r.collection.UpdateMany(ctx, filter, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// CountUnread counts unread messages from sender to receiver.
func (r *mongoMessageRepository) CountUnread(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"senderId": senderID, "receiverId": receiverID, "isRead": false})
}

// Count counts all messages in the system (admin stats).
func (r *mongoMessageRepository) Count(ctx context.Context) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{})
}

// EnsureMessageIndexes creates necessary indexes for the messages collection.
func EnsureMessageIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "senderId", Value: 1}, {Key: "receiverId", Value: 1}, {Key: "createdAt", Value: 1}},
			Options: options.Index(),
		},
		{
			// Unread counters filter on isRead within a direction
			Keys:    bson.D{{Key: "receiverId", Value: 1}, {Key: "isRead", Value: 1}},
			Options: options.Index(),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logrus.Warnf("Could not create message indexes: %v", err)
	}
}
