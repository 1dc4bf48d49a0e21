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

const userCollectionName = "users"

// mongoUserRepository implements the repository.UserRepository interface using MongoDB.
type mongoUserRepository struct {
	collection *mongo.Collection
}

// NewMongoUserRepository creates a new instance of mongoUserRepository.
// It expects a connected *mongo.Database instance.
func NewMongoUserRepository(db *mongo.Database) repository.UserRepository {
	return &mongoUserRepository{
		collection: db.Collection(userCollectionName),
	}
}

// Create inserts a new user into the database.
func (r *mongoUserRepository) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	if user.Phone == "" || user.PasswordHash == "" || user.Role == "" {
		return primitive.NilObjectID, errors.New("user phone, password hash, and role are required")
	}

	user.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, user)
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

// GetByPhone retrieves a user by their phone number (the login identifier).
func (r *mongoUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"phone": phone}

	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByID retrieves a user by their MongoDB ObjectID.
func (r *mongoUserRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	var user domain.User
	filter := bson.M{"_id": id}

	err := r.collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByRole retrieves all users with the given role, newest first.
func (r *mongoUserRepository) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	return r.findUsers(ctx, bson.M{"role": role})
}

// GetAll retrieves every user, newest first.
func (r *mongoUserRepository) GetAll(ctx context.Context) ([]domain.User, error) {
	return r.findUsers(ctx, bson.M{})
}

// GetClientsByCoachID retrieves all clients assigned to a specific coach.
func (r *mongoUserRepository) GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	return r.findUsers(ctx, bson.M{"coachId": coachID, "role": domain.RoleClient})
}

func (r *mongoUserRepository) findUsers(ctx context.Context, filter bson.M) ([]domain.User, error) {
	var users []domain.User
	findOptions := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	if err = cursor.All(ctx, &users); err != nil {
		return nil, err
	}
	if err = cursor.Err(); err != nil {
		return nil, err
	}
	return users, nil
}

// CountByRole counts users with the given role.
func (r *mongoUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"role": role})
}

// CountClientsByCoachID counts clients assigned to a coach.
func (r *mongoUserRepository) CountClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"coachId": coachID, "role": domain.RoleClient})
}

// Update modifies an existing user's profile fields. Role is deliberately
// not updatable here; changing a user's role is not a supported flow.
func (r *mongoUserRepository) Update(ctx context.Context, user *domain.User) error {
	if user.ID == primitive.NilObjectID {
		return errors.New("user ID is required for update")
	}

	set := bson.M{
		"name":      user.Name,
		"phone":     user.Phone,
		"email":     user.Email,
		"updatedAt": time.Now().UTC(),
	}
	if user.PasswordHash != "" {
		set["passwordHash"] = user.PasswordHash
	}
	if user.CoachID != nil {
		set["coachId"] = *user.CoachID
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": user.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return repository.ErrDuplicate
		}
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// UpdateMeasurements sets the cached weight/height on a client record.
func (r *mongoUserRepository) UpdateMeasurements(ctx context.Context, clientID primitive.ObjectID, weight, height float64) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}
	update := bson.M{
		"$set": bson.M{
			"weight":    weight,
			"height":    height,
			"updatedAt": time.Now().UTC(),
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

// SetCoachForClient sets (or clears, when coachID is nil) the coach
// assignment on a client.
func (r *mongoUserRepository) SetCoachForClient(ctx context.Context, clientID primitive.ObjectID, coachID *primitive.ObjectID) error {
	filter := bson.M{"_id": clientID, "role": domain.RoleClient}

	var update bson.M
	if coachID != nil {
		update = bson.M{"$set": bson.M{"coachId": *coachID, "updatedAt": time.Now().UTC()}}
	} else {
		update = bson.M{
			"$unset": bson.M{"coachId": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
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

// Delete removes a user.
func (r *mongoUserRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureUserIndexes creates necessary indexes for the users collection.
// Call this once during application startup.
func EnsureUserIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "phone", Value: 1}}, // Login identifier
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "role", Value: 1}},
			Options: options.Index(),
		},
		{
			Keys:    bson.D{{Key: "coachId", Value: 1}}, // Finding clients by coach
			Options: options.Index().SetSparse(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		// Index creation failure is not fatal; queries still work unindexed
		// and a duplicate phone is re-checked at the service layer.
		logrus.Warnf("Could not create user indexes: %v", err)
	}
}
