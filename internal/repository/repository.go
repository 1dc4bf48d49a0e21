package repository

import (
	"context"
	"imtfit/coaching-app/internal/domain"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive" // For using ObjectIDs
)

// Error constants for repository layer
var (
	ErrNotFound     = RepositoryError("not found")
	ErrDuplicate    = RepositoryError("duplicate key")
	ErrUpdateFailed = RepositoryError("update failed")
	ErrDeleteFailed = RepositoryError("delete failed")
)

// RepositoryError helps distinguish repository errors
type RepositoryError string

func (e RepositoryError) Error() string {
	return string(e)
}

// UserRepository defines the interface for interacting with user data.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error)
	GetByPhone(ctx context.Context, phone string) (*domain.User, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)
	GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error)
	GetAll(ctx context.Context) ([]domain.User, error)
	GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
	CountClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) (int64, error)
	Update(ctx context.Context, user *domain.User) error
	UpdateMeasurements(ctx context.Context, clientID primitive.ObjectID, weight, height float64) error
	SetCoachForClient(ctx context.Context, clientID primitive.ObjectID, coachID *primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// IMTHistoryRepository defines the interface for the append-only IMT ledger.
type IMTHistoryRepository interface {
	Create(ctx context.Context, record *domain.IMTRecord) (primitive.ObjectID, error)
	GetLatestByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.IMTRecord, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.IMTRecord, error)
}

// ScheduleRepository defines the interface for interacting with schedule data.
// Create must surface ErrDuplicate when a (clientId, date) pair already exists.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Schedule, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Schedule, error)
	GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.Schedule, error)
	SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool) (*domain.Schedule, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// WorkoutProofRepository defines the interface for workout proof metadata.
type WorkoutProofRepository interface {
	Create(ctx context.Context, proof *domain.WorkoutProof) (primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.WorkoutProof, error)
	GetSince(ctx context.Context, clientID primitive.ObjectID, since time.Time) ([]domain.WorkoutProof, error)
}

// RecommendationRepository defines the interface for exercise recommendations.
type RecommendationRepository interface {
	Create(ctx context.Context, rec *domain.Recommendation) (primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.Recommendation, error)
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error
}

// FoodRecommendationRepository defines the interface for food recommendations.
type FoodRecommendationRepository interface {
	Create(ctx context.Context, rec *domain.FoodRecommendation) (primitive.ObjectID, error)
	GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.FoodRecommendation, error)
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error
}

// MessageRepository defines the interface for the coach↔client message log.
type MessageRepository interface {
	Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error)
	// GetThread returns all messages between the two users, oldest first,
	// regardless of direction.
	GetThread(ctx context.Context, a, b primitive.ObjectID) ([]domain.Message, error)
	GetLatestInThread(ctx context.Context, a, b primitive.ObjectID) (*domain.Message, error)
	// MarkThreadRead flips unread messages from sender to receiver and
	// returns how many were newly marked.
	MarkThreadRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error)
	CountUnread(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// VideoRepository defines the interface for interacting with video data.
type VideoRepository interface {
	Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error)
	GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Video, error)
	// GetForClient returns videos owned by the client's coach or tagged
	// with the client's current category, newest first.
	GetForClient(ctx context.Context, coachID *primitive.ObjectID, category domain.Category) ([]domain.Video, error)
	GetAll(ctx context.Context) ([]domain.Video, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, video *domain.Video) error
	Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error
}
