package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/cache"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// --- Error Definitions ---
var (
	ErrNotACoach  = errors.New("user is not a coach")
	ErrNotAClient = errors.New("user is not a client")
)

const statsCacheKey = "admin:stats"
const statsCacheTTL = 60 * time.Second

// AdminStats is the aggregate counters card on the admin landing view.
type AdminStats struct {
	ClientCount  int64 `json:"clientCount"`
	CoachCount   int64 `json:"coachCount"`
	VideoCount   int64 `json:"videoCount"`
	MessageCount int64 `json:"messageCount"`
}

// VideoWithCoach pairs a video with its author for the admin library view.
type VideoWithCoach struct {
	domain.Video
	CoachName string `json:"coachName"`
}

// AdminService covers user administration and platform-wide views.
type AdminService interface {
	Stats(ctx context.Context) (*AdminStats, error)

	GetUsers(ctx context.Context) ([]domain.User, error)
	GetUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error)

	GetCoaches(ctx context.Context) ([]domain.User, error)
	CreateCoach(ctx context.Context, name, phone, password string) (*domain.User, error)
	UpdateCoach(ctx context.Context, id primitive.ObjectID, name, phone string) (*domain.User, error)
	DeleteCoach(ctx context.Context, id primitive.ObjectID) error

	GetClients(ctx context.Context) ([]domain.User, error)
	CreateClient(ctx context.Context, name, phone, password string, coachID *primitive.ObjectID) (*domain.User, error)
	UpdateClient(ctx context.Context, id primitive.ObjectID, name, phone string) (*domain.User, error)
	DeleteClient(ctx context.Context, id primitive.ObjectID) error
	// AssignCoach sets or clears (nil) the client's coach.
	AssignCoach(ctx context.Context, clientID primitive.ObjectID, coachID *primitive.ObjectID) (*domain.User, error)

	GetAllVideos(ctx context.Context) ([]VideoWithCoach, error)
}

// --- Service Implementation ---

type adminService struct {
	userRepo    repository.UserRepository
	videoRepo   repository.VideoRepository
	messageRepo repository.MessageRepository
	cache       *cache.RedisCache
}

// NewAdminService creates a new instance of adminService. cache may be
// nil, in which case stats are computed on every call.
func NewAdminService(
	userRepo repository.UserRepository,
	videoRepo repository.VideoRepository,
	messageRepo repository.MessageRepository,
	redisCache *cache.RedisCache,
) AdminService {
	return &adminService{
		userRepo:    userRepo,
		videoRepo:   videoRepo,
		messageRepo: messageRepo,
		cache:       redisCache,
	}
}

// === Stats ===

// Stats returns platform-wide counters, cached briefly since the admin
// view polls them and exact freshness does not matter.
func (s *adminService) Stats(ctx context.Context) (*AdminStats, error) {
	return cache.GetOrSet(s.cache, ctx, statsCacheKey, statsCacheTTL, func() (*AdminStats, error) {
		clientCount, err := s.userRepo.CountByRole(ctx, domain.RoleClient)
		if err != nil {
			return nil, err
		}
		coachCount, err := s.userRepo.CountByRole(ctx, domain.RoleCoach)
		if err != nil {
			return nil, err
		}
		videoCount, err := s.videoRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		messageCount, err := s.messageRepo.Count(ctx)
		if err != nil {
			return nil, err
		}
		return &AdminStats{
			ClientCount:  clientCount,
			CoachCount:   coachCount,
			VideoCount:   videoCount,
			MessageCount: messageCount,
		}, nil
	})
}

// === Users ===

func (s *adminService) GetUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	stripHashes(users)
	return users, nil
}

func (s *adminService) GetUserByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	user.PasswordHash = ""
	return user, nil
}

// === Coaches ===

func (s *adminService) GetCoaches(ctx context.Context) ([]domain.User, error) {
	coaches, err := s.userRepo.GetByRole(ctx, domain.RoleCoach)
	if err != nil {
		return nil, err
	}
	stripHashes(coaches)
	return coaches, nil
}

func (s *adminService) CreateCoach(ctx context.Context, name, phone, password string) (*domain.User, error) {
	return s.createUser(ctx, name, phone, password, domain.RoleCoach, nil)
}

func (s *adminService) UpdateCoach(ctx context.Context, id primitive.ObjectID, name, phone string) (*domain.User, error) {
	return s.updateUser(ctx, id, name, phone, domain.RoleCoach)
}

func (s *adminService) DeleteCoach(ctx context.Context, id primitive.ObjectID) error {
	coach, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !coach.IsCoach() {
		return ErrNotACoach
	}

	// Orphan the coach's clients rather than cascading the delete.
	clients, err := s.userRepo.GetClientsByCoachID(ctx, id)
	if err != nil {
		return err
	}
	for i := range clients {
		if err := s.userRepo.SetCoachForClient(ctx, clients[i].ID, nil); err != nil {
			return err
		}
	}

	return s.userRepo.Delete(ctx, id)
}

// === Clients ===

func (s *adminService) GetClients(ctx context.Context) ([]domain.User, error) {
	clients, err := s.userRepo.GetByRole(ctx, domain.RoleClient)
	if err != nil {
		return nil, err
	}
	stripHashes(clients)
	return clients, nil
}

func (s *adminService) CreateClient(ctx context.Context, name, phone, password string, coachID *primitive.ObjectID) (*domain.User, error) {
	if coachID != nil {
		if err := s.requireCoach(ctx, *coachID); err != nil {
			return nil, err
		}
	}
	return s.createUser(ctx, name, phone, password, domain.RoleClient, coachID)
}

func (s *adminService) UpdateClient(ctx context.Context, id primitive.ObjectID, name, phone string) (*domain.User, error) {
	return s.updateUser(ctx, id, name, phone, domain.RoleClient)
}

func (s *adminService) DeleteClient(ctx context.Context, id primitive.ObjectID) error {
	client, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	if !client.IsClient() {
		return ErrNotAClient
	}
	return s.userRepo.Delete(ctx, id)
}

func (s *adminService) AssignCoach(ctx context.Context, clientID primitive.ObjectID, coachID *primitive.ObjectID) (*domain.User, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if !client.IsClient() {
		return nil, ErrNotAClient
	}

	if coachID != nil {
		if err := s.requireCoach(ctx, *coachID); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.SetCoachForClient(ctx, clientID, coachID); err != nil {
		return nil, err
	}

	client.CoachID = coachID
	client.PasswordHash = ""
	return client, nil
}

// === Videos ===

// GetAllVideos lists every video on the platform with its author's name.
func (s *adminService) GetAllVideos(ctx context.Context) ([]VideoWithCoach, error) {
	videos, err := s.videoRepo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	names := make(map[primitive.ObjectID]string)
	result := make([]VideoWithCoach, len(videos))
	for i, v := range videos {
		result[i] = VideoWithCoach{Video: v}
		name, ok := names[v.CoachID]
		if !ok {
			if coach, err := s.userRepo.GetByID(ctx, v.CoachID); err == nil {
				name = coach.Name
			}
			names[v.CoachID] = name
		}
		result[i].CoachName = name
	}
	return result, nil
}

// === Helpers ===

func (s *adminService) createUser(ctx context.Context, name, phone, password string, role domain.Role, coachID *primitive.ObjectID) (*domain.User, error) {
	existing, err := s.userRepo.GetByPhone(ctx, phone)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if existing != nil {
		return nil, ErrUserAlreadyExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, ErrHashingFailed
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Phone:        phone,
		PasswordHash: string(hashedPassword),
		Role:         role,
		CoachID:      coachID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	userID, err := s.userRepo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	user.ID = userID
	user.PasswordHash = ""

	return user, nil
}

func (s *adminService) updateUser(ctx context.Context, id primitive.ObjectID, name, phone string, role domain.Role) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if user.Role != role {
		if role == domain.RoleCoach {
			return nil, ErrNotACoach
		}
		return nil, ErrNotAClient
	}

	if name != "" {
		user.Name = name
	}
	if phone != "" && phone != user.Phone {
		existing, err := s.userRepo.GetByPhone(ctx, phone)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		if existing != nil {
			return nil, ErrUserAlreadyExists
		}
		user.Phone = phone
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}

	user.PasswordHash = ""
	return user, nil
}

func (s *adminService) requireCoach(ctx context.Context, coachID primitive.ObjectID) error {
	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrCoachNotFound
		}
		return err
	}
	if !coach.IsCoach() {
		return ErrCoachNotFound
	}
	return nil
}

func stripHashes(users []domain.User) {
	for i := range users {
		users[i].PasswordHash = ""
	}
}
