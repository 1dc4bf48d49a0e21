package service

import (
	"context"
	"errors"
	"fmt"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"imtfit/coaching-app/internal/storage"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrPhotoRequired   = errors.New("a photo proof is required")
	ErrNoCoachAssigned = errors.New("client has no coach assigned")
	ErrPhotoStorage    = errors.New("failed to store photo proof")
)

// ProofUpload carries a validated multipart photo into the service layer.
type ProofUpload struct {
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// ClientDashboard is the aggregate payload for the client's landing view.
type ClientDashboard struct {
	Client          *domain.User     `json:"client"`
	Coach           *domain.User     `json:"coach,omitempty"`
	IMT             *float64         `json:"imt,omitempty"`
	Category        domain.Category  `json:"category,omitempty"`
	TodaySchedule   *domain.Schedule `json:"todaySchedule,omitempty"`
	HasTodayWorkout bool             `json:"hasTodayWorkout"`
	WorkoutDone     bool             `json:"workoutDone"`
}

// ProofDetails is a workout proof enriched with a temporary image URL.
type ProofDetails struct {
	domain.WorkoutProof
	ImageURL string `json:"imageUrl,omitempty"`
}

// ScheduleOverview combines the client's calendar with their proof feed.
type ScheduleOverview struct {
	Schedules []domain.Schedule `json:"schedules"`
	Proofs    []ProofDetails    `json:"proofs"`
}

// MessageDetails is a message enriched with the sender's display name.
type MessageDetails struct {
	domain.Message
	SenderName string `json:"senderName"`
}

// ClientService covers every client-scoped operation: dashboard,
// attendance, progress, videos, messaging and recommendations.
type ClientService interface {
	Dashboard(ctx context.Context, clientID primitive.ObjectID) (*ClientDashboard, error)
	ScheduleOverview(ctx context.Context, clientID primitive.ObjectID) (*ScheduleOverview, error)

	// MarkWorkoutDone records a photo proof and, when today has a schedule
	// row, flips it to completed. The photo is mandatory.
	MarkWorkoutDone(ctx context.Context, clientID primitive.ObjectID, photo *ProofUpload, notes string) (*ProofDetails, error)
	// AddProgressPhoto records a proof without touching the schedule.
	AddProgressPhoto(ctx context.Context, clientID primitive.ObjectID, photo *ProofUpload, notes string) (*ProofDetails, error)
	Progress(ctx context.Context, clientID primitive.ObjectID) ([]ProofDetails, error)

	Videos(ctx context.Context, clientID primitive.ObjectID) ([]domain.Video, error)

	Messages(ctx context.Context, clientID primitive.ObjectID) ([]MessageDetails, error)
	SendMessage(ctx context.Context, clientID primitive.ObjectID, content string) (*MessageDetails, error)

	Recommendations(ctx context.Context, clientID primitive.ObjectID) ([]domain.Recommendation, error)
	FoodRecommendations(ctx context.Context, clientID primitive.ObjectID) ([]domain.FoodRecommendation, error)
}

// --- Service Implementation ---

type clientService struct {
	userRepo     repository.UserRepository
	imtService   IMTService
	scheduleRepo repository.ScheduleRepository
	proofRepo    repository.WorkoutProofRepository
	recRepo      repository.RecommendationRepository
	foodRecRepo  repository.FoodRecommendationRepository
	messageRepo  repository.MessageRepository
	videoRepo    repository.VideoRepository
	fileStorage  storage.FileStorage
	now          func() time.Time
}

// NewClientService creates a new instance of clientService.
func NewClientService(
	userRepo repository.UserRepository,
	imtService IMTService,
	scheduleRepo repository.ScheduleRepository,
	proofRepo repository.WorkoutProofRepository,
	recRepo repository.RecommendationRepository,
	foodRecRepo repository.FoodRecommendationRepository,
	messageRepo repository.MessageRepository,
	videoRepo repository.VideoRepository,
	fileStorage storage.FileStorage,
) ClientService {
	return &clientService{
		userRepo:     userRepo,
		imtService:   imtService,
		scheduleRepo: scheduleRepo,
		proofRepo:    proofRepo,
		recRepo:      recRepo,
		foodRecRepo:  foodRecRepo,
		messageRepo:  messageRepo,
		videoRepo:    videoRepo,
		fileStorage:  fileStorage,
		now:          time.Now,
	}
}

// === Dashboard ===

// Dashboard assembles the client landing view: current IMT snapshot,
// today's schedule state and the trained-today flag.
func (s *clientService) Dashboard(ctx context.Context, clientID primitive.ObjectID) (*ClientDashboard, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	client.PasswordHash = ""

	dashboard := &ClientDashboard{Client: client}

	if client.CoachID != nil {
		coach, err := s.userRepo.GetByID(ctx, *client.CoachID)
		if err == nil {
			coach.PasswordHash = ""
			dashboard.Coach = coach
		}
		// A dangling coach reference is not worth failing the dashboard over.
	}

	snapshot, err := s.imtService.CurrentSnapshot(ctx, clientID)
	if err != nil && !errors.Is(err, ErrNoMeasurements) {
		return nil, err
	}
	if snapshot != nil {
		imt := snapshot.IMT
		dashboard.IMT = &imt
		dashboard.Category = snapshot.Category
	}

	now := s.now()
	todaySchedule, err := s.scheduleRepo.GetByClientAndDate(ctx, clientID, now)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	dashboard.TodaySchedule = todaySchedule
	dashboard.HasTodayWorkout = todaySchedule != nil

	todayProofs, err := s.proofRepo.GetSince(ctx, clientID, domain.NormalizeToDay(now))
	if err != nil {
		return nil, err
	}
	dashboard.WorkoutDone = domain.TrainedToday(todayProofs, todaySchedule, now)

	return dashboard, nil
}

// === Attendance ===

// ScheduleOverview returns the full calendar plus the proof feed.
func (s *clientService) ScheduleOverview(ctx context.Context, clientID primitive.ObjectID) (*ScheduleOverview, error) {
	schedules, err := s.scheduleRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}

	proofs, err := s.proofRepo.GetByClientID(ctx, clientID, 0)
	if err != nil {
		return nil, err
	}

	return &ScheduleOverview{
		Schedules: schedules,
		Proofs:    s.enrichProofs(ctx, proofs),
	}, nil
}

// MarkWorkoutDone stores the photo first, then the proof row, then flips
// today's schedule. The photo write is not rolled back if a later step
// fails; an orphaned object is the accepted failure mode.
func (s *clientService) MarkWorkoutDone(ctx context.Context, clientID primitive.ObjectID, photo *ProofUpload, notes string) (*ProofDetails, error) {
	if notes == "" {
		notes = "Workout completed"
	}
	details, err := s.recordProof(ctx, clientID, photo, notes)
	if err != nil {
		return nil, err
	}

	now := s.now()
	todaySchedule, err := s.scheduleRepo.GetByClientAndDate(ctx, clientID, now)
	if err == nil && !todaySchedule.Completed {
		if _, err := s.scheduleRepo.SetCompleted(ctx, todaySchedule.ID, true); err != nil {
			return nil, err
		}
	} else if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	return details, nil
}

// AddProgressPhoto records a proof for the progress feed only.
func (s *clientService) AddProgressPhoto(ctx context.Context, clientID primitive.ObjectID, photo *ProofUpload, notes string) (*ProofDetails, error) {
	return s.recordProof(ctx, clientID, photo, notes)
}

func (s *clientService) recordProof(ctx context.Context, clientID primitive.ObjectID, photo *ProofUpload, notes string) (*ProofDetails, error) {
	if photo == nil || photo.Body == nil {
		return nil, ErrPhotoRequired
	}

	ext := strings.TrimPrefix(strings.ToLower(path.Ext(photo.FileName)), ".")
	if ext == "" {
		ext = "jpg"
	}
	objectKey := path.Join("proofs", clientID.Hex(), fmt.Sprintf("%s.%s", uuid.NewString(), ext))

	if err := s.fileStorage.Upload(ctx, objectKey, photo.ContentType, photo.Body, photo.Size); err != nil {
		return nil, ErrPhotoStorage
	}

	proof := &domain.WorkoutProof{
		ClientID:  clientID,
		ImageKey:  objectKey,
		Notes:     notes,
		CreatedAt: s.now().UTC(),
	}

	proofID, err := s.proofRepo.Create(ctx, proof)
	if err != nil {
		return nil, err
	}
	proof.ID = proofID

	details := &ProofDetails{WorkoutProof: *proof}
	if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, objectKey, storage.DefaultPresignedURLExpiry); err == nil {
		details.ImageURL = url
	}
	return details, nil
}

// Progress returns the full proof feed, newest first.
func (s *clientService) Progress(ctx context.Context, clientID primitive.ObjectID) ([]ProofDetails, error) {
	proofs, err := s.proofRepo.GetByClientID(ctx, clientID, 0)
	if err != nil {
		return nil, err
	}
	return s.enrichProofs(ctx, proofs), nil
}

func (s *clientService) enrichProofs(ctx context.Context, proofs []domain.WorkoutProof) []ProofDetails {
	details := make([]ProofDetails, len(proofs))
	for i, p := range proofs {
		details[i] = ProofDetails{WorkoutProof: p}
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, p.ImageKey, storage.DefaultPresignedURLExpiry); err == nil {
			details[i].ImageURL = url
		}
	}
	return details
}

// === Videos ===

// Videos lists content from the client's coach plus anything tagged with
// the client's current category. Clients without history default to the
// normal bucket.
func (s *clientService) Videos(ctx context.Context, clientID primitive.ObjectID) ([]domain.Video, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	category := domain.CategoryNormal
	if snapshot, err := s.imtService.CurrentSnapshot(ctx, clientID); err == nil {
		category = snapshot.Category
	}

	return s.videoRepo.GetForClient(ctx, client.CoachID, category)
}

// === Messaging ===

// Messages returns the conversation with the client's coach, oldest
// first, and marks the coach's unread messages read as a side effect.
// Repeated fetches are no-ops once everything is marked.
func (s *clientService) Messages(ctx context.Context, clientID primitive.ObjectID) ([]MessageDetails, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if client.CoachID == nil {
		return []MessageDetails{}, nil
	}

	messages, err := s.messageRepo.GetThread(ctx, clientID, *client.CoachID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.MarkThreadRead(ctx, *client.CoachID, clientID); err != nil {
		return nil, err
	}

	return s.enrichMessages(ctx, messages), nil
}

// SendMessage sends to the client's coach; a client without a coach
// cannot message anyone.
func (s *clientService) SendMessage(ctx context.Context, clientID primitive.ObjectID, content string) (*MessageDetails, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}

	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	if client.CoachID == nil {
		return nil, ErrNoCoachAssigned
	}

	message := &domain.Message{
		SenderID:   clientID,
		ReceiverID: *client.CoachID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}

	messageID, err := s.messageRepo.Create(ctx, message)
	if err != nil {
		return nil, err
	}
	message.ID = messageID

	return &MessageDetails{Message: *message, SenderName: client.Name}, nil
}

// enrichMessages resolves sender names, caching lookups per call.
func (s *clientService) enrichMessages(ctx context.Context, messages []domain.Message) []MessageDetails {
	names := make(map[primitive.ObjectID]string)
	details := make([]MessageDetails, len(messages))
	for i, m := range messages {
		details[i] = MessageDetails{Message: m}
		name, ok := names[m.SenderID]
		if !ok {
			if sender, err := s.userRepo.GetByID(ctx, m.SenderID); err == nil {
				name = sender.Name
			}
			names[m.SenderID] = name
		}
		details[i].SenderName = name
	}
	return details
}

// === Recommendations ===

func (s *clientService) Recommendations(ctx context.Context, clientID primitive.ObjectID) ([]domain.Recommendation, error) {
	return s.recRepo.GetByClientID(ctx, clientID, 0)
}

func (s *clientService) FoodRecommendations(ctx context.Context, clientID primitive.ObjectID) ([]domain.FoodRecommendation, error) {
	return s.foodRecRepo.GetByClientID(ctx, clientID)
}
