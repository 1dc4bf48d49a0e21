package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"imtfit/coaching-app/internal/storage"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrClientNotFound         = errors.New("client not found")
	ErrClientNotAssigned      = errors.New("client is not assigned to this coach")
	ErrScheduleNotFound       = errors.New("schedule not found")
	ErrScheduleDateTaken      = errors.New("a schedule already exists for that date")
	ErrVideoNotFound          = errors.New("video not found")
	ErrVideoNotOwned          = errors.New("video does not belong to this coach")
	ErrRecommendationNotFound = errors.New("recommendation not found")
)

// DefaultScheduleTitle is used when the coach creates a schedule row
// without naming the session.
const DefaultScheduleTitle = "Training session"

const detailHistoryLimit = 10
const detailProofLimit = 10
const detailRecommendationLimit = 5

// ClientSummary is a roster entry with the client's latest IMT state.
type ClientSummary struct {
	Client   *domain.User    `json:"client"`
	IMT      *float64        `json:"imt,omitempty"`
	Category domain.Category `json:"category,omitempty"`
}

// CoachDashboard is the aggregate payload for the coach landing view.
type CoachDashboard struct {
	ClientCount int64           `json:"clientCount"`
	Clients     []ClientSummary `json:"clients"`
}

// ClientDetail is the per-client drill-down: recent history, proofs and
// recommendations alongside the roster summary.
type ClientDetail struct {
	ClientSummary
	History             []domain.IMTRecord          `json:"history"`
	Proofs              []ProofDetails              `json:"proofs"`
	Schedules           []domain.Schedule           `json:"schedules"`
	Recommendations     []domain.Recommendation     `json:"recommendations"`
	FoodRecommendations []domain.FoodRecommendation `json:"foodRecommendations"`
}

// ClientSchedules groups one client's calendar for the coach's planner view.
type ClientSchedules struct {
	Client    *domain.User      `json:"client"`
	Schedules []domain.Schedule `json:"schedules"`
}

// ChatSummary is one row in the coach's conversation list.
type ChatSummary struct {
	Client      *domain.User    `json:"client"`
	UnreadCount int64           `json:"unreadCount"`
	LastMessage *domain.Message `json:"lastMessage,omitempty"`
}

// CoachService covers every coach-scoped operation: roster, schedules,
// recommendations, videos and messaging.
type CoachService interface {
	Dashboard(ctx context.Context, coachID primitive.ObjectID) (*CoachDashboard, error)
	GetClients(ctx context.Context, coachID primitive.ObjectID) ([]ClientSummary, error)
	GetClientDetail(ctx context.Context, coachID, clientID primitive.ObjectID) (*ClientDetail, error)

	GetSchedules(ctx context.Context, coachID primitive.ObjectID) ([]ClientSchedules, error)
	// CreateSchedule fails with ErrScheduleDateTaken when the client
	// already has a row for that calendar day.
	CreateSchedule(ctx context.Context, coachID, clientID primitive.ObjectID, date time.Time, title string) (*domain.Schedule, error)
	SetScheduleCompleted(ctx context.Context, coachID, scheduleID primitive.ObjectID, completed bool) (*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, coachID, scheduleID primitive.ObjectID) error

	CreateRecommendation(ctx context.Context, coachID, clientID primitive.ObjectID, title, description string, exercises []string) (*domain.Recommendation, error)
	DeleteRecommendation(ctx context.Context, coachID, recID primitive.ObjectID) error
	CreateFoodRecommendation(ctx context.Context, coachID, clientID primitive.ObjectID, title, description, mealType string, foods []string) (*domain.FoodRecommendation, error)
	DeleteFoodRecommendation(ctx context.Context, coachID, recID primitive.ObjectID) error

	GetVideos(ctx context.Context, coachID primitive.ObjectID) ([]domain.Video, error)
	CreateVideo(ctx context.Context, coachID primitive.ObjectID, title, description, videoURL string, category domain.Category) (*domain.Video, error)
	UpdateVideo(ctx context.Context, coachID, videoID primitive.ObjectID, title, description, videoURL string, category domain.Category) (*domain.Video, error)
	DeleteVideo(ctx context.Context, coachID, videoID primitive.ObjectID) error

	ChatList(ctx context.Context, coachID primitive.ObjectID) ([]ChatSummary, error)
	GetMessages(ctx context.Context, coachID, clientID primitive.ObjectID) ([]MessageDetails, error)
	SendMessage(ctx context.Context, coachID, clientID primitive.ObjectID, content string) (*MessageDetails, error)
}

// --- Service Implementation ---

type coachService struct {
	userRepo     repository.UserRepository
	imtService   IMTService
	scheduleRepo repository.ScheduleRepository
	proofRepo    repository.WorkoutProofRepository
	recRepo      repository.RecommendationRepository
	foodRecRepo  repository.FoodRecommendationRepository
	messageRepo  repository.MessageRepository
	videoRepo    repository.VideoRepository
	fileStorage  fileURLSigner
	now          func() time.Time
}

// fileURLSigner is the slice of storage the coach side needs: turning
// stored object keys into temporary URLs.
type fileURLSigner interface {
	GeneratePresignedDownloadURL(ctx context.Context, objectKey string, lifetime time.Duration) (string, error)
}

// NewCoachService creates a new instance of coachService.
func NewCoachService(
	userRepo repository.UserRepository,
	imtService IMTService,
	scheduleRepo repository.ScheduleRepository,
	proofRepo repository.WorkoutProofRepository,
	recRepo repository.RecommendationRepository,
	foodRecRepo repository.FoodRecommendationRepository,
	messageRepo repository.MessageRepository,
	videoRepo repository.VideoRepository,
	fileStorage fileURLSigner,
) CoachService {
	return &coachService{
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

// === Roster ===

func (s *coachService) Dashboard(ctx context.Context, coachID primitive.ObjectID) (*CoachDashboard, error) {
	count, err := s.userRepo.CountClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	clients, err := s.GetClients(ctx, coachID)
	if err != nil {
		return nil, err
	}

	return &CoachDashboard{ClientCount: count, Clients: clients}, nil
}

// GetClients lists the coach's clients, each with their latest IMT
// snapshot when one can be derived.
func (s *coachService) GetClients(ctx context.Context, coachID primitive.ObjectID) ([]ClientSummary, error) {
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ClientSummary, len(clients))
	for i := range clients {
		clients[i].PasswordHash = ""
		summaries[i] = ClientSummary{Client: &clients[i]}
		if snapshot, err := s.imtService.CurrentSnapshot(ctx, clients[i].ID); err == nil {
			imt := snapshot.IMT
			summaries[i].IMT = &imt
			summaries[i].Category = snapshot.Category
		}
	}
	return summaries, nil
}

// ownedClient loads the client and verifies it belongs to the coach.
func (s *coachService) ownedClient(ctx context.Context, coachID, clientID primitive.ObjectID) (*domain.User, error) {
	client, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrClientNotFound
		}
		return nil, err
	}
	if !client.IsClient() || client.CoachID == nil || *client.CoachID != coachID {
		return nil, ErrClientNotAssigned
	}
	return client, nil
}

func (s *coachService) GetClientDetail(ctx context.Context, coachID, clientID primitive.ObjectID) (*ClientDetail, error) {
	client, err := s.ownedClient(ctx, coachID, clientID)
	if err != nil {
		return nil, err
	}
	client.PasswordHash = ""

	detail := &ClientDetail{ClientSummary: ClientSummary{Client: client}}

	if snapshot, err := s.imtService.CurrentSnapshot(ctx, clientID); err == nil {
		imt := snapshot.IMT
		detail.IMT = &imt
		detail.Category = snapshot.Category
	}

	history, err := s.imtService.History(ctx, clientID, detailHistoryLimit)
	if err != nil {
		return nil, err
	}
	detail.History = history

	proofs, err := s.proofRepo.GetByClientID(ctx, clientID, detailProofLimit)
	if err != nil {
		return nil, err
	}
	detail.Proofs = make([]ProofDetails, len(proofs))
	for i, p := range proofs {
		detail.Proofs[i] = ProofDetails{WorkoutProof: p}
		if url, err := s.fileStorage.GeneratePresignedDownloadURL(ctx, p.ImageKey, storage.DefaultPresignedURLExpiry); err == nil {
			detail.Proofs[i].ImageURL = url
		}
	}

	schedules, err := s.scheduleRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	detail.Schedules = schedules

	recs, err := s.recRepo.GetByClientID(ctx, clientID, detailRecommendationLimit)
	if err != nil {
		return nil, err
	}
	detail.Recommendations = recs

	foodRecs, err := s.foodRecRepo.GetByClientID(ctx, clientID)
	if err != nil {
		return nil, err
	}
	detail.FoodRecommendations = foodRecs

	return detail, nil
}

// === Schedules ===

func (s *coachService) GetSchedules(ctx context.Context, coachID primitive.ObjectID) ([]ClientSchedules, error) {
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	result := make([]ClientSchedules, len(clients))
	for i := range clients {
		clients[i].PasswordHash = ""
		schedules, err := s.scheduleRepo.GetByClientID(ctx, clients[i].ID)
		if err != nil {
			return nil, err
		}
		result[i] = ClientSchedules{Client: &clients[i], Schedules: schedules}
	}
	return result, nil
}

func (s *coachService) CreateSchedule(ctx context.Context, coachID, clientID primitive.ObjectID, date time.Time, title string) (*domain.Schedule, error) {
	if _, err := s.ownedClient(ctx, coachID, clientID); err != nil {
		return nil, err
	}

	if title == "" {
		title = DefaultScheduleTitle
	}

	now := s.now().UTC()
	schedule := &domain.Schedule{
		ClientID:  clientID,
		Date:      domain.NormalizeToDay(date),
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	scheduleID, err := s.scheduleRepo.Create(ctx, schedule)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrScheduleDateTaken
		}
		return nil, err
	}
	schedule.ID = scheduleID

	return schedule, nil
}

// ownedSchedule verifies the schedule's client belongs to the coach.
func (s *coachService) ownedSchedule(ctx context.Context, coachID, scheduleID primitive.ObjectID) (*domain.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, scheduleID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	if _, err := s.ownedClient(ctx, coachID, schedule.ClientID); err != nil {
		return nil, err
	}
	return schedule, nil
}

func (s *coachService) SetScheduleCompleted(ctx context.Context, coachID, scheduleID primitive.ObjectID, completed bool) (*domain.Schedule, error) {
	if _, err := s.ownedSchedule(ctx, coachID, scheduleID); err != nil {
		return nil, err
	}

	updated, err := s.scheduleRepo.SetCompleted(ctx, scheduleID, completed)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return updated, nil
}

func (s *coachService) DeleteSchedule(ctx context.Context, coachID, scheduleID primitive.ObjectID) error {
	if _, err := s.ownedSchedule(ctx, coachID, scheduleID); err != nil {
		return err
	}

	if err := s.scheduleRepo.Delete(ctx, scheduleID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrScheduleNotFound
		}
		return err
	}
	return nil
}

// === Recommendations ===

func (s *coachService) CreateRecommendation(ctx context.Context, coachID, clientID primitive.ObjectID, title, description string, exercises []string) (*domain.Recommendation, error) {
	if _, err := s.ownedClient(ctx, coachID, clientID); err != nil {
		return nil, err
	}

	rec := &domain.Recommendation{
		ClientID:    clientID,
		CoachID:     coachID,
		Title:       title,
		Description: description,
		Exercises:   exercises,
		CreatedAt:   s.now().UTC(),
	}

	recID, err := s.recRepo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = recID

	return rec, nil
}

func (s *coachService) DeleteRecommendation(ctx context.Context, coachID, recID primitive.ObjectID) error {
	if err := s.recRepo.Delete(ctx, recID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
			return ErrRecommendationNotFound
		}
		return err
	}
	return nil
}

func (s *coachService) CreateFoodRecommendation(ctx context.Context, coachID, clientID primitive.ObjectID, title, description, mealType string, foods []string) (*domain.FoodRecommendation, error) {
	if _, err := s.ownedClient(ctx, coachID, clientID); err != nil {
		return nil, err
	}

	rec := &domain.FoodRecommendation{
		ClientID:    clientID,
		CoachID:     coachID,
		Title:       title,
		Description: description,
		Foods:       foods,
		MealType:    mealType,
		CreatedAt:   s.now().UTC(),
	}

	recID, err := s.foodRecRepo.Create(ctx, rec)
	if err != nil {
		return nil, err
	}
	rec.ID = recID

	return rec, nil
}

func (s *coachService) DeleteFoodRecommendation(ctx context.Context, coachID, recID primitive.ObjectID) error {
	if err := s.foodRecRepo.Delete(ctx, recID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
			return ErrRecommendationNotFound
		}
		return err
	}
	return nil
}

// === Videos ===

func (s *coachService) GetVideos(ctx context.Context, coachID primitive.ObjectID) ([]domain.Video, error) {
	return s.videoRepo.GetByCoachID(ctx, coachID)
}

func (s *coachService) CreateVideo(ctx context.Context, coachID primitive.ObjectID, title, description, videoURL string, category domain.Category) (*domain.Video, error) {
	now := s.now().UTC()
	video := &domain.Video{
		CoachID:     coachID,
		Title:       title,
		Description: description,
		VideoURL:    videoURL,
		Category:    category,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	videoID, err := s.videoRepo.Create(ctx, video)
	if err != nil {
		return nil, err
	}
	video.ID = videoID

	return video, nil
}

func (s *coachService) UpdateVideo(ctx context.Context, coachID, videoID primitive.ObjectID, title, description, videoURL string, category domain.Category) (*domain.Video, error) {
	video, err := s.videoRepo.GetByID(ctx, videoID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrVideoNotFound
		}
		return nil, err
	}
	if video.CoachID != coachID {
		return nil, ErrVideoNotOwned
	}

	video.Title = title
	video.Description = description
	video.VideoURL = videoURL
	video.Category = category
	video.UpdatedAt = s.now().UTC()

	if err := s.videoRepo.Update(ctx, video); err != nil {
		return nil, err
	}
	return video, nil
}

func (s *coachService) DeleteVideo(ctx context.Context, coachID, videoID primitive.ObjectID) error {
	if err := s.videoRepo.Delete(ctx, videoID, coachID); err != nil {
		if errors.Is(err, repository.ErrNotFound) || errors.Is(err, repository.ErrDeleteFailed) {
			return ErrVideoNotFound
		}
		return err
	}
	return nil
}

// === Messaging ===

// ChatList shows one row per client with the unread count and the most
// recent message in the thread, so the coach can triage conversations.
func (s *coachService) ChatList(ctx context.Context, coachID primitive.ObjectID) ([]ChatSummary, error) {
	clients, err := s.userRepo.GetClientsByCoachID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	summaries := make([]ChatSummary, len(clients))
	for i := range clients {
		clients[i].PasswordHash = ""
		summaries[i] = ChatSummary{Client: &clients[i]}

		unread, err := s.messageRepo.CountUnread(ctx, clients[i].ID, coachID)
		if err != nil {
			return nil, err
		}
		summaries[i].UnreadCount = unread

		last, err := s.messageRepo.GetLatestInThread(ctx, coachID, clients[i].ID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		summaries[i].LastMessage = last
	}
	return summaries, nil
}

// GetMessages returns the conversation with one client, oldest first,
// and marks the client's unread messages read as a side effect.
func (s *coachService) GetMessages(ctx context.Context, coachID, clientID primitive.ObjectID) ([]MessageDetails, error) {
	client, err := s.ownedClient(ctx, coachID, clientID)
	if err != nil {
		return nil, err
	}

	messages, err := s.messageRepo.GetThread(ctx, coachID, clientID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.MarkThreadRead(ctx, clientID, coachID); err != nil {
		return nil, err
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	names := map[primitive.ObjectID]string{
		coachID:  coach.Name,
		clientID: client.Name,
	}
	details := make([]MessageDetails, len(messages))
	for i, m := range messages {
		details[i] = MessageDetails{Message: m, SenderName: names[m.SenderID]}
	}
	return details, nil
}

func (s *coachService) SendMessage(ctx context.Context, coachID, clientID primitive.ObjectID, content string) (*MessageDetails, error) {
	if content == "" {
		return nil, errors.New("message content cannot be empty")
	}

	if _, err := s.ownedClient(ctx, coachID, clientID); err != nil {
		return nil, err
	}

	coach, err := s.userRepo.GetByID(ctx, coachID)
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		SenderID:   coachID,
		ReceiverID: clientID,
		Content:    content,
		CreatedAt:  s.now().UTC(),
	}

	messageID, err := s.messageRepo.Create(ctx, message)
	if err != nil {
		return nil, err
	}
	message.ID = messageID

	return &MessageDetails{Message: *message, SenderName: coach.Name}, nil
}
