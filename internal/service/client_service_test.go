package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"strings"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type clientServiceFixture struct {
	svc          *clientService
	userRepo     *fakeUserRepo
	historyRepo  *fakeIMTHistoryRepo
	scheduleRepo *fakeScheduleRepo
	proofRepo    *fakeProofRepo
	messageRepo  *fakeMessageRepo
	videoRepo    *fakeVideoRepo
	storage      *fakeStorage
	coach        *domain.User
	client       *domain.User
}

func newClientServiceFixture(t *testing.T) *clientServiceFixture {
	t.Helper()

	userRepo := newFakeUserRepo()
	historyRepo := &fakeIMTHistoryRepo{}
	scheduleRepo := newFakeScheduleRepo()
	proofRepo := &fakeProofRepo{}
	messageRepo := &fakeMessageRepo{}
	videoRepo := newFakeVideoRepo()
	fileStorage := newFakeStorage()

	coach := userRepo.add(&domain.User{Name: "Coach Sam", Phone: "555-0100", Role: domain.RoleCoach})
	client := userRepo.add(&domain.User{
		Name: "Dina", Phone: "555-0101", Role: domain.RoleClient, CoachID: &coach.ID,
	})

	imtService := NewIMTService(userRepo, historyRepo)
	svc := NewClientService(
		userRepo, imtService, scheduleRepo, proofRepo,
		&fakeRecommendationRepo{}, &fakeFoodRecommendationRepo{},
		messageRepo, videoRepo, fileStorage,
	).(*clientService)

	return &clientServiceFixture{
		svc:          svc,
		userRepo:     userRepo,
		historyRepo:  historyRepo,
		scheduleRepo: scheduleRepo,
		proofRepo:    proofRepo,
		messageRepo:  messageRepo,
		videoRepo:    videoRepo,
		storage:      fileStorage,
		coach:        coach,
		client:       client,
	}
}

func testPhoto() *ProofUpload {
	return &ProofUpload{
		FileName:    "proof.jpg",
		ContentType: "image/jpeg",
		Size:        4,
		Body:        strings.NewReader("data"),
	}
}

func TestDashboard(t *testing.T) {
	f := newClientServiceFixture(t)
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	f.userRepo.UpdateMeasurements(context.Background(), f.client.ID, 55, 160)
	f.scheduleRepo.Create(context.Background(), &domain.Schedule{
		ClientID: f.client.ID,
		Date:     domain.NormalizeToDay(now),
		Title:    "Leg day",
	})

	dashboard, err := f.svc.Dashboard(context.Background(), f.client.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if dashboard.Coach == nil || dashboard.Coach.Name != "Coach Sam" {
		t.Error("expected the assigned coach on the dashboard")
	}
	if dashboard.IMT == nil || dashboard.Category != domain.CategoryNormal {
		t.Error("expected an IMT snapshot derived from cached measurements")
	}
	if !dashboard.HasTodayWorkout {
		t.Error("expected hasTodayWorkout with a schedule for today")
	}
	if dashboard.WorkoutDone {
		t.Error("workout must not be done before any proof is submitted")
	}
}

func TestDashboardWithoutScheduleOrMeasurements(t *testing.T) {
	f := newClientServiceFixture(t)

	dashboard, err := f.svc.Dashboard(context.Background(), f.client.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if dashboard.IMT != nil {
		t.Error("expected no IMT without measurements")
	}
	if dashboard.HasTodayWorkout || dashboard.WorkoutDone {
		t.Error("expected a blank workout state")
	}
}

func TestMarkWorkoutDone(t *testing.T) {
	f := newClientServiceFixture(t)
	now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return now }

	scheduleID, _ := f.scheduleRepo.Create(context.Background(), &domain.Schedule{
		ClientID: f.client.ID,
		Date:     domain.NormalizeToDay(now),
		Title:    "Leg day",
	})

	proof, err := f.svc.MarkWorkoutDone(context.Background(), f.client.ID, testPhoto(), "")
	if err != nil {
		t.Fatalf("MarkWorkoutDone failed: %v", err)
	}

	if proof.Notes != "Workout completed" {
		t.Errorf("expected default notes, got %q", proof.Notes)
	}
	if proof.ImageURL == "" {
		t.Error("expected a presigned image URL on the response")
	}
	if len(f.storage.uploads) != 1 {
		t.Fatalf("expected one stored object, got %d", len(f.storage.uploads))
	}
	for key := range f.storage.uploads {
		if !strings.HasPrefix(key, "proofs/"+f.client.ID.Hex()+"/") {
			t.Errorf("object key %q not scoped to the client", key)
		}
	}

	schedule, _ := f.scheduleRepo.GetByID(context.Background(), scheduleID)
	if !schedule.Completed {
		t.Error("expected today's schedule to be flipped to completed")
	}

	// With the proof stored, the dashboard reports the workout as done.
	dashboard, err := f.svc.Dashboard(context.Background(), f.client.ID)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !dashboard.WorkoutDone {
		t.Error("expected workoutDone after submitting a proof")
	}
}

func TestMarkWorkoutDoneWithoutSchedule(t *testing.T) {
	f := newClientServiceFixture(t)

	if _, err := f.svc.MarkWorkoutDone(context.Background(), f.client.ID, testPhoto(), "extra set"); err != nil {
		t.Fatalf("MarkWorkoutDone failed: %v", err)
	}
	if len(f.proofRepo.proofs) != 1 {
		t.Errorf("expected the proof to be stored even without a schedule")
	}
}

func TestMarkWorkoutDoneRequiresPhoto(t *testing.T) {
	f := newClientServiceFixture(t)

	_, err := f.svc.MarkWorkoutDone(context.Background(), f.client.ID, nil, "")
	if !errors.Is(err, ErrPhotoRequired) {
		t.Errorf("expected ErrPhotoRequired, got %v", err)
	}
	if len(f.proofRepo.proofs) != 0 {
		t.Error("no proof row may be created without a photo")
	}
}

func TestVideosFallsBackToNormalCategory(t *testing.T) {
	f := newClientServiceFixture(t)
	otherCoach := f.userRepo.add(&domain.User{Name: "Other", Phone: "555-0199", Role: domain.RoleCoach})

	f.videoRepo.Create(context.Background(), &domain.Video{CoachID: f.coach.ID, Title: "From my coach", Category: domain.CategoryObese})
	f.videoRepo.Create(context.Background(), &domain.Video{CoachID: otherCoach.ID, Title: "Normal routine", Category: domain.CategoryNormal})
	f.videoRepo.Create(context.Background(), &domain.Video{CoachID: otherCoach.ID, Title: "Obese routine", Category: domain.CategoryObese})

	// No measurements at all, so the category defaults to normal.
	videos, err := f.svc.Videos(context.Background(), f.client.ID)
	if err != nil {
		t.Fatalf("Videos failed: %v", err)
	}

	titles := make(map[string]bool)
	for _, v := range videos {
		titles[v.Title] = true
	}
	if !titles["From my coach"] {
		t.Error("expected the coach's own video regardless of category")
	}
	if !titles["Normal routine"] {
		t.Error("expected the normal-category video for a client without measurements")
	}
	if titles["Obese routine"] {
		t.Error("did not expect another coach's off-category video")
	}
}

func TestMessagesMarksCoachMessagesRead(t *testing.T) {
	f := newClientServiceFixture(t)

	f.messageRepo.Create(context.Background(), &domain.Message{
		SenderID: f.coach.ID, ReceiverID: f.client.ID, Content: "How was the session?",
	})
	f.messageRepo.Create(context.Background(), &domain.Message{
		SenderID: f.client.ID, ReceiverID: f.coach.ID, Content: "Great!",
	})

	messages, err := f.svc.Messages(context.Background(), f.client.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(messages))
	}
	if messages[0].SenderName != "Coach Sam" {
		t.Errorf("expected sender name enrichment, got %q", messages[0].SenderName)
	}

	unread, _ := f.messageRepo.CountUnread(context.Background(), f.coach.ID, f.client.ID)
	if unread != 0 {
		t.Errorf("expected coach messages marked read, %d still unread", unread)
	}

	// The client's own message must stay unread for the coach.
	unread, _ = f.messageRepo.CountUnread(context.Background(), f.client.ID, f.coach.ID)
	if unread != 1 {
		t.Errorf("expected the client's message to remain unread for the coach, got %d", unread)
	}

	// A second fetch marks nothing further.
	marked, _ := f.messageRepo.MarkThreadRead(context.Background(), f.coach.ID, f.client.ID)
	if marked != 0 {
		t.Errorf("expected repeat read-marking to be a no-op, marked %d", marked)
	}
}

func TestSendMessageRequiresCoach(t *testing.T) {
	f := newClientServiceFixture(t)
	orphan := f.userRepo.add(&domain.User{Name: "Solo", Phone: "555-0102", Role: domain.RoleClient})

	_, err := f.svc.SendMessage(context.Background(), orphan.ID, "hello?")
	if !errors.Is(err, ErrNoCoachAssigned) {
		t.Errorf("expected ErrNoCoachAssigned, got %v", err)
	}

	message, err := f.svc.SendMessage(context.Background(), f.client.ID, "hello")
	if err != nil {
		t.Fatalf("SendMessage failed: %v", err)
	}
	if message.ReceiverID != f.coach.ID {
		t.Error("expected the message addressed to the assigned coach")
	}
}

func TestMessagesWithoutCoachReturnsEmpty(t *testing.T) {
	f := newClientServiceFixture(t)
	orphan := f.userRepo.add(&domain.User{Name: "Solo", Phone: "555-0102", Role: domain.RoleClient})

	messages, err := f.svc.Messages(context.Background(), orphan.ID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	if len(messages) != 0 {
		t.Errorf("expected an empty thread, got %d messages", len(messages))
	}
}

func TestDashboardUnknownClient(t *testing.T) {
	f := newClientServiceFixture(t)

	_, err := f.svc.Dashboard(context.Background(), primitive.NewObjectID())
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
