package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"testing"
)

func newAdminServiceFixture(t *testing.T) (*adminService, *fakeUserRepo, *fakeVideoRepo, *fakeMessageRepo) {
	t.Helper()
	userRepo := newFakeUserRepo()
	videoRepo := newFakeVideoRepo()
	messageRepo := &fakeMessageRepo{}
	svc := NewAdminService(userRepo, videoRepo, messageRepo, nil).(*adminService)
	return svc, userRepo, videoRepo, messageRepo
}

func TestStatsWithoutCache(t *testing.T) {
	svc, userRepo, videoRepo, messageRepo := newAdminServiceFixture(t)

	coach := userRepo.add(&domain.User{Name: "Coach Sam", Phone: "555-0100", Role: domain.RoleCoach})
	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient, CoachID: &coach.ID})
	userRepo.add(&domain.User{Name: "Root", Phone: "555-0001", Role: domain.RoleAdmin})

	videoRepo.Create(context.Background(), &domain.Video{CoachID: coach.ID, Title: "Squats"})
	messageRepo.Create(context.Background(), &domain.Message{SenderID: coach.ID, ReceiverID: client.ID, Content: "hi"})
	messageRepo.Create(context.Background(), &domain.Message{SenderID: client.ID, ReceiverID: coach.ID, Content: "hi back"})

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.ClientCount != 1 || stats.CoachCount != 1 {
		t.Errorf("unexpected user counts: %+v", stats)
	}
	if stats.VideoCount != 1 || stats.MessageCount != 2 {
		t.Errorf("unexpected content counts: %+v", stats)
	}
}

func TestCreateCoachRejectsDuplicatePhone(t *testing.T) {
	svc, _, _, _ := newAdminServiceFixture(t)

	coach, err := svc.CreateCoach(context.Background(), "Coach Sam", "555-0100", "secret-pass")
	if err != nil {
		t.Fatalf("CreateCoach failed: %v", err)
	}
	if coach.Role != domain.RoleCoach {
		t.Errorf("expected coach role, got %v", coach.Role)
	}
	if coach.PasswordHash != "" {
		t.Error("password hash must be stripped from the response")
	}

	_, err = svc.CreateCoach(context.Background(), "Imposter", "555-0100", "secret-pass")
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Errorf("expected ErrUserAlreadyExists, got %v", err)
	}
}

func TestAssignCoach(t *testing.T) {
	svc, userRepo, _, _ := newAdminServiceFixture(t)

	coach := userRepo.add(&domain.User{Name: "Coach Sam", Phone: "555-0100", Role: domain.RoleCoach})
	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	updated, err := svc.AssignCoach(context.Background(), client.ID, &coach.ID)
	if err != nil {
		t.Fatalf("AssignCoach failed: %v", err)
	}
	if updated.CoachID == nil || *updated.CoachID != coach.ID {
		t.Error("expected coach assigned")
	}

	// Nil clears the assignment.
	updated, err = svc.AssignCoach(context.Background(), client.ID, nil)
	if err != nil {
		t.Fatalf("AssignCoach (clear) failed: %v", err)
	}
	if updated.CoachID != nil {
		t.Error("expected coach cleared")
	}
}

func TestAssignCoachRejectsNonCoach(t *testing.T) {
	svc, userRepo, _, _ := newAdminServiceFixture(t)

	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})
	otherClient := userRepo.add(&domain.User{Name: "Nina", Phone: "555-0102", Role: domain.RoleClient})

	_, err := svc.AssignCoach(context.Background(), client.ID, &otherClient.ID)
	if !errors.Is(err, ErrCoachNotFound) {
		t.Errorf("expected ErrCoachNotFound when assigning a non-coach, got %v", err)
	}
}

func TestDeleteCoachOrphansClients(t *testing.T) {
	svc, userRepo, _, _ := newAdminServiceFixture(t)

	coach := userRepo.add(&domain.User{Name: "Coach Sam", Phone: "555-0100", Role: domain.RoleCoach})
	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient, CoachID: &coach.ID})

	if err := svc.DeleteCoach(context.Background(), coach.ID); err != nil {
		t.Fatalf("DeleteCoach failed: %v", err)
	}

	updated, err := userRepo.GetByID(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("client lookup failed: %v", err)
	}
	if updated.CoachID != nil {
		t.Error("expected the client unassigned after the coach was deleted")
	}
}

func TestDeleteCoachRejectsWrongRole(t *testing.T) {
	svc, userRepo, _, _ := newAdminServiceFixture(t)

	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	if err := svc.DeleteCoach(context.Background(), client.ID); !errors.Is(err, ErrNotACoach) {
		t.Errorf("expected ErrNotACoach, got %v", err)
	}
}

func TestGetAllVideosIncludesCoachName(t *testing.T) {
	svc, userRepo, videoRepo, _ := newAdminServiceFixture(t)

	coach := userRepo.add(&domain.User{Name: "Coach Sam", Phone: "555-0100", Role: domain.RoleCoach})
	videoRepo.Create(context.Background(), &domain.Video{CoachID: coach.ID, Title: "Squats"})

	videos, err := svc.GetAllVideos(context.Background())
	if err != nil {
		t.Fatalf("GetAllVideos failed: %v", err)
	}
	if len(videos) != 1 {
		t.Fatalf("expected 1 video, got %d", len(videos))
	}
	if videos[0].CoachName != "Coach Sam" {
		t.Errorf("expected coach name on the video, got %q", videos[0].CoachName)
	}
}
