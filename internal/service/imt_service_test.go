package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"math"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func float64Ptr(v float64) *float64 { return &v }

func TestRecordSnapshot(t *testing.T) {
	userRepo := newFakeUserRepo()
	historyRepo := &fakeIMTHistoryRepo{}
	svc := NewIMTService(userRepo, historyRepo)

	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	record, err := svc.RecordSnapshot(context.Background(), client.ID, 55, 160)
	if err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}

	if record.ID.IsZero() {
		t.Error("expected a persisted record with an ID")
	}
	if record.Category != domain.CategoryNormal {
		t.Errorf("expected normal category, got %v", record.Category)
	}
	if math.Abs(record.IMT-21.48) > 0.01 {
		t.Errorf("expected IMT around 21.48, got %v", record.IMT)
	}

	// The cached measurements on the user record must be refreshed too.
	updated, _ := userRepo.GetByID(context.Background(), client.ID)
	if updated.Weight == nil || *updated.Weight != 55 {
		t.Error("expected cached weight to be updated")
	}
	if updated.Height == nil || *updated.Height != 160 {
		t.Error("expected cached height to be updated")
	}
}

func TestRecordSnapshotValidation(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewIMTService(userRepo, &fakeIMTHistoryRepo{})
	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	tests := []struct {
		name   string
		weight float64
		height float64
	}{
		{"zero weight", 0, 170},
		{"negative weight", -5, 170},
		{"zero height", 70, 0},
		{"negative height", 70, -170},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.RecordSnapshot(context.Background(), client.ID, tt.weight, tt.height)
			if !errors.Is(err, ErrInvalidMeasurement) {
				t.Errorf("expected ErrInvalidMeasurement, got %v", err)
			}
		})
	}
}

func TestRecordSnapshotUnknownClient(t *testing.T) {
	svc := NewIMTService(newFakeUserRepo(), &fakeIMTHistoryRepo{})

	_, err := svc.RecordSnapshot(context.Background(), primitive.NewObjectID(), 70, 170)
	if !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func TestCurrentSnapshotPrefersHistory(t *testing.T) {
	userRepo := newFakeUserRepo()
	historyRepo := &fakeIMTHistoryRepo{}
	svc := NewIMTService(userRepo, historyRepo)

	// Stale cached measurements that should be ignored once history exists.
	client := userRepo.add(&domain.User{
		Name: "Dina", Phone: "555-0101", Role: domain.RoleClient,
		Weight: float64Ptr(90), Height: float64Ptr(160),
	})

	if _, err := svc.RecordSnapshot(context.Background(), client.ID, 55, 160); err != nil {
		t.Fatalf("RecordSnapshot failed: %v", err)
	}

	snapshot, err := svc.CurrentSnapshot(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("CurrentSnapshot failed: %v", err)
	}
	if snapshot.Weight != 55 {
		t.Errorf("expected latest recorded weight 55, got %v", snapshot.Weight)
	}
}

func TestCurrentSnapshotFallsBackToCachedMeasurements(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewIMTService(userRepo, &fakeIMTHistoryRepo{})

	client := userRepo.add(&domain.User{
		Name: "Dina", Phone: "555-0101", Role: domain.RoleClient,
		Weight: float64Ptr(58), Height: float64Ptr(160),
	})

	snapshot, err := svc.CurrentSnapshot(context.Background(), client.ID)
	if err != nil {
		t.Fatalf("CurrentSnapshot failed: %v", err)
	}

	if !snapshot.ID.IsZero() {
		t.Error("synthesized snapshot must not carry a persisted ID")
	}
	if math.Abs(snapshot.IMT-22.66) > 0.01 {
		t.Errorf("expected IMT around 22.66, got %v", snapshot.IMT)
	}
	if snapshot.Category != domain.CategoryNormal {
		t.Errorf("expected normal category, got %v", snapshot.Category)
	}
}

func TestCurrentSnapshotNoMeasurements(t *testing.T) {
	userRepo := newFakeUserRepo()
	svc := NewIMTService(userRepo, &fakeIMTHistoryRepo{})

	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	_, err := svc.CurrentSnapshot(context.Background(), client.ID)
	if !errors.Is(err, ErrNoMeasurements) {
		t.Errorf("expected ErrNoMeasurements, got %v", err)
	}
}

func TestHistoryOrderAndLimit(t *testing.T) {
	userRepo := newFakeUserRepo()
	historyRepo := &fakeIMTHistoryRepo{}
	client := userRepo.add(&domain.User{Name: "Dina", Phone: "555-0101", Role: domain.RoleClient})

	svc := NewIMTService(userRepo, historyRepo).(*imtService)
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		tick := base.AddDate(0, 0, i)
		svc.now = func() time.Time { return tick }
		if _, err := svc.RecordSnapshot(context.Background(), client.ID, 60+float64(i), 170); err != nil {
			t.Fatalf("RecordSnapshot failed: %v", err)
		}
	}

	history, err := svc.History(context.Background(), client.ID, 3)
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 records, got %d", len(history))
	}
	if history[0].Weight != 64 {
		t.Errorf("expected most recent record first, got weight %v", history[0].Weight)
	}
}
