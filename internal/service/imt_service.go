// internal/service/imt_service.go
package service

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Error Definitions ---
var (
	ErrInvalidMeasurement = errors.New("weight and height must be positive")
	ErrNoMeasurements     = errors.New("client has no recorded measurements")
)

// DefaultHistoryLimit caps the history slice returned to clients.
const DefaultHistoryLimit = 30

// IMTService is the history ledger: it owns every IMT computation and
// classification in the system.
type IMTService interface {
	// RecordSnapshot appends a history row and refreshes the cached
	// weight/height on the user record.
	RecordSnapshot(ctx context.Context, clientID primitive.ObjectID, weight, height float64) (*domain.IMTRecord, error)
	// CurrentSnapshot returns the latest record; when no history exists it
	// synthesizes one from the user's cached measurements without
	// persisting it. ErrNoMeasurements when neither source is available.
	CurrentSnapshot(ctx context.Context, clientID primitive.ObjectID) (*domain.IMTRecord, error)
	// History returns up to limit records, most recent first.
	History(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.IMTRecord, error)
}

type imtService struct {
	userRepo    repository.UserRepository
	historyRepo repository.IMTHistoryRepository
	now         func() time.Time
}

// NewIMTService creates a new instance of imtService.
func NewIMTService(userRepo repository.UserRepository, historyRepo repository.IMTHistoryRepository) IMTService {
	return &imtService{
		userRepo:    userRepo,
		historyRepo: historyRepo,
		now:         time.Now,
	}
}

// RecordSnapshot always appends; same-day duplicates produce separate
// rows. The user-cache update and the history append are two independent
// writes with no rollback coupling.
func (s *imtService) RecordSnapshot(ctx context.Context, clientID primitive.ObjectID, weight, height float64) (*domain.IMTRecord, error) {
	if weight <= 0 || height <= 0 {
		return nil, ErrInvalidMeasurement
	}

	if err := s.userRepo.UpdateMeasurements(ctx, clientID, weight, height); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	index := domain.ComputeIMT(weight, height)
	record := &domain.IMTRecord{
		ClientID:  clientID,
		Weight:    weight,
		Height:    height,
		IMT:       index,
		Category:  domain.ClassifyIMT(index),
		CreatedAt: s.now().UTC(),
	}

	recordID, err := s.historyRepo.Create(ctx, record)
	if err != nil {
		return nil, err
	}
	record.ID = recordID

	return record, nil
}

// CurrentSnapshot prefers the ledger; the synthesized fallback keeps
// dashboards working for clients created with measurements but no history.
func (s *imtService) CurrentSnapshot(ctx context.Context, clientID primitive.ObjectID) (*domain.IMTRecord, error) {
	record, err := s.historyRepo.GetLatestByClientID(ctx, clientID)
	if err == nil {
		return record, nil
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if user.Weight == nil || user.Height == nil || *user.Weight <= 0 || *user.Height <= 0 {
		return nil, ErrNoMeasurements
	}

	index := domain.ComputeIMT(*user.Weight, *user.Height)
	// Synthesized on the fly; never persisted, so it carries no ID.
	return &domain.IMTRecord{
		ClientID: clientID,
		Weight:   *user.Weight,
		Height:   *user.Height,
		IMT:      index,
		Category: domain.ClassifyIMT(index),
	}, nil
}

// History returns a fixed-size slice, most recent first.
func (s *imtService) History(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.IMTRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return s.historyRepo.GetByClientID(ctx, clientID, limit)
}
