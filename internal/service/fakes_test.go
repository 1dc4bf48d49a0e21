package service

import (
	"context"
	"imtfit/coaching-app/internal/domain"
	"imtfit/coaching-app/internal/repository"
	"io"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// In-memory repository fakes shared by the service tests.

type fakeUserRepo struct {
	users map[primitive.ObjectID]*domain.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[primitive.ObjectID]*domain.User)}
}

func (r *fakeUserRepo) add(user *domain.User) *domain.User {
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(ctx context.Context, user *domain.User) (primitive.ObjectID, error) {
	for _, u := range r.users {
		if u.Phone == user.Phone {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	// Insert a copy so later caller mutations cannot reach the store.
	cp := *user
	r.users[user.ID] = &cp
	return user.ID, nil
}

func (r *fakeUserRepo) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	for _, u := range r.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *u
	return &copy, nil
}

func (r *fakeUserRepo) GetByRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == role {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) GetAll(ctx context.Context) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		out = append(out, *u)
	}
	return out, nil
}

func (r *fakeUserRepo) GetClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.User, error) {
	var out []domain.User
	for _, u := range r.users {
		if u.Role == domain.RoleClient && u.CoachID != nil && *u.CoachID == coachID {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	users, _ := r.GetByRole(ctx, role)
	return int64(len(users)), nil
}

func (r *fakeUserRepo) CountClientsByCoachID(ctx context.Context, coachID primitive.ObjectID) (int64, error) {
	clients, _ := r.GetClientsByCoachID(ctx, coachID)
	return int64(len(clients)), nil
}

func (r *fakeUserRepo) Update(ctx context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *user
	r.users[user.ID] = &copy
	return nil
}

func (r *fakeUserRepo) UpdateMeasurements(ctx context.Context, clientID primitive.ObjectID, weight, height float64) error {
	u, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	u.Weight = &weight
	u.Height = &height
	return nil
}

func (r *fakeUserRepo) SetCoachForClient(ctx context.Context, clientID primitive.ObjectID, coachID *primitive.ObjectID) error {
	u, ok := r.users[clientID]
	if !ok {
		return repository.ErrNotFound
	}
	u.CoachID = coachID
	return nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

type fakeIMTHistoryRepo struct {
	records []domain.IMTRecord
}

func (r *fakeIMTHistoryRepo) Create(ctx context.Context, record *domain.IMTRecord) (primitive.ObjectID, error) {
	record.ID = primitive.NewObjectID()
	r.records = append(r.records, *record)
	return record.ID, nil
}

func (r *fakeIMTHistoryRepo) GetLatestByClientID(ctx context.Context, clientID primitive.ObjectID) (*domain.IMTRecord, error) {
	records, _ := r.GetByClientID(ctx, clientID, 1)
	if len(records) == 0 {
		return nil, repository.ErrNotFound
	}
	return &records[0], nil
}

func (r *fakeIMTHistoryRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.IMTRecord, error) {
	var out []domain.IMTRecord
	for _, rec := range r.records {
		if rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeScheduleRepo struct {
	schedules map[primitive.ObjectID]*domain.Schedule
}

func newFakeScheduleRepo() *fakeScheduleRepo {
	return &fakeScheduleRepo{schedules: make(map[primitive.ObjectID]*domain.Schedule)}
}

func (r *fakeScheduleRepo) Create(ctx context.Context, schedule *domain.Schedule) (primitive.ObjectID, error) {
	for _, s := range r.schedules {
		if s.ClientID == schedule.ClientID && s.Date.Equal(schedule.Date) {
			return primitive.NilObjectID, repository.ErrDuplicate
		}
	}
	schedule.ID = primitive.NewObjectID()
	copy := *schedule
	r.schedules[schedule.ID] = &copy
	return schedule.ID, nil
}

func (r *fakeScheduleRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *s
	return &copy, nil
}

func (r *fakeScheduleRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.Schedule, error) {
	var out []domain.Schedule
	for _, s := range r.schedules {
		if s.ClientID == clientID {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *fakeScheduleRepo) GetByClientAndDate(ctx context.Context, clientID primitive.ObjectID, day time.Time) (*domain.Schedule, error) {
	target := domain.NormalizeToDay(day)
	for _, s := range r.schedules {
		if s.ClientID == clientID && s.Date.Equal(target) {
			copy := *s
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *fakeScheduleRepo) SetCompleted(ctx context.Context, id primitive.ObjectID, completed bool) (*domain.Schedule, error) {
	s, ok := r.schedules[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Completed = completed
	copy := *s
	return &copy, nil
}

func (r *fakeScheduleRepo) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, ok := r.schedules[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.schedules, id)
	return nil
}

type fakeProofRepo struct {
	proofs []domain.WorkoutProof
}

func (r *fakeProofRepo) Create(ctx context.Context, proof *domain.WorkoutProof) (primitive.ObjectID, error) {
	proof.ID = primitive.NewObjectID()
	r.proofs = append(r.proofs, *proof)
	return proof.ID, nil
}

func (r *fakeProofRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.WorkoutProof, error) {
	var out []domain.WorkoutProof
	for _, p := range r.proofs {
		if p.ClientID == clientID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeProofRepo) GetSince(ctx context.Context, clientID primitive.ObjectID, since time.Time) ([]domain.WorkoutProof, error) {
	var out []domain.WorkoutProof
	for _, p := range r.proofs {
		if p.ClientID == clientID && !p.CreatedAt.Before(since) {
			out = append(out, p)
		}
	}
	return out, nil
}

type fakeRecommendationRepo struct {
	recs []domain.Recommendation
}

func (r *fakeRecommendationRepo) Create(ctx context.Context, rec *domain.Recommendation) (primitive.ObjectID, error) {
	rec.ID = primitive.NewObjectID()
	r.recs = append(r.recs, *rec)
	return rec.ID, nil
}

func (r *fakeRecommendationRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID, limit int64) ([]domain.Recommendation, error) {
	var out []domain.Recommendation
	for _, rec := range r.recs {
		if rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	if limit > 0 && int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeRecommendationRepo) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	for i, rec := range r.recs {
		if rec.ID == id && rec.CoachID == coachID {
			r.recs = append(r.recs[:i], r.recs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeFoodRecommendationRepo struct {
	recs []domain.FoodRecommendation
}

func (r *fakeFoodRecommendationRepo) Create(ctx context.Context, rec *domain.FoodRecommendation) (primitive.ObjectID, error) {
	rec.ID = primitive.NewObjectID()
	r.recs = append(r.recs, *rec)
	return rec.ID, nil
}

func (r *fakeFoodRecommendationRepo) GetByClientID(ctx context.Context, clientID primitive.ObjectID) ([]domain.FoodRecommendation, error) {
	var out []domain.FoodRecommendation
	for _, rec := range r.recs {
		if rec.ClientID == clientID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeFoodRecommendationRepo) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	for i, rec := range r.recs {
		if rec.ID == id && rec.CoachID == coachID {
			r.recs = append(r.recs[:i], r.recs[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeMessageRepo struct {
	messages []domain.Message
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *domain.Message) (primitive.ObjectID, error) {
	message.ID = primitive.NewObjectID()
	r.messages = append(r.messages, *message)
	return message.ID, nil
}

func (r *fakeMessageRepo) inThread(m domain.Message, a, b primitive.ObjectID) bool {
	return (m.SenderID == a && m.ReceiverID == b) || (m.SenderID == b && m.ReceiverID == a)
}

func (r *fakeMessageRepo) GetThread(ctx context.Context, a, b primitive.ObjectID) ([]domain.Message, error) {
	var out []domain.Message
	for _, m := range r.messages {
		if r.inThread(m, a, b) {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeMessageRepo) GetLatestInThread(ctx context.Context, a, b primitive.ObjectID) (*domain.Message, error) {
	thread, _ := r.GetThread(ctx, a, b)
	if len(thread) == 0 {
		return nil, repository.ErrNotFound
	}
	return &thread[len(thread)-1], nil
}

func (r *fakeMessageRepo) MarkThreadRead(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	var marked int64
	for i := range r.messages {
		m := &r.messages[i]
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			m.IsRead = true
			marked++
		}
	}
	return marked, nil
}

func (r *fakeMessageRepo) CountUnread(ctx context.Context, senderID, receiverID primitive.ObjectID) (int64, error) {
	var count int64
	for _, m := range r.messages {
		if m.SenderID == senderID && m.ReceiverID == receiverID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.messages)), nil
}

type fakeVideoRepo struct {
	videos map[primitive.ObjectID]*domain.Video
}

func newFakeVideoRepo() *fakeVideoRepo {
	return &fakeVideoRepo{videos: make(map[primitive.ObjectID]*domain.Video)}
}

func (r *fakeVideoRepo) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	video.ID = primitive.NewObjectID()
	copy := *video
	r.videos[video.ID] = &copy
	return video.ID, nil
}

func (r *fakeVideoRepo) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	v, ok := r.videos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *v
	return &copy, nil
}

func (r *fakeVideoRepo) GetByCoachID(ctx context.Context, coachID primitive.ObjectID) ([]domain.Video, error) {
	var out []domain.Video
	for _, v := range r.videos {
		if v.CoachID == coachID {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) GetForClient(ctx context.Context, coachID *primitive.ObjectID, category domain.Category) ([]domain.Video, error) {
	var out []domain.Video
	for _, v := range r.videos {
		if (coachID != nil && v.CoachID == *coachID) || v.Category == category {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVideoRepo) GetAll(ctx context.Context) ([]domain.Video, error) {
	var out []domain.Video
	for _, v := range r.videos {
		out = append(out, *v)
	}
	return out, nil
}

func (r *fakeVideoRepo) Count(ctx context.Context) (int64, error) {
	return int64(len(r.videos)), nil
}

func (r *fakeVideoRepo) Update(ctx context.Context, video *domain.Video) error {
	if _, ok := r.videos[video.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *video
	r.videos[video.ID] = &copy
	return nil
}

func (r *fakeVideoRepo) Delete(ctx context.Context, id primitive.ObjectID, coachID primitive.ObjectID) error {
	v, ok := r.videos[id]
	if !ok || v.CoachID != coachID {
		return repository.ErrNotFound
	}
	delete(r.videos, id)
	return nil
}

// fakeStorage records uploads and hands out deterministic URLs.
type fakeStorage struct {
	uploads map[string][]byte
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploads: make(map[string][]byte)}
}

func (s *fakeStorage) Upload(ctx context.Context, objectKey, contentType string, body io.Reader, size int64) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.uploads[objectKey] = data
	return nil
}

func (s *fakeStorage) GeneratePresignedDownloadURL(ctx context.Context, objectKey string, lifetime time.Duration) (string, error) {
	return "https://storage.test/" + objectKey, nil
}

func (s *fakeStorage) DeleteObject(ctx context.Context, objectKey string) error {
	delete(s.uploads, objectKey)
	return nil
}
