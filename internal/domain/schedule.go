// internal/domain/schedule.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Schedule is a planned training date for a client, created ahead of time
// by the coach. A client has at most one schedule row per calendar day.
type Schedule struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Date      time.Time          `bson:"date" json:"date"` // Normalized to midnight UTC
	Title     string             `bson:"title" json:"title"`
	Completed bool               `bson:"completed" json:"completed"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// NormalizeToDay truncates t to midnight UTC. Schedule dates are stored
// this way so day-equality checks never depend on time of day.
func NormalizeToDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ScheduleForDay returns the schedule row whose date falls on the same
// calendar day as now, or nil if none exists.
func ScheduleForDay(schedules []Schedule, now time.Time) *Schedule {
	day := NormalizeToDay(now)
	for i := range schedules {
		if NormalizeToDay(schedules[i].Date).Equal(day) {
			return &schedules[i]
		}
	}
	return nil
}

// TrainedToday reports whether the client has evidenced a workout today:
// either a proof submitted since start-of-day, or today's schedule row
// (if any) already marked completed.
func TrainedToday(proofs []WorkoutProof, todaySchedule *Schedule, now time.Time) bool {
	start := NormalizeToDay(now)
	for i := range proofs {
		if !proofs[i].CreatedAt.Before(start) {
			return true
		}
	}
	return todaySchedule != nil && todaySchedule.Completed
}
