package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkoutProof is a client-submitted photo (plus optional notes)
// evidencing a completed training session. The photo itself resides in
// object storage; ImageKey is its bucket key. A proof is independent of
// any Schedule row but is used to infer "trained today" even without one.
type WorkoutProof struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	ImageKey  string             `bson:"imageKey" json:"-"` // Storage object key - internal use
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
