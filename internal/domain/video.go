// internal/domain/video.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Video is an exercise video published by a coach. The file itself is
// hosted externally (e.g. YouTube); only the URL is stored. The category
// tag matches one of the four IMT categories and is used to surface
// relevant content to clients.
type Video struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	VideoURL    string             `bson:"videoUrl" json:"videoUrl"`
	Category    Category           `bson:"category" json:"category"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt   time.Time          `bson:"updatedAt" json:"updatedAt"`
}
