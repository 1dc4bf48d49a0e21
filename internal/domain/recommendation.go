// internal/domain/recommendation.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recommendation is coach-authored exercise advice for a client.
// Read-only from the client's side.
type Recommendation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Exercises   []string           `bson:"exercises,omitempty" json:"exercises,omitempty"`
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}

// FoodRecommendation is coach-authored nutrition advice for a client.
type FoodRecommendation struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID    primitive.ObjectID `bson:"clientId" json:"clientId"`
	CoachID     primitive.ObjectID `bson:"coachId" json:"coachId"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Foods       []string           `bson:"foods,omitempty" json:"foods,omitempty"`
	MealType    string             `bson:"mealType,omitempty" json:"mealType,omitempty"` // e.g., "breakfast", "lunch", "dinner"
	CreatedAt   time.Time          `bson:"createdAt" json:"createdAt"`
}
