// internal/domain/imt.go
package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category is one of the four IMT (body mass index) buckets. It drives
// which videos a client sees and the dashboard coloring.
type Category string

const (
	CategoryUnderweight Category = "underweight"
	CategoryNormal      Category = "normal"
	CategoryOverweight  Category = "overweight"
	CategoryObese       Category = "obese"
)

// ComputeIMT returns weight(kg) / height(m)². The caller validates that
// both inputs are positive; a non-positive height would blow up here.
func ComputeIMT(weightKg, heightCm float64) float64 {
	heightM := heightCm / 100
	return weightKg / (heightM * heightM)
}

// ClassifyIMT maps an index to its category. Each boundary (18.5, 25, 30)
// belongs to the upper bucket. This is the single place the thresholds
// live; nothing else re-derives them.
func ClassifyIMT(index float64) Category {
	if index < 18.5 {
		return CategoryUnderweight
	}
	if index < 25 {
		return CategoryNormal
	}
	if index < 30 {
		return CategoryOverweight
	}
	return CategoryObese
}

// IMTRecord is one snapshot in a client's append-only IMT history.
// Records are never updated or deleted in normal flow.
type IMTRecord struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ClientID  primitive.ObjectID `bson:"clientId" json:"clientId"`
	Weight    float64            `bson:"weight" json:"weight"` // kg
	Height    float64            `bson:"height" json:"height"` // cm
	IMT       float64            `bson:"imt" json:"imt"`
	Category  Category           `bson:"category" json:"category"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}
