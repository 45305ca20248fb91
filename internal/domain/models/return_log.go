package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// LocationBarnEntrance is the scan location that marks an animal as returned.
const LocationBarnEntrance = "BARN_ENTRANCE"

// ReturnLog records whether an animal returned to the barn on a given day.
// There is at most one ReturnLog per (AnimalID, Date).
type ReturnLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	AnimalID  primitive.ObjectID `bson:"animal_id" json:"animal_id"`
	FarmID    string             `bson:"farm_id" json:"farm_id"`
	Date      Date               `bson:"date" json:"date"`
	Returned  bool               `bson:"returned" json:"returned"`
	Reason    string             `bson:"reason,omitempty" json:"reason,omitempty"`
	Location  string             `bson:"location,omitempty" json:"location,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
