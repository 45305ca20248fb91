package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BarnCheckAlertTitle is the title of every notification raised by the night check.
const BarnCheckAlertTitle = "Barn Check Alert"

// Notification is a message addressed to a user within a farm.
type Notification struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    string             `bson:"user_id" json:"user_id"`
	FarmID    string             `bson:"farm_id" json:"farm_id"`
	Title     string             `bson:"title" json:"title"`
	Message   string             `bson:"message" json:"message"`
	Read      bool               `bson:"read" json:"read"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
