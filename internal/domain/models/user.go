package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Roles understood by the API.
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User is the subset of a FarmTrack account the night check needs to address alerts.
type User struct {
	ID     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID string             `bson:"farm_id" json:"farm_id"`
	Name   string             `bson:"name" json:"name"`
	Role   string             `bson:"role" json:"role"`
}
