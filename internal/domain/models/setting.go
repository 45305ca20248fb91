package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// SettingNightCheckSchedule holds the "HH:MM" time a farm's night check fires.
	SettingNightCheckSchedule = "night_check_schedule"
	// DefaultNightCheckSchedule is used when a farm has no stored schedule.
	DefaultNightCheckSchedule = "21:00"
)

// Setting is a per-farm key/value pair.
type Setting struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID    string             `bson:"farm_id" json:"farm_id"`
	Key       string             `bson:"key" json:"key"`
	Value     string             `bson:"value" json:"value"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
