package models

import (
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Animal is a head of livestock owned by a farm. TagNumber is unique within a
// farm, not globally.
type Animal struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FarmID    string             `bson:"farm_id" json:"farm_id"`
	TagNumber string             `bson:"tag_number" json:"tag_number"`
	Name      string             `bson:"name" json:"name"`
	Species   string             `bson:"species" json:"species"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// Label renders the animal as "Name (Tag)" for alert messages.
func (a Animal) Label() string {
	return fmt.Sprintf("%s (%s)", a.Name, a.TagNumber)
}
