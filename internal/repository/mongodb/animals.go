package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// FindAnimals returns every animal belonging to the farm, ordered by tag.
func (r *Repository) FindAnimals(ctx context.Context, farmID string) ([]models.Animal, error) {
	filter := bson.D{farmFilter(farmID)}
	opts := options.Find().SetSort(bson.D{{Key: "tag_number", Value: 1}})

	cursor, err := r.db.Collection(animalsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find animals: %w", err)
	}

	var animals []models.Animal
	if err := cursor.All(ctx, &animals); err != nil {
		return nil, fmt.Errorf("decode animals: %w", err)
	}
	return animals, nil
}

// FindAnimalByTag looks up an animal by its farm-scoped tag number.
func (r *Repository) FindAnimalByTag(ctx context.Context, farmID, tagNumber string) (*models.Animal, error) {
	filter := bson.D{farmFilter(farmID), {Key: "tag_number", Value: tagNumber}}

	var animal models.Animal
	if err := r.db.Collection(animalsCollection).FindOne(ctx, filter).Decode(&animal); err != nil {
		return nil, fmt.Errorf("find animal by tag %s: %w", tagNumber, translateError(err))
	}
	return &animal, nil
}

// FindAnimalByID looks up an animal by id within a farm.
func (r *Repository) FindAnimalByID(ctx context.Context, farmID string, id primitive.ObjectID) (*models.Animal, error) {
	filter := bson.D{{Key: "_id", Value: id}, farmFilter(farmID)}

	var animal models.Animal
	if err := r.db.Collection(animalsCollection).FindOne(ctx, filter).Decode(&animal); err != nil {
		return nil, fmt.Errorf("find animal %s: %w", id.Hex(), translateError(err))
	}
	return &animal, nil
}

// CreateAnimal inserts a new animal. A tag already used on the farm yields models.ErrDuplicate.
func (r *Repository) CreateAnimal(ctx context.Context, animal *models.Animal) error {
	if animal.CreatedAt.IsZero() {
		animal.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.Collection(animalsCollection).InsertOne(ctx, animal)
	if err != nil {
		return fmt.Errorf("insert animal: %w", translateError(err))
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		animal.ID = oid
	}
	return nil
}
