package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// FindSettings returns every stored setting with the given key, across all farms.
func (r *Repository) FindSettings(ctx context.Context, key string) ([]models.Setting, error) {
	cursor, err := r.db.Collection(settingsCollection).Find(ctx, bson.D{{Key: "key", Value: key}})
	if err != nil {
		return nil, fmt.Errorf("find settings %s: %w", key, err)
	}

	var settings []models.Setting
	if err := cursor.All(ctx, &settings); err != nil {
		return nil, fmt.Errorf("decode settings: %w", err)
	}
	return settings, nil
}

// FindSetting returns the farm's setting for key, or nil when it was never stored.
func (r *Repository) FindSetting(ctx context.Context, farmID, key string) (*models.Setting, error) {
	filter := bson.D{{Key: "key", Value: key}, farmFilter(farmID)}

	var setting models.Setting
	err := r.db.Collection(settingsCollection).FindOne(ctx, filter).Decode(&setting)
	if err != nil {
		if errors.Is(translateError(err), models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find setting %s: %w", key, err)
	}
	return &setting, nil
}

// UpsertSetting creates or overwrites the farm's value for key.
func (r *Repository) UpsertSetting(ctx context.Context, farmID, key, value string) (*models.Setting, error) {
	filter := bson.D{{Key: "key", Value: key}, {Key: "farm_id", Value: farmID}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "value", Value: value},
		{Key: "updated_at", Value: time.Now().UTC()},
	}}}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var setting models.Setting
	if err := r.db.Collection(settingsCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&setting); err != nil {
		return nil, fmt.Errorf("upsert setting %s: %w", key, translateError(err))
	}
	return &setting, nil
}
