package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// FindReturnLog returns the log for (animal, farm, date), or nil when none exists.
func (r *Repository) FindReturnLog(ctx context.Context, animalID primitive.ObjectID, farmID string, date models.Date) (*models.ReturnLog, error) {
	filter := bson.D{
		{Key: "animal_id", Value: animalID},
		farmFilter(farmID),
		{Key: "date", Value: date.String()},
	}

	var entry models.ReturnLog
	err := r.db.Collection(returnLogsCollection).FindOne(ctx, filter).Decode(&entry)
	if err != nil {
		if errors.Is(translateError(err), models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find return log: %w", err)
	}
	return &entry, nil
}

// ListReturnLogs returns every log recorded for the farm on date.
func (r *Repository) ListReturnLogs(ctx context.Context, farmID string, date models.Date) ([]models.ReturnLog, error) {
	filter := bson.D{farmFilter(farmID), {Key: "date", Value: date.String()}}
	opts := options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}})

	cursor, err := r.db.Collection(returnLogsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("list return logs: %w", err)
	}

	var logs []models.ReturnLog
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode return logs: %w", err)
	}
	return logs, nil
}

// CreateReturnLog inserts a new log. A second log for the same (animal, date)
// yields models.ErrDuplicate.
func (r *Repository) CreateReturnLog(ctx context.Context, entry *models.ReturnLog) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	res, err := r.db.Collection(returnLogsCollection).InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert return log: %w", translateError(err))
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = oid
	}
	return nil
}

// SaveReturnLog overwrites an existing log in place.
func (r *Repository) SaveReturnLog(ctx context.Context, entry *models.ReturnLog) error {
	if entry.ID.IsZero() {
		return errors.New("save return log: missing id")
	}
	entry.UpdatedAt = time.Now().UTC()

	res, err := r.db.Collection(returnLogsCollection).ReplaceOne(ctx, bson.D{{Key: "_id", Value: entry.ID}}, entry)
	if err != nil {
		return fmt.Errorf("replace return log: %w", translateError(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("replace return log %s: %w", entry.ID.Hex(), models.ErrNotFound)
	}
	return nil
}
