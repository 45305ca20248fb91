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

// CreateNotification stores a notification and fills in its id.
func (r *Repository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	res, err := r.db.Collection(notificationsCollection).InsertOne(ctx, n)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid
	}
	return nil
}

// ListNotifications returns the user's notifications within a farm, newest first.
func (r *Repository) ListNotifications(ctx context.Context, userID, farmID string, limit int64) ([]models.Notification, error) {
	filter := bson.D{{Key: "user_id", Value: userID}, farmFilter(farmID)}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.db.Collection(notificationsCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}

	var out []models.Notification
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}
	return out, nil
}

// MarkNotificationRead flags one of the user's notifications as read.
func (r *Repository) MarkNotificationRead(ctx context.Context, id primitive.ObjectID, userID string) error {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "user_id", Value: userID}}
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "read", Value: true}}}}

	res, err := r.db.Collection(notificationsCollection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("notification %s: %w", id.Hex(), models.ErrNotFound)
	}
	return nil
}
