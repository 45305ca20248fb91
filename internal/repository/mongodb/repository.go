package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

const (
	animalsCollection       = "animals"
	returnLogsCollection    = "return_logs"
	settingsCollection      = "settings"
	notificationsCollection = "notifications"
	usersCollection         = "users"
)

// Repository implements every FarmTrack store on top of a single MongoDB database.
type Repository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewRepository connects to MongoDB and verifies the connection.
func NewRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*Repository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &Repository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}, nil
}

// EnsureIndexes creates the uniqueness constraints the domain relies on.
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	indexes := map[string][]mongo.IndexModel{
		animalsCollection: {{
			Keys:    bson.D{{Key: "farm_id", Value: 1}, {Key: "tag_number", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_farm_tag"),
		}},
		returnLogsCollection: {
			{
				Keys:    bson.D{{Key: "animal_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetUnique(true).SetName("uniq_animal_date"),
			},
			{
				Keys:    bson.D{{Key: "farm_id", Value: 1}, {Key: "date", Value: 1}},
				Options: options.Index().SetName("farm_date"),
			},
		},
		settingsCollection: {{
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "farm_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_key_farm"),
		}},
		notificationsCollection: {{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("user_created"),
		}},
	}

	for coll, specs := range indexes {
		names, err := r.db.Collection(coll).Indexes().CreateMany(ctx, specs)
		if err != nil {
			return fmt.Errorf("create indexes on %s: %w", coll, err)
		}
		r.logger.Debug("indexes ensured", zap.String("collection", coll), zap.Strings("indexes", names))
	}
	return nil
}

// Close closes the MongoDB connection.
func (r *Repository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

// farmFilter scopes a query to a farm. An empty farm id matches records
// created before farms existed, which carry no farm_id at all.
func farmFilter(farmID string) bson.E {
	if farmID == "" {
		return bson.E{Key: "farm_id", Value: bson.M{"$in": bson.A{nil, ""}}}
	}
	return bson.E{Key: "farm_id", Value: farmID}
}

func translateError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return models.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", models.ErrDuplicate, err)
	default:
		return err
	}
}
