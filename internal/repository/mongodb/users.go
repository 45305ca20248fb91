package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// FindFarmAdmin returns the oldest admin account of the farm, or nil when the farm has none.
func (r *Repository) FindFarmAdmin(ctx context.Context, farmID string) (*models.User, error) {
	filter := bson.D{farmFilter(farmID), {Key: "role", Value: models.RoleAdmin}}
	opts := options.FindOne().SetSort(bson.D{{Key: "_id", Value: 1}})

	var user models.User
	err := r.db.Collection(usersCollection).FindOne(ctx, filter, opts).Decode(&user)
	if err != nil {
		if errors.Is(translateError(err), models.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("find farm admin: %w", err)
	}
	return &user, nil
}
