package mongodb

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

func TestFarmFilter(t *testing.T) {
	assert.Equal(t, bson.E{Key: "farm_id", Value: "F1"}, farmFilter("F1"))

	legacy := farmFilter("")
	assert.Equal(t, "farm_id", legacy.Key)
	assert.Equal(t, bson.M{"$in": bson.A{nil, ""}}, legacy.Value)
}

func TestTranslateError(t *testing.T) {
	assert.NoError(t, translateError(nil))
	assert.ErrorIs(t, translateError(mongo.ErrNoDocuments), models.ErrNotFound)
	assert.ErrorIs(t, translateError(fmt.Errorf("wrapped: %w", mongo.ErrNoDocuments)), models.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translateError(dup), models.ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translateError(other))
}
