package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/scheduler"
	"github.com/farmtrack/nightcheck/internal/server/middleware"
	"github.com/farmtrack/nightcheck/internal/service/returns"
	"github.com/farmtrack/nightcheck/internal/service/settings"
)

// BarnChecker runs a manual barn-return check.
type BarnChecker interface {
	TriggerNow(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error)
}

// JobLister exposes the installed night-check jobs.
type JobLister interface {
	Jobs() []scheduler.JobInfo
}

// ScheduleService reads and updates a farm's night-check time.
type ScheduleService interface {
	NightCheckSchedule(ctx context.Context, farmID string) (string, error)
	UpdateNightCheckSchedule(ctx context.Context, farmID, schedule string) (string, error)
}

// ReturnService records barn returns.
type ReturnService interface {
	RecordScan(ctx context.Context, farmID, tagNumber, location string) (*models.ReturnLog, error)
	Upsert(ctx context.Context, farmID string, entry returns.Entry) (*models.ReturnLog, error)
	List(ctx context.Context, farmID string, date models.Date) ([]models.ReturnLog, error)
}

// AnimalStore is the animal registry.
type AnimalStore interface {
	FindAnimals(ctx context.Context, farmID string) ([]models.Animal, error)
	CreateAnimal(ctx context.Context, animal *models.Animal) error
}

// NotificationStore is the caller's notification inbox.
type NotificationStore interface {
	ListNotifications(ctx context.Context, userID, farmID string, limit int64) ([]models.Notification, error)
	MarkNotificationRead(ctx context.Context, id primitive.ObjectID, userID string) error
}

var errNoIdentity = errors.New("request carries no identity")

// RegisterValidators adds the custom binding tags used by request bodies.
func RegisterValidators() error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return errors.New("unexpected binding validator engine")
	}
	return v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		return settings.ValidSchedule(fl.Field().String())
	})
}

func identity(c *gin.Context) (middleware.Identity, error) {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return middleware.Identity{}, errNoIdentity
	}
	return id, nil
}

// dateQuery reads an optional YYYY-MM-DD query parameter. Empty means today.
func dateQuery(c *gin.Context, name string) (models.Date, error) {
	raw := c.Query(name)
	if raw == "" {
		return models.Date{}, nil
	}
	return models.ParseDate(raw)
}
