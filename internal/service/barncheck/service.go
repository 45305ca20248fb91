package barncheck

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// AnimalStore lists a farm's animals.
type AnimalStore interface {
	FindAnimals(ctx context.Context, farmID string) ([]models.Animal, error)
}

// ReturnLogStore looks up the log of one animal for one day. A nil log with a
// nil error means no record exists.
type ReturnLogStore interface {
	FindReturnLog(ctx context.Context, animalID primitive.ObjectID, farmID string, date models.Date) (*models.ReturnLog, error)
}

// NotificationStore persists generated alerts.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
}

// UserStore resolves the addressee of scheduled alerts.
type UserStore interface {
	FindFarmAdmin(ctx context.Context, farmID string) (*models.User, error)
}

// Relay forwards a stored alert to an out-of-band channel.
type Relay interface {
	Relay(ctx context.Context, n models.Notification) error
}

const lookupConcurrency = 8

// Stores groups the persistence collaborators of the Service.
type Stores struct {
	Animals       AnimalStore
	ReturnLogs    ReturnLogStore
	Notifications NotificationStore
	Users         UserStore
}

// Service decides, per farm and day, which animals have not returned to the barn.
type Service struct {
	stores Stores
	relay  Relay
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires a new barn-check service. relay may be nil.
func NewService(stores Stores, relay Relay, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		stores: stores,
		relay:  relay,
		logger: logger,
		now:    time.Now,
	}
}

// Check compares the farm's roster with the day's return logs. An animal
// counts as accounted for when any log exists for it, whatever its returned
// flag. When animals are missing a single notification listing all of them
// is stored; otherwise nothing is written.
func (s *Service) Check(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error) {
	day := req.Date
	if day.IsZero() {
		day = models.DateOf(s.now())
	}

	animals, err := s.stores.Animals.FindAnimals(ctx, req.FarmID)
	if err != nil {
		return nil, fmt.Errorf("load animals: %w", err)
	}

	result := &models.CheckResult{
		FarmID:         req.FarmID,
		Date:           day,
		MissingAnimals: []string{},
		Alerts:         []models.Notification{},
	}

	// Lookups run concurrently; missing is indexed by roster position so the
	// alert keeps the roster order.
	missing := make([]bool, len(animals))
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(lookupConcurrency)
	for i, animal := range animals {
		i, animal := i, animal
		g.Go(func() error {
			entry, err := s.stores.ReturnLogs.FindReturnLog(gCtx, animal.ID, req.FarmID, day)
			if err != nil {
				return fmt.Errorf("load return log for %s: %w", animal.TagNumber, err)
			}
			missing[i] = entry == nil
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for i, animal := range animals {
		if missing[i] {
			result.MissingAnimals = append(result.MissingAnimals, animal.Label())
		}
	}

	if len(result.MissingAnimals) == 0 {
		s.logger.Debug("all animals accounted for",
			zap.String("farm_id", req.FarmID), zap.String("date", day.String()), zap.Int("animals", len(animals)))
		return result, nil
	}

	notification := models.Notification{
		UserID:  s.addressee(ctx, req),
		FarmID:  req.FarmID,
		Title:   models.BarnCheckAlertTitle,
		Message: formatMessage(day, result.MissingAnimals),
	}
	if err := s.stores.Notifications.CreateNotification(ctx, &notification); err != nil {
		return nil, fmt.Errorf("store barn check alert: %w", err)
	}

	result.Alerts = append(result.Alerts, notification)
	result.AlertsGenerated = len(result.Alerts)

	s.logger.Info("barn check alert raised",
		zap.String("farm_id", req.FarmID),
		zap.String("date", day.String()),
		zap.Strings("missing", result.MissingAnimals))

	if s.relay != nil {
		if err := s.relay.Relay(ctx, notification); err != nil {
			s.logger.Warn("failed to relay barn check alert", zap.String("farm_id", req.FarmID), zap.Error(err))
		}
	}

	return result, nil
}

func (s *Service) addressee(ctx context.Context, req models.CheckRequest) string {
	if req.UserID != "" {
		return req.UserID
	}
	if s.stores.Users == nil {
		return ""
	}

	admin, err := s.stores.Users.FindFarmAdmin(ctx, req.FarmID)
	if err != nil {
		s.logger.Warn("failed to resolve farm admin", zap.String("farm_id", req.FarmID), zap.Error(err))
		return ""
	}
	if admin == nil {
		s.logger.Warn("farm has no admin, alert left unaddressed", zap.String("farm_id", req.FarmID))
		return ""
	}
	return admin.ID.Hex()
}

func formatMessage(day models.Date, missing []string) string {
	noun := "animals have"
	if len(missing) == 1 {
		noun = "animal has"
	}
	return fmt.Sprintf("%d %s not returned to the barn on %s: %s.",
		len(missing), noun, day.String(), strings.Join(missing, ", "))
}
