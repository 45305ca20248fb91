package settings

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// ErrInvalidSchedule indicates a schedule that is not a 24-hour HH:MM time.
var ErrInvalidSchedule = errors.New("invalid schedule format, expected HH:MM (24-hour)")

var scheduleExpr = regexp.MustCompile(`^([0-1]?[0-9]|2[0-3]):[0-5][0-9]$`)

// ValidSchedule reports whether value is an accepted night-check time.
func ValidSchedule(value string) bool {
	return scheduleExpr.MatchString(value)
}

// Store is the persistence contract for per-farm settings.
type Store interface {
	FindSetting(ctx context.Context, farmID, key string) (*models.Setting, error)
	UpsertSetting(ctx context.Context, farmID, key, value string) (*models.Setting, error)
}

// Rescheduler applies a new time to the farm's live job.
type Rescheduler interface {
	Reschedule(farmID, hhmm string) error
}

// Service reads and updates the night-check schedule of a farm.
type Service struct {
	store       Store
	rescheduler Rescheduler
	logger      *zap.Logger
}

// NewService wires a new settings service.
func NewService(store Store, rescheduler Rescheduler, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, rescheduler: rescheduler, logger: logger}
}

// NightCheckSchedule returns the farm's stored time, or the default when unset.
func (s *Service) NightCheckSchedule(ctx context.Context, farmID string) (string, error) {
	setting, err := s.store.FindSetting(ctx, farmID, models.SettingNightCheckSchedule)
	if err != nil {
		return "", fmt.Errorf("load night check schedule: %w", err)
	}
	if setting == nil || setting.Value == "" {
		return models.DefaultNightCheckSchedule, nil
	}
	return setting.Value, nil
}

// UpdateNightCheckSchedule persists the new time and reschedules the farm's
// job. It only succeeds when both steps succeed.
func (s *Service) UpdateNightCheckSchedule(ctx context.Context, farmID, schedule string) (string, error) {
	schedule = strings.TrimSpace(schedule)
	if !ValidSchedule(schedule) {
		return "", ErrInvalidSchedule
	}

	setting, err := s.store.UpsertSetting(ctx, farmID, models.SettingNightCheckSchedule, schedule)
	if err != nil {
		return "", fmt.Errorf("save night check schedule: %w", err)
	}

	if err := s.rescheduler.Reschedule(farmID, setting.Value); err != nil {
		s.logger.Error("schedule saved but live job not updated",
			zap.String("farm_id", farmID), zap.String("schedule", setting.Value), zap.Error(err))
		return "", fmt.Errorf("apply night check schedule: %w", err)
	}

	s.logger.Info("night check schedule updated", zap.String("farm_id", farmID), zap.String("schedule", setting.Value))
	return setting.Value, nil
}
