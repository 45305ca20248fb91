package returns

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// ErrAnimalNotFound indicates the scanned tag or id does not belong to the farm.
var ErrAnimalNotFound = errors.New("animal not found")

// ErrInvalidEntry indicates a malformed manual entry.
var ErrInvalidEntry = errors.New("invalid return log entry")

// AnimalStore resolves the animal a scan or entry refers to.
type AnimalStore interface {
	FindAnimalByTag(ctx context.Context, farmID, tagNumber string) (*models.Animal, error)
	FindAnimalByID(ctx context.Context, farmID string, id primitive.ObjectID) (*models.Animal, error)
}

// LogStore is the persistence contract for return logs.
type LogStore interface {
	FindReturnLog(ctx context.Context, animalID primitive.ObjectID, farmID string, date models.Date) (*models.ReturnLog, error)
	CreateReturnLog(ctx context.Context, entry *models.ReturnLog) error
	SaveReturnLog(ctx context.Context, entry *models.ReturnLog) error
	ListReturnLogs(ctx context.Context, farmID string, date models.Date) ([]models.ReturnLog, error)
}

// Entry is a manual return-log write.
type Entry struct {
	AnimalID primitive.ObjectID
	Date     models.Date
	Returned bool
	Reason   string
	Location string
}

// Service owns the return-log write path.
type Service struct {
	animals AnimalStore
	logs    LogStore
	logger  *zap.Logger
	now     func() time.Time
}

// NewService wires a new return-log service.
func NewService(animals AnimalStore, logs LogStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		animals: animals,
		logs:    logs,
		logger:  logger,
		now:     time.Now,
	}
}

// RecordScan handles a tag scan. Only scans at the barn entrance mark the
// animal as returned for today; other locations are acknowledged and
// ignored, in which case the returned log is nil.
func (s *Service) RecordScan(ctx context.Context, farmID, tagNumber, location string) (*models.ReturnLog, error) {
	tagNumber = strings.TrimSpace(tagNumber)
	if tagNumber == "" {
		return nil, fmt.Errorf("%w: tag number required", ErrInvalidEntry)
	}

	animal, err := s.animals.FindAnimalByTag(ctx, farmID, tagNumber)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: tag %s", ErrAnimalNotFound, tagNumber)
		}
		return nil, err
	}

	if !strings.EqualFold(strings.TrimSpace(location), models.LocationBarnEntrance) {
		s.logger.Debug("scan outside barn entrance ignored",
			zap.String("farm_id", farmID), zap.String("tag", tagNumber), zap.String("location", location))
		return nil, nil
	}

	return s.upsert(ctx, farmID, animal.ID, Entry{
		Date:     models.DateOf(s.now()),
		Returned: true,
		Location: models.LocationBarnEntrance,
	})
}

// Upsert writes a manual entry for an animal. A zero Date means today.
func (s *Service) Upsert(ctx context.Context, farmID string, entry Entry) (*models.ReturnLog, error) {
	if entry.AnimalID.IsZero() {
		return nil, fmt.Errorf("%w: animal id required", ErrInvalidEntry)
	}
	if entry.Returned && entry.Reason != "" {
		return nil, fmt.Errorf("%w: reason only applies when the animal did not return", ErrInvalidEntry)
	}

	if _, err := s.animals.FindAnimalByID(ctx, farmID, entry.AnimalID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, fmt.Errorf("%w: id %s", ErrAnimalNotFound, entry.AnimalID.Hex())
		}
		return nil, err
	}

	if entry.Date.IsZero() {
		entry.Date = models.DateOf(s.now())
	}
	return s.upsert(ctx, farmID, entry.AnimalID, entry)
}

// List returns the farm's logs for a day. A zero date means today.
func (s *Service) List(ctx context.Context, farmID string, date models.Date) ([]models.ReturnLog, error) {
	if date.IsZero() {
		date = models.DateOf(s.now())
	}
	logs, err := s.logs.ListReturnLogs(ctx, farmID, date)
	if err != nil {
		return nil, fmt.Errorf("list return logs: %w", err)
	}
	return logs, nil
}

// upsert finds the (animal, date) log and updates it in place, or creates it.
// A concurrent create surfaces as a duplicate and is retried once as an update.
// Overlapping writers for the same animal resolve last-write-wins.
func (s *Service) upsert(ctx context.Context, farmID string, animalID primitive.ObjectID, entry Entry) (*models.ReturnLog, error) {
	for attempt := 0; attempt < 2; attempt++ {
		existing, err := s.logs.FindReturnLog(ctx, animalID, farmID, entry.Date)
		if err != nil {
			return nil, fmt.Errorf("find return log: %w", err)
		}

		if existing != nil {
			apply(existing, entry)
			if err := s.logs.SaveReturnLog(ctx, existing); err != nil {
				return nil, fmt.Errorf("update return log: %w", err)
			}
			return existing, nil
		}

		created := &models.ReturnLog{AnimalID: animalID, FarmID: farmID, Date: entry.Date}
		apply(created, entry)
		err = s.logs.CreateReturnLog(ctx, created)
		if err == nil {
			s.logger.Debug("return log created",
				zap.String("farm_id", farmID), zap.String("animal_id", animalID.Hex()), zap.String("date", entry.Date.String()))
			return created, nil
		}
		if !errors.Is(err, models.ErrDuplicate) {
			return nil, fmt.Errorf("create return log: %w", err)
		}
		s.logger.Debug("return log created concurrently, retrying as update", zap.String("animal_id", animalID.Hex()))
	}
	return nil, fmt.Errorf("upsert return log for %s: %w", animalID.Hex(), models.ErrDuplicate)
}

func apply(dst *models.ReturnLog, entry Entry) {
	dst.Returned = entry.Returned
	dst.Reason = entry.Reason
	if entry.Returned {
		dst.Reason = ""
	}
	if entry.Location != "" {
		dst.Location = entry.Location
	}
}
