package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/config"
	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// ErrNotReady is returned by Reschedule before the initial load has completed.
var ErrNotReady = errors.New("scheduler not ready")

// State is the lifecycle phase of the Scheduler.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// SettingsStore lists the persisted per-farm schedules.
type SettingsStore interface {
	FindSettings(ctx context.Context, key string) ([]models.Setting, error)
}

// Checker runs one barn-return evaluation.
type Checker interface {
	Check(ctx context.Context, req models.CheckRequest) (*models.CheckResult, error)
}

// Scheduler owns the per-farm night-check jobs.
type Scheduler struct {
	cron     *cron.Cron
	registry *Registry
	settings SettingsStore
	checker  Checker
	cfg      config.NightCheckConfig
	logger   *zap.Logger

	mu    sync.Mutex
	state State
}

// NewScheduler creates a new scheduler instance. Jobs fire in the process
// local timezone.
func NewScheduler(cfg config.NightCheckConfig, settings SettingsStore, checker Checker, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.DefaultSchedule == "" {
		cfg.DefaultSchedule = models.DefaultNightCheckSchedule
	}

	c := cron.New(cron.WithLocation(time.Local))

	return &Scheduler{
		cron:     c,
		registry: NewRegistry(c),
		settings: settings,
		checker:  checker,
		cfg:      cfg,
		logger:   logger,
	}
}

// Start starts the cron engine and installs every farm's job.
func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("starting scheduler")
	s.cron.Start()
	s.Load(ctx)
}

// Stop stops the cron engine and waits for running checks until ctx expires.
func (s *Scheduler) Stop(ctx context.Context) {
	s.logger.Info("stopping scheduler")
	select {
	case <-s.cron.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn("scheduler stop timed out with checks still running")
	}
}

// State reports the current lifecycle phase.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Scheduler) setState(next State) {
	s.mu.Lock()
	prev := s.state
	s.state = next
	s.mu.Unlock()
	s.logger.Debug("scheduler state changed", zap.Stringer("from", prev), zap.Stringer("to", next))
}

// Load rebuilds the registry from the persisted settings. It never fails:
// when settings cannot be read, or none exist, a single global job at the
// default time is installed instead.
func (s *Scheduler) Load(ctx context.Context) {
	s.setState(StateLoading)
	defer s.setState(StateReady)

	settings, err := s.settings.FindSettings(ctx, models.SettingNightCheckSchedule)
	s.registry.StopAll()
	if err != nil {
		s.logger.Error("failed to load night check schedules, using global default", zap.Error(err))
		s.installFallback()
		return
	}

	if len(settings) == 0 {
		s.logger.Info("no night check schedules stored, using global default")
		s.installFallback()
		return
	}

	for _, setting := range settings {
		value := setting.Value
		if value == "" {
			value = s.cfg.DefaultSchedule
		}
		spec, err := TriggerSpec(value)
		if err != nil {
			s.logger.Warn("stored schedule is invalid, using default",
				zap.String("farm_id", setting.FarmID), zap.String("value", value), zap.Error(err))
			spec = s.defaultSpec()
		}
		if err := s.registry.Install(setting.FarmID, spec, s.jobFor(setting.FarmID)); err != nil {
			s.logger.Error("failed to install night check", zap.String("farm_id", setting.FarmID), zap.Error(err))
			continue
		}
		s.logger.Info("night check scheduled", zap.String("farm_id", setting.FarmID), zap.String("spec", spec))
	}

	if s.registry.Len() == 0 {
		s.installFallback()
	}
}

// Reschedule replaces the job of a single farm. Other farms are untouched.
func (s *Scheduler) Reschedule(farmID, hhmm string) error {
	if s.State() != StateReady {
		return ErrNotReady
	}

	spec, err := TriggerSpec(hhmm)
	if err != nil {
		return fmt.Errorf("reschedule farm %s: %w", farmID, err)
	}

	if err := s.registry.Install(farmID, spec, s.jobFor(farmID)); err != nil {
		s.logger.Error("failed to reschedule night check", zap.String("farm_id", farmID), zap.Error(err))
		return fmt.Errorf("reschedule farm %s: %w", farmID, err)
	}

	s.logger.Info("night check rescheduled", zap.String("farm_id", farmID), zap.String("time", hhmm), zap.String("spec", spec))
	return nil
}

// TriggerNow runs the evaluation synchronously, outside of any timer. An empty
// farm id targets records that predate farms. Panics are converted to errors.
func (s *Scheduler) TriggerNow(ctx context.Context, req models.CheckRequest) (result *models.CheckResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("night check panicked: %v", r)
		}
		if err != nil {
			s.logger.Error("manual night check failed", zap.String("farm_id", req.FarmID), zap.Error(err))
		}
	}()

	s.logger.Info("manual night check requested", zap.String("farm_id", req.FarmID), zap.String("user_id", req.UserID))
	return s.checker.Check(ctx, req)
}

// Jobs lists the installed jobs.
func (s *Scheduler) Jobs() []JobInfo {
	return s.registry.Snapshot()
}

// Job reports the job installed for a farm.
func (s *Scheduler) Job(farmID string) (JobInfo, bool) {
	return s.registry.Lookup(farmID)
}

func (s *Scheduler) defaultSpec() string {
	spec, err := TriggerSpec(s.cfg.DefaultSchedule)
	if err != nil {
		spec, _ = TriggerSpec(models.DefaultNightCheckSchedule)
	}
	return spec
}

func (s *Scheduler) installFallback() {
	spec := s.defaultSpec()
	if err := s.registry.Install(GlobalJobKey, spec, s.jobFor(GlobalJobKey)); err != nil {
		s.logger.Error("failed to install global night check", zap.Error(err))
		return
	}
	s.logger.Info("global night check scheduled", zap.String("spec", spec))
}

// jobFor returns the cron callback for one farm. Overlapping runs for the
// same farm are not serialized.
func (s *Scheduler) jobFor(farmID string) func() {
	return func() {
		s.runScheduled(farmID)
	}
}

func (s *Scheduler) runScheduled(farmID string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("night check panicked", zap.String("farm_id", farmID), zap.Any("panic", r))
		}
	}()

	ctx := context.Background()
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	s.logger.Info("running night check", zap.String("farm_id", farmID))

	result, err := s.checker.Check(ctx, models.CheckRequest{FarmID: farmID})
	if err != nil {
		s.logger.Error("night check failed", zap.String("farm_id", farmID), zap.Error(err))
		return
	}

	s.logger.Info("night check completed",
		zap.String("farm_id", farmID),
		zap.String("date", result.Date.String()),
		zap.Int("missing", len(result.MissingAnimals)),
		zap.Int("alerts", result.AlertsGenerated),
		zap.Duration("took", time.Since(start)))
}
