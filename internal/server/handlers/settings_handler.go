package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/service/settings"
)

// SettingsHandler serves the night-check schedule settings.
type SettingsHandler struct {
	svc    ScheduleService
	jobs   JobLister
	logger *zap.Logger
}

// NewSettingsHandler constructs the settings HTTP adapter.
func NewSettingsHandler(svc ScheduleService, jobs JobLister, logger *zap.Logger) *SettingsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SettingsHandler{svc: svc, jobs: jobs, logger: logger}
}

type scheduleRequest struct {
	Schedule string `json:"schedule" binding:"required,hhmm"`
}

// GetSchedule returns the caller's farm schedule.
func (h *SettingsHandler) GetSchedule(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	schedule, err := h.svc.NightCheckSchedule(c.Request.Context(), id.FarmID)
	if err != nil {
		h.logger.Error("failed loading night check schedule", zap.String("farm_id", id.FarmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to load schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"schedule": schedule})
}

// UpdateSchedule persists a new schedule and moves the live job.
func (h *SettingsHandler) UpdateSchedule(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid schedule payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule format. Use HH:MM (24-hour)"})
		return
	}

	schedule, err := h.svc.UpdateNightCheckSchedule(c.Request.Context(), id.FarmID, req.Schedule)
	switch {
	case errors.Is(err, settings.ErrInvalidSchedule):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule format. Use HH:MM (24-hour)"})
		return
	case err != nil:
		h.logger.Error("failed updating night check schedule", zap.String("farm_id", id.FarmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"schedule": schedule,
		"message":  "Night check schedule updated to " + schedule,
	})
}

// Jobs lists the installed night-check jobs.
func (h *SettingsHandler) Jobs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"jobs": h.jobs.Jobs()})
}
