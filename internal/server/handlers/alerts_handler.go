package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

// AlertsHandler exposes the manual barn-check trigger.
type AlertsHandler struct {
	checker BarnChecker
	logger  *zap.Logger
}

// NewAlertsHandler constructs the alerts HTTP adapter.
func NewAlertsHandler(checker BarnChecker, logger *zap.Logger) *AlertsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlertsHandler{checker: checker, logger: logger}
}

// BarnCheck evaluates the caller's farm synchronously and returns the outcome.
func (h *AlertsHandler) BarnCheck(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	day, err := dateQuery(c, "date")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	result, err := h.checker.TriggerNow(c.Request.Context(), models.CheckRequest{
		FarmID: id.FarmID,
		UserID: id.UserID,
		Date:   day,
	})
	if err != nil {
		h.logger.Error("manual barn check failed", zap.String("farm_id", id.FarmID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "barn check failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":         summary(result),
		"alerts":          result.Alerts,
		"missing_animals": result.MissingAnimals,
		"date":            result.Date,
	})
}

func summary(result *models.CheckResult) string {
	switch n := len(result.MissingAnimals); n {
	case 0:
		return "Barn check completed: all animals accounted for"
	case 1:
		return "Barn check completed: 1 animal missing"
	default:
		return fmt.Sprintf("Barn check completed: %d animals missing", n)
	}
}
