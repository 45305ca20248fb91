package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/service/returns"
)

// ReturnsHandler serves RFID scans and manual return-log entries.
type ReturnsHandler struct {
	svc    ReturnService
	logger *zap.Logger
}

// NewReturnsHandler constructs the return-log HTTP adapter.
func NewReturnsHandler(svc ReturnService, logger *zap.Logger) *ReturnsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReturnsHandler{svc: svc, logger: logger}
}

type scanRequest struct {
	TagNumber string `json:"tag_number" binding:"required"`
	Location  string `json:"location" binding:"required"`
}

type returnLogRequest struct {
	AnimalID string `json:"animal_id" binding:"required"`
	Returned *bool  `json:"returned" binding:"required"`
	Reason   string `json:"reason" binding:"max=500"`
	Date     string `json:"date"`
}

// Scan records an RFID read. Only barn-entrance reads mark an animal returned.
func (h *ReturnsHandler) Scan(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tag_number and location are required"})
		return
	}

	entry, err := h.svc.RecordScan(c.Request.Context(), id.FarmID, req.TagNumber, req.Location)
	if err != nil {
		h.writeError(c, "scan", err)
		return
	}
	if entry == nil {
		c.JSON(http.StatusOK, gin.H{"recorded": false})
		return
	}

	c.JSON(http.StatusOK, gin.H{"recorded": true, "return_log": entry})
}

// List returns the farm's return logs for ?date= (today by default).
func (h *ReturnsHandler) List(c *gin.Context) {
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

	logs, err := h.svc.List(c.Request.Context(), id.FarmID, day)
	if err != nil {
		h.writeError(c, "list", err)
		return
	}
	if logs == nil {
		logs = []models.ReturnLog{}
	}

	c.JSON(http.StatusOK, gin.H{"return_logs": logs})
}

// Upsert writes a manual entry, e.g. an animal kept out with a reason.
func (h *ReturnsHandler) Upsert(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	var req returnLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "animal_id and returned are required"})
		return
	}

	animalID, err := primitive.ObjectIDFromHex(req.AnimalID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid animal_id"})
		return
	}

	var day models.Date
	if req.Date != "" {
		if day, err = models.ParseDate(req.Date); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
			return
		}
	}

	entry, err := h.svc.Upsert(c.Request.Context(), id.FarmID, returns.Entry{
		AnimalID: animalID,
		Date:     day,
		Returned: *req.Returned,
		Reason:   req.Reason,
	})
	if err != nil {
		h.writeError(c, "upsert", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"return_log": entry})
}

func (h *ReturnsHandler) writeError(c *gin.Context, op string, err error) {
	switch {
	case errors.Is(err, returns.ErrAnimalNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "animal not found"})
	case errors.Is(err, returns.ErrInvalidEntry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		h.logger.Error("return log request failed", zap.String("op", op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to process return log"})
	}
}
