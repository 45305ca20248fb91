package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
)

const (
	defaultNotificationLimit = 50
	maxNotificationLimit     = 200
)

// NotificationsHandler serves the caller's notification inbox.
type NotificationsHandler struct {
	store  NotificationStore
	logger *zap.Logger
}

// NewNotificationsHandler constructs the notifications HTTP adapter.
func NewNotificationsHandler(store NotificationStore, logger *zap.Logger) *NotificationsHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationsHandler{store: store, logger: logger}
}

// List returns the caller's notifications, newest first.
func (h *NotificationsHandler) List(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	limit := int64(defaultNotificationLimit)
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = min(n, maxNotificationLimit)
	}

	items, err := h.store.ListNotifications(c.Request.Context(), id.UserID, id.FarmID, limit)
	if err != nil {
		h.logger.Error("failed listing notifications", zap.String("user_id", id.UserID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to list notifications"})
		return
	}
	if items == nil {
		items = []models.Notification{}
	}

	c.JSON(http.StatusOK, gin.H{"notifications": items})
}

// MarkRead flags one of the caller's notifications as read.
func (h *NotificationsHandler) MarkRead(c *gin.Context) {
	id, err := identity(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
		return
	}

	notificationID, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	if err := h.store.MarkNotificationRead(c.Request.Context(), notificationID, id.UserID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
			return
		}
		h.logger.Error("failed marking notification read", zap.String("id", notificationID.Hex()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "unable to update notification"})
		return
	}

	c.Status(http.StatusNoContent)
}
