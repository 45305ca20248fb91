package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/domain/models"
	"github.com/farmtrack/nightcheck/internal/server/handlers"
	"github.com/farmtrack/nightcheck/internal/server/middleware"
)

const requestIDHeader = "X-Request-ID"

// Handlers groups the HTTP adapters mounted by New.
type Handlers struct {
	Alerts        *handlers.AlertsHandler
	Settings      *handlers.SettingsHandler
	Returns       *handlers.ReturnsHandler
	Animals       *handlers.AnimalsHandler
	Notifications *handlers.NotificationsHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, jwtSecret []byte, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := handlers.RegisterValidators(); err != nil {
		logger.Error("failed registering request validators", zap.Error(err))
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(requestIDMiddleware())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/", middleware.Auth(jwtSecret, logger.Named("auth")))
	api.GET("/animals", h.Animals.List)
	api.POST("/scans", h.Returns.Scan)
	api.GET("/return-logs", h.Returns.List)
	api.PUT("/return-logs", h.Returns.Upsert)
	api.GET("/notifications", h.Notifications.List)
	api.PATCH("/notifications/:id/read", h.Notifications.MarkRead)
	api.GET("/settings/night-check-schedule", h.Settings.GetSchedule)

	admin := api.Group("/", middleware.RequireRole(models.RoleAdmin))
	admin.POST("/animals", h.Animals.Create)
	admin.GET("/alerts/barn-check", h.Alerts.BarnCheck)
	admin.POST("/alerts/barn-check", h.Alerts.BarnCheck)
	admin.PUT("/settings/night-check-schedule", h.Settings.UpdateSchedule)
	admin.GET("/settings/night-check-schedule/jobs", h.Settings.Jobs)

	logger.Info("router initialized", zap.Int("routes", len(r.Routes())))

	return r
}

func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("request_id", c.GetString("request_id")),
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if id, ok := middleware.IdentityFrom(c); ok {
			fields = append(fields, zap.String("farm_id", id.FarmID), zap.String("user_id", id.UserID))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}

		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request completed", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request completed", fields...)
		default:
			logger.Info("request completed", fields...)
		}
	}
}
