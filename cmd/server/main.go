package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/farmtrack/nightcheck/internal/config"
	"github.com/farmtrack/nightcheck/internal/repository/mongodb"
	"github.com/farmtrack/nightcheck/internal/scheduler"
	"github.com/farmtrack/nightcheck/internal/server/handlers"
	"github.com/farmtrack/nightcheck/internal/server/router"
	"github.com/farmtrack/nightcheck/internal/service/barncheck"
	"github.com/farmtrack/nightcheck/internal/service/notify"
	"github.com/farmtrack/nightcheck/internal/service/returns"
	"github.com/farmtrack/nightcheck/internal/service/settings"
	whatsappclient "github.com/farmtrack/nightcheck/pkg/clients/whatsapp"
	"github.com/farmtrack/nightcheck/pkg/logger"
)

func main() {
	cfg, err := config.Load("")
	if err != nil {
		panic(err)
	}

	baseLogger := logger.Must(logger.New(logger.Options{Level: cfg.Log.Level, Format: cfg.Log.Format}))
	defer func() { _ = baseLogger.Sync() }()

	zap.ReplaceGlobals(baseLogger)

	if err := cfg.ApplyTimezone(); err != nil {
		baseLogger.Fatal("failed to apply timezone", zap.Error(err))
	}

	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 20*time.Second)
	mongoRepo, err := mongodb.NewRepository(connectCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName, baseLogger.Named("repo.mongodb"))
	if err != nil {
		cancelConnect()
		baseLogger.Fatal("failed to init mongodb repository", zap.Error(err))
	}
	if err := mongoRepo.EnsureIndexes(connectCtx); err != nil {
		baseLogger.Error("failed to ensure mongodb indexes", zap.Error(err))
	}
	cancelConnect()
	defer func() {
		if err := mongoRepo.Close(context.Background()); err != nil {
			baseLogger.Error("failed to close mongodb connection", zap.Error(err))
		}
	}()

	var relay barncheck.Relay
	if cfg.WhatsApp.Enabled() {
		relay = notify.NewWhatsAppRelay(whatsappclient.NewClient(cfg.WhatsApp), cfg.WhatsApp.AlertRecipient, baseLogger.Named("notify.whatsapp"))
		baseLogger.Info("whatsapp alert relay enabled")
	} else {
		baseLogger.Warn("whatsapp token missing, barn check alerts stay in-app only")
	}

	checkSvc := barncheck.NewService(barncheck.Stores{
		Animals:       mongoRepo,
		ReturnLogs:    mongoRepo,
		Notifications: mongoRepo,
		Users:         mongoRepo,
	}, relay, baseLogger.Named("svc.barncheck"))

	sched := scheduler.NewScheduler(cfg.NightCheck, mongoRepo, checkSvc, baseLogger.Named("scheduler"))
	returnSvc := returns.NewService(mongoRepo, mongoRepo, baseLogger.Named("svc.returns"))
	settingsSvc := settings.NewService(mongoRepo, sched, baseLogger.Named("svc.settings"))

	gin.SetMode(gin.ReleaseMode)
	engine := router.New(router.Handlers{
		Alerts:        handlers.NewAlertsHandler(sched, baseLogger.Named("handlers.alerts")),
		Settings:      handlers.NewSettingsHandler(settingsSvc, sched, baseLogger.Named("handlers.settings")),
		Returns:       handlers.NewReturnsHandler(returnSvc, baseLogger.Named("handlers.returns")),
		Animals:       handlers.NewAnimalsHandler(mongoRepo, baseLogger.Named("handlers.animals")),
		Notifications: handlers.NewNotificationsHandler(mongoRepo, baseLogger.Named("handlers.notifications")),
	}, []byte(cfg.Auth.JWTSecret), baseLogger.Named("router"))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched.Start(ctx)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		baseLogger.Info("server starting", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			baseLogger.Fatal("http server crashed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	baseLogger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		baseLogger.Error("graceful shutdown failed", zap.Error(err))
	}
	sched.Stop(shutdownCtx)
}
