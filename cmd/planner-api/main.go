package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	_ "github.com/barnierg76/stemacteren-planning/api/swagger"
	"github.com/barnierg76/stemacteren-planning/internal/handler"
	"github.com/barnierg76/stemacteren-planning/internal/repository"
	"github.com/barnierg76/stemacteren-planning/internal/service"
	"github.com/barnierg76/stemacteren-planning/pkg/cache"
	"github.com/barnierg76/stemacteren-planning/pkg/config"
	"github.com/barnierg76/stemacteren-planning/pkg/database"
	"github.com/barnierg76/stemacteren-planning/pkg/logger"
)

// @title Stemacteren Planning API
// @version 1.0.0
// @description Constraint and scheduling engine for voice-acting workshops
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, report caching disabled", "error", err)
		redisClient = nil
	}

	workshopRepo := repository.NewWorkshopRepository(db)
	typeRepo := repository.NewWorkshopTypeRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	personRepo := repository.NewPersonRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	settingRepo := repository.NewSettingRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	settingsSvc := service.NewSettingsService(settingRepo, auditRepo, logr)
	validationSvc := service.NewValidationService(workshopRepo, typeRepo, locationRepo, personRepo, availabilityRepo, settingsSvc, logr)
	suggestionSvc := service.NewSuggestionService(
		validationSvc, typeRepo, locationRepo, personRepo, availabilityRepo, workshopRepo, settingsSvc, logr,
		service.SuggestionServiceConfig{Horizon: cfg.Planner.SuggestionHorizon, MaxResults: cfg.Planner.MaxSuggestions},
	)
	workshopSvc := service.NewWorkshopService(workshopRepo, typeRepo, locationRepo, validationSvc, auditRepo, logr)
	actionSvc := service.NewActionService(workshopSvc, validationSvc, auditRepo, logr, service.ActionServiceConfig{TTL: cfg.Planner.ActionTTL})
	reportSvc := service.NewReportService(validationSvc, workshopRepo, typeRepo, locationRepo, settingsSvc, cacheRepo, logr, service.ReportServiceConfig{CacheTTL: cfg.Reports.CacheTTL})
	teamSvc := service.NewTeamService(personRepo, availabilityRepo, logr)
	catalogSvc := service.NewCatalogService(typeRepo, locationRepo, logr)
	exportSvc := service.NewExportService(workshopRepo, typeRepo, locationRepo, logr)

	handlers := apiHandlers{
		planning:  handler.NewPlanningHandler(validationSvc, suggestionSvc, metricsSvc),
		actions:   handler.NewActionHandler(actionSvc, metricsSvc),
		workshops: handler.NewWorkshopHandler(workshopSvc),
		team:      handler.NewTeamHandler(teamSvc),
		settings:  handler.NewSettingsHandler(settingsSvc),
		catalog:   handler.NewCatalogHandler(catalogSvc),
		reports:   handler.NewReportHandler(reportSvc),
		export:    handler.NewExportHandler(exportSvc, cfg.Export.Enabled),
		metrics:   handler.NewMetricsHandler(metricsSvc),
	}

	r := newRouter(cfg, logr, metricsSvc, handlers)

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown failed", "error", err)
	}
}
