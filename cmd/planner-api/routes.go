package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/barnierg76/stemacteren-planning/internal/handler"
	"github.com/barnierg76/stemacteren-planning/internal/middleware"
	"github.com/barnierg76/stemacteren-planning/internal/service"
	"github.com/barnierg76/stemacteren-planning/pkg/config"
	"github.com/barnierg76/stemacteren-planning/pkg/logger"
	corsmiddleware "github.com/barnierg76/stemacteren-planning/pkg/middleware/cors"
	reqidmiddleware "github.com/barnierg76/stemacteren-planning/pkg/middleware/requestid"
)

type apiHandlers struct {
	planning  *handler.PlanningHandler
	actions   *handler.ActionHandler
	workshops *handler.WorkshopHandler
	team      *handler.TeamHandler
	settings  *handler.SettingsHandler
	catalog   *handler.CatalogHandler
	reports   *handler.ReportHandler
	export    *handler.ExportHandler
	metrics   *handler.MetricsHandler
}

func newRouter(cfg *config.Config, logr *zap.Logger, metricsSvc *service.MetricsService, h apiHandlers) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", h.metrics.Health)
	r.GET("/ready", h.metrics.Health)
	r.GET("/metrics", h.metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	planning := api.Group("/planning")
	{
		planning.POST("/validate", h.planning.Validate)
		planning.POST("/validate-range", h.planning.ValidateRange)
		planning.POST("/suggest", h.planning.Suggest)
	}

	actions := api.Group("/actions")
	{
		actions.POST("", h.actions.Stage)
		actions.GET("/pending", h.actions.Pending)
		actions.POST("/confirm", h.actions.Confirm)
	}

	workshops := api.Group("/workshops")
	{
		workshops.GET("", h.workshops.List)
		workshops.POST("", h.workshops.Create)
		workshops.GET("/:id", h.workshops.Get)
		workshops.PUT("/:id", h.workshops.Update)
		workshops.DELETE("/:id", h.workshops.Cancel)
		workshops.POST("/:id/transition", h.workshops.Transition)
		workshops.GET("/:id/audit", h.workshops.AuditTrail)
	}

	team := api.Group("/team")
	{
		team.GET("", h.team.List)
		team.POST("", h.team.Create)
		team.GET("/:id", h.team.Get)
		team.PUT("/:id", h.team.Update)
		team.GET("/:id/availability", h.team.Availability)
		team.POST("/:id/availability", h.team.DeclareAvailability)
		team.DELETE("/:id/availability/:entryId", h.team.RemoveAvailability)
	}

	settings := api.Group("/settings")
	{
		settings.GET("", h.settings.List)
		settings.PUT("/bulk", h.settings.BulkUpdate)
		settings.POST("/reload", h.settings.Reload)
		settings.GET("/:key", h.settings.Get)
		settings.PUT("/:key", h.settings.Update)
	}

	catalog := api.Group("/catalog")
	{
		catalog.GET("/types", h.catalog.Types)
		catalog.POST("/types", h.catalog.CreateType)
		catalog.GET("/types/:id", h.catalog.Type)
		catalog.PUT("/types/:id", h.catalog.UpdateType)
		catalog.GET("/locations", h.catalog.Locations)
		catalog.POST("/locations", h.catalog.CreateLocation)
		catalog.GET("/locations/:id", h.catalog.Location)
		catalog.PUT("/locations/:id", h.catalog.UpdateLocation)
	}

	reports := api.Group("/reports")
	{
		reports.GET("/conflicts", h.reports.Conflicts)
		reports.GET("/revenue", h.reports.Revenue)
		reports.GET("/capacity", h.reports.Capacity)
		reports.GET("/targets", h.reports.Targets)
	}

	api.GET("/export/schedule", h.export.Schedule)

	return r
}
