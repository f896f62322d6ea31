package main

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/middleware"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/campus-events-api/pkg/middleware/requestid"
)

type routerDeps struct {
	cfg         *config.Config
	logger      *zap.Logger
	metrics     *service.MetricsService
	proposals   *handler.ProposalHandler
	exports     *handler.ExportHandler
	attachments *handler.AttachmentHandler
	audit       *handler.AuditHandler
	system      *handler.MetricsHandler
}

func newRouter(deps routerDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(deps.logger))
	r.Use(corsmiddleware.New(deps.cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(deps.metrics))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Actor())

	r.GET("/health", deps.system.Health)
	r.GET("/ready", deps.system.Ready)
	r.GET("/metrics", deps.system.Prometheus)

	if deps.cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(deps.cfg.APIPrefix)
	api.GET("/system/metrics", deps.system.System)

	proposals := api.Group("/proposals")
	proposals.POST("", deps.proposals.Submit)
	proposals.GET("", deps.proposals.List)
	proposals.GET("/summary", deps.proposals.Summary)
	proposals.GET("/calendar", deps.proposals.Calendar)
	proposals.GET("/export", deps.exports.Export)
	proposals.POST("/attachments/inspect", deps.attachments.Inspect)
	proposals.GET("/:id", deps.proposals.Get)
	proposals.PATCH("/:id", deps.proposals.Edit)
	proposals.POST("/:id/approve", deps.proposals.Approve)
	proposals.POST("/:id/decline", deps.proposals.Decline)
	if deps.audit != nil {
		proposals.GET("/:id/audit", deps.audit.List)
	}

	return r
}
