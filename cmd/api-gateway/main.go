package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/campus-events-api/api/swagger"
	"github.com/noah-isme/campus-events-api/internal/handler"
	"github.com/noah-isme/campus-events-api/internal/repository"
	"github.com/noah-isme/campus-events-api/internal/service"
	"github.com/noah-isme/campus-events-api/pkg/cache"
	"github.com/noah-isme/campus-events-api/pkg/config"
	"github.com/noah-isme/campus-events-api/pkg/database"
	"github.com/noah-isme/campus-events-api/pkg/jobs"
	"github.com/noah-isme/campus-events-api/pkg/logger"
)

const cacheKeyPrefix = "campus-events"

// @title Campus Events API
// @version 1.0.0
// @description Event proposal intake, booking conflicts and review workflow.
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap(ctx, cfg, logr)
	if err != nil {
		logr.Fatal("bootstrap failed", zap.Error(err))
	}
	defer app.close()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           app.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

type application struct {
	router *gin.Engine
	queue  *jobs.Queue
	redis  *redis.Client
	db     *sqlx.DB
	logger *zap.Logger
}

func (a *application) close() {
	if a.queue != nil {
		a.queue.Stop()
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
	if a.db != nil {
		_ = a.db.Close()
	}
}

func bootstrap(ctx context.Context, cfg *config.Config, logr *zap.Logger) (*application, error) {
	app := &application{logger: logr}
	metrics := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{}

	store := repository.NewProposalRepository()
	seed, err := repository.LoadProposalSeed(cfg.Proposals.SeedFile, cfg.Proposals.DefaultSubmittedTo)
	if err != nil {
		return nil, err
	}
	if err := store.Seed(ctx, seed); err != nil {
		return nil, fmt.Errorf("seed proposals: %w", err)
	}
	logr.Info("proposal store seeded", zap.Int("count", store.Count(ctx)))

	machine, err := service.NewProposalMachine()
	if err != nil {
		return nil, fmt.Errorf("build proposal machine: %w", err)
	}

	var cacheRepo service.CacheRepository
	if cfg.Summary.CacheEnabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("summary cache disabled", zap.Error(err))
		} else {
			app.redis = client
			cacheRepo = repository.NewCacheRepository(client, cacheKeyPrefix, logr)
			readiness["redis"] = func(ctx context.Context) error { return client.Ping(ctx).Err() }
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Summary.CacheTTL, logr, cacheRepo != nil)

	var (
		auditStore   *repository.AuditRepository
		auditHandler *handler.AuditHandler
	)
	if cfg.Audit.DatabaseEnabled {
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			logr.Warn("audit database unavailable, audit records will be logged only", zap.Error(err))
		} else {
			app.db = db
			auditStore = repository.NewAuditRepository(db)
			auditHandler = handler.NewAuditHandler(auditStore)
			readiness["postgres"] = db.PingContext
		}
	}

	auditWorker := service.NewAuditWorker(nil, metrics, logr)
	if auditStore != nil {
		auditWorker = service.NewAuditWorker(auditStore, metrics, logr)
	}
	app.queue = jobs.NewQueue("audit", auditWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		MaxRetries: cfg.Audit.Retries,
		RetryDelay: cfg.Audit.RetryDelay,
		Logger:     logr,
	})
	app.queue.Start(context.WithoutCancel(ctx))
	auditSvc := service.NewAuditService(app.queue, auditWorker, logr)

	proposalSvc := service.NewProposalService(store, machine, validator.New(), auditSvc, cacheSvc, metrics, service.ProposalServiceConfig{
		DefaultSubmittedTo: cfg.Proposals.DefaultSubmittedTo,
		UpcomingLimit:      cfg.Proposals.UpcomingLimit,
		SummaryTTL:         cfg.Summary.CacheTTL,
	}, logr)
	exportSvc := service.NewExportService(proposalSvc, logr, nil, nil, nil)
	attachmentSvc := service.NewAttachmentService(service.AttachmentConfig{
		MaxFileSizeBytes: cfg.Attachments.MaxFileSizeBytes,
		MaxFiles:         cfg.Attachments.MaxFiles,
	}, logr)

	app.router = newRouter(routerDeps{
		cfg:         cfg,
		logger:      logr,
		metrics:     metrics,
		proposals:   handler.NewProposalHandler(proposalSvc),
		exports:     handler.NewExportHandler(exportSvc),
		attachments: handler.NewAttachmentHandler(attachmentSvc),
		audit:       auditHandler,
		system:      handler.NewMetricsHandler(metrics, readiness),
	})
	return app, nil
}
