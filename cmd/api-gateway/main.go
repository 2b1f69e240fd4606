package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/enlistment-api/api/swagger"
	"github.com/noah-isme/enlistment-api/internal/handler"
	internalmiddleware "github.com/noah-isme/enlistment-api/internal/middleware"
	"github.com/noah-isme/enlistment-api/internal/repository"
	"github.com/noah-isme/enlistment-api/internal/service"
	"github.com/noah-isme/enlistment-api/pkg/cache"
	"github.com/noah-isme/enlistment-api/pkg/config"
	"github.com/noah-isme/enlistment-api/pkg/database"
	"github.com/noah-isme/enlistment-api/pkg/export"
	"github.com/noah-isme/enlistment-api/pkg/jobs"
	"github.com/noah-isme/enlistment-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/enlistment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/enlistment-api/pkg/middleware/requestid"
)

// @title Enlistment API
// @version 1.0.0
// @description Course enlistment, section scheduling and tuition assessment.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	fees, err := service.ParseFeeSchedule(cfg.Fees.PerUnit, cfg.Fees.LabFee, cfg.Fees.MiscellaneousFee, cfg.Fees.VATRate)
	if err != nil {
		return fmt.Errorf("fee schedule: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	readiness := map[string]handler.ReadinessCheck{}

	store := repository.NewCatalogStore()

	var journal *repository.EnlistmentEventRepository
	if cfg.Database.AuditJournal {
		db, err := database.Open(cfg.Database)
		if err != nil {
			return fmt.Errorf("open journal database: %w", err)
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
		journal = repository.NewEnlistmentEventRepository(db)
		readiness["journal"] = pingDB(db)
		logr.Info("enlistment journal enabled", zap.String("driver", cfg.Database.Driver))
	}

	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		readiness["cache"] = cache.Ping(redisClient)
	}
	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient, logr), metrics, cfg.Redis.CacheTTL, logr, redisClient != nil)

	catalogSvc := service.NewCatalogService(store, export.NewCSVExporter(), metrics, validate, logr)
	enlistmentSvc := newEnlistmentService(store, journal, metrics, validate, logr)
	assessmentSvc := service.NewAssessmentService(store, cacheSvc, export.NewPDFExporter(), fees, cfg.Redis.CacheTTL, logr)
	batchSvc := service.NewBatchEnlistmentService(enlistmentSvc, metrics, validate, logr, jobs.QueueConfig{
		Workers:    cfg.Batch.Workers,
		BufferSize: cfg.Batch.BufferSize,
		MaxRetries: cfg.Batch.Retries,
		RetryDelay: cfg.Batch.RetryDelay,
	})
	authSvc := service.NewAuthService(store, validate, logr, service.AuthConfig{
		AccessTokenSecret:     cfg.JWT.Secret,
		AccessTokenExpiry:     cfg.JWT.Expiration,
		Issuer:                cfg.JWT.Issuer,
		RegistrarUsername:     cfg.Registrar.Username,
		RegistrarPasswordHash: cfg.Registrar.PasswordHash,
	})

	// Catalog state is process-local, so entries from a previous run are stale.
	if err := assessmentSvc.PurgeCache(ctx); err != nil {
		logr.Warn("failed to purge assessment cache", zap.Error(err))
	}

	batchSvc.Start(ctx)
	defer batchSvc.Stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, readiness)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Routes{
		Auth:        handler.NewAuthHandler(authSvc),
		Catalog:     handler.NewCatalogHandler(catalogSvc),
		Enlistments: handler.NewEnlistmentHandler(enlistmentSvc),
		Assessments: handler.NewAssessmentHandler(assessmentSvc),
		Batches:     handler.NewBatchHandler(batchSvc),
	}.Register(r.Group(cfg.APIPrefix), internalmiddleware.JWT(authSvc))

	if cfg.Registrar.PasswordHash == "" {
		logr.Warn("REGISTRAR_PASSWORD_HASH is empty; registrar login is disabled")
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newEnlistmentService keeps a disabled journal a true nil interface.
func newEnlistmentService(store *repository.CatalogStore, journal *repository.EnlistmentEventRepository, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) *service.EnlistmentService {
	if journal == nil {
		return service.NewEnlistmentService(store, nil, metrics, validate, logr)
	}
	return service.NewEnlistmentService(store, journal, metrics, validate, logr)
}

func pingDB(db *sqlx.DB) handler.ReadinessCheck {
	return func(ctx context.Context) error {
		return db.PingContext(ctx)
	}
}
