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
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/rossmikee121/schoolrepr/api/swagger"
	"github.com/rossmikee121/schoolrepr/internal/handler"
	"github.com/rossmikee121/schoolrepr/internal/middleware"
	"github.com/rossmikee121/schoolrepr/internal/registry"
	"github.com/rossmikee121/schoolrepr/internal/repository"
	"github.com/rossmikee121/schoolrepr/internal/service"
	"github.com/rossmikee121/schoolrepr/pkg/cache"
	"github.com/rossmikee121/schoolrepr/pkg/config"
	"github.com/rossmikee121/schoolrepr/pkg/database"
	"github.com/rossmikee121/schoolrepr/pkg/jobs"
	"github.com/rossmikee121/schoolrepr/pkg/lock"
	"github.com/rossmikee121/schoolrepr/pkg/logger"
	corsmiddleware "github.com/rossmikee121/schoolrepr/pkg/middleware/cors"
	reqidmiddleware "github.com/rossmikee121/schoolrepr/pkg/middleware/requestid"
	"github.com/rossmikee121/schoolrepr/pkg/storage"
)

// @title School ERP Reporting API
// @version 1.0.0
// @description Report builder, export pipeline, document numbering and lab batching
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

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database connection failed", "driver", cfg.Database.Driver, "error", err)
	}
	defer db.Close() //nolint:errcheck

	if db.DriverName() == database.DriverSQLite {
		if err := repository.Bootstrap(ctx, db); err != nil {
			logr.Sugar().Fatalw("sqlite bootstrap failed", "error", err)
		}
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, continuing without cache and locks", "error", err)
			redisClient = nil
		} else {
			defer redisClient.Close() //nolint:errcheck
		}
	}

	app, err := build(cfg, db, redisClient, logr)
	if err != nil {
		logr.Sugar().Fatalw("service wiring failed", "error", err)
	}

	app.queue.Start(ctx)
	defer app.queue.Stop()
	app.reports.RecoverPendingJobs(ctx)
	app.reports.StartCleanup(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(app.metrics))

	handler.RegisterRoutes(r, cfg.APIPrefix, app.handlers, app.tokens, logr.Named("audit"))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	logr.Sugar().Infow("server stopped")
}

type application struct {
	handlers handler.Handlers
	reports  *service.ReportService
	queue    *jobs.Queue
	metrics  *service.MetricsService
	tokens   *service.TokenService
}

func build(cfg *config.Config, db *sqlx.DB, redisClient *redis.Client, logr *zap.Logger) (*application, error) {
	validate := validator.New()
	metrics := service.NewMetricsService()
	reg := registry.Default()

	var (
		cacheRepo service.CacheRepository
		locker    lock.Locker = lock.Nop{}
	)
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "schoolerp")
		locker = lock.NewRedisLocker(redisClient, "schoolerp:sequence", cfg.Sequences.LockTTL, cfg.Sequences.LockRetries, logr)
	}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Reports.PreviewCacheTTL, logr, cacheRepo != nil)

	exportRepo := repository.NewReportExportRepository(db)
	templateRepo := repository.NewReportTemplateRepository(db)
	queryRepo := repository.NewReportQueryRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	feeRepo := repository.NewFeeRepository(db)
	labRepo := repository.NewLabRepository(db)

	files, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		return nil, fmt.Errorf("init export storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)

	cfgValidator := service.NewConfigValidator(reg, cfg.Reports.DefaultLimit, cfg.Reports.MaxLimit)
	executor := service.NewReportExecutor(reg, queryRepo, metrics, logr)
	builder := service.NewReportBuilderService(cfgValidator, executor, cacheSvc, cfg.Reports.PreviewCacheTTL, logr)
	exporter := service.NewExportService(files, signer, logr)

	var worker *service.ReportWorker
	queue := jobs.NewQueue("report_exports", func(ctx context.Context, job jobs.Job) error {
		return worker.Handle(ctx, job)
	}, jobs.QueueConfig{
		Workers:     cfg.Reports.WorkerConcurrency,
		MaxRetries:  cfg.Reports.WorkerRetries,
		ShouldRetry: service.IsRetryable,
		Logger:      logr,
	})

	reports := service.NewReportService(exportRepo, cfgValidator, executor, exporter, queue, metrics, logr, service.ReportServiceConfig{
		ExportLimit:          cfg.Reports.ExportLimit,
		Inline:               cfg.Reports.InlineExports,
		DownloadBaseURL:      cfg.APIPrefix + "/reports/download",
		ResultTTL:            cfg.Reports.ResultTTL,
		CleanupInterval:      cfg.Reports.CleanupInterval,
		StaleProcessingAfter: cfg.Reports.StaleProcessingAfter,
	})
	worker = service.NewReportWorker(reports)

	templates := service.NewReportTemplateService(templateRepo, cfgValidator, builder, validate, logr)
	sequences := service.NewSequenceService(sequenceRepo, studentRepo, locker, metrics, logr)
	admissions := service.NewAdmissionService(db, studentRepo, sequences, validate, logr)
	payments := service.NewFeePaymentService(db, feeRepo, sequences, validate, logr)
	labs := service.NewLabBatchService(labRepo, studentRepo, validate, logr)
	tokens := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	return &application{
		handlers: handler.Handlers{
			Reports:   handler.NewReportHandler(builder, reports),
			Templates: handler.NewReportTemplateHandler(templates),
			Sequences: handler.NewSequenceHandler(sequences, validate),
			Students:  handler.NewStudentHandler(admissions, payments),
			Labs:      handler.NewLabHandler(labs),
			Metrics:   handler.NewMetricsHandler(metrics, db, queue),
		},
		reports: reports,
		queue:   queue,
		metrics: metrics,
		tokens:  tokens,
	}, nil
}
