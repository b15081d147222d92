package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/erp/backend/docs"
	"github.com/erp/backend/internal/infrastructure/auth"
	"github.com/erp/backend/internal/infrastructure/config"
	"github.com/erp/backend/internal/infrastructure/ingest"
	"github.com/erp/backend/internal/infrastructure/logger"
	"github.com/erp/backend/internal/infrastructure/persistence"
	"github.com/erp/backend/internal/infrastructure/report"
	"github.com/erp/backend/internal/infrastructure/scheduler"
	"github.com/erp/backend/internal/infrastructure/storage"
	"github.com/erp/backend/internal/infrastructure/telemetry"
	"github.com/erp/backend/internal/interfaces/http/handler"
	"github.com/erp/backend/internal/interfaces/http/middleware"
	"github.com/erp/backend/internal/interfaces/http/router"
)

// reportRowCount bounds the number of synthetic rows a completed job
// writes to its CSV artifact.
const reportRowCount = 50

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.OTLPEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.OTLPInsecure,
	}, zap.NewNop())
	if err != nil {
		panic("Failed to initialize tracer provider: " + err.Error())
	}

	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.OTLPInsecure,
	}, zap.NewNop())
	if err != nil {
		panic("Failed to initialize log bridge: " + err.Error())
	}

	log, err := telemetry.CreateBridgedLoggerFromConfig(&telemetry.BaseLoggerConfig{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}, logsProvider, cfg.Telemetry.ServiceName)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.OTLPEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.OTLPInsecure,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize meter provider", zap.Error(err))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.PyroscopeEndpoint != "",
		ServerAddress:     cfg.Telemetry.PyroscopeEndpoint,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileCPU:        true,
		ProfileAllocSpace: true,
		ProfileGoroutines: true,
	}, log)
	if err != nil {
		log.Fatal("failed to initialize profiler", zap.Error(err))
	}

	log.Info("starting worker pool service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	db, err := persistence.NewDatabaseWithTracing(&cfg.Database, gormLog, &cfg.Telemetry, log)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("error closing database", zap.Error(err))
		}
	}()
	log.Info("database connected")

	jobRuns := persistence.NewJobRunRepository(db.DB)

	objectStore, err := storage.NewS3ObjectStorage(&cfg.Storage)
	if err != nil {
		log.Fatal("failed to initialize object storage", zap.Error(err))
	}
	ensureCtx, ensureCancel := context.WithTimeout(context.Background(), 15*time.Second)
	if err := objectStore.EnsureBucket(ensureCtx); err != nil {
		log.Fatal("failed to ensure storage bucket", zap.Error(err))
	}
	ensureCancel()

	executor := report.NewExecutor(objectStore, jobRuns, log, reportRowCount)

	schedulerCfg := scheduler.DefaultSchedulerConfig()
	schedulerCfg.MaxConcurrentJobs = cfg.WorkerPool.Size
	schedulerCfg.QueueCapacity = cfg.WorkerPool.QueueCapacity
	sched := scheduler.NewScheduler(schedulerCfg, executor, log)

	startCtx, startCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := sched.Start(startCtx); err != nil {
		log.Fatal("failed to start scheduler", zap.Error(err))
	}
	startCancel()

	cronTrigger := scheduler.NewCronTrigger(scheduler.DefaultCronTriggerConfig(), sched, log)
	cronCtx, cronCancel := context.WithCancel(context.Background())
	if err := cronTrigger.Start(cronCtx); err != nil {
		log.Fatal("failed to start cron trigger", zap.Error(err))
	}

	redisClient, err := ingest.NewClient(cfg.Redis)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("error closing redis client", zap.Error(err))
		}
	}()

	subscriber := ingest.NewSubscriber(redisClient, cfg.Redis.Channel, sched, log, schedulerCfg.RetryAttempts)
	ingestCtx, ingestCancel := context.WithCancel(context.Background())
	go func() {
		if err := subscriber.Run(ingestCtx); err != nil && ingestCtx.Err() == nil {
			log.Error("job ingestion subscriber stopped", zap.Error(err))
		}
	}()

	jwtService := auth.NewJWTService(cfg.JWT)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.CORS())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		ServiceName:   cfg.Telemetry.ServiceName,
		Enabled:       cfg.Telemetry.Enabled,
	}))

	engine.GET("/health", func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	})

	jwtAuth := middleware.JWTAuth(jwtService)
	swaggerGate := middleware.SwaggerProtection(middleware.SwaggerConfig{
		Enabled:     cfg.App.Env != "production",
		RequireAuth: cfg.App.Env == "production",
	}, jwtAuth)
	engine.GET("/swagger/*any", swaggerGate, ginSwagger.WrapHandler(swaggerFiles.Handler))

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(handler.NewPoolRoutes(handler.NewPoolHandler(sched, cronTrigger, jobRuns), jwtAuth))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	ingestCancel()
	cronCancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.WorkerPool.ShutdownDrainWait)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", zap.Error(err))
	}

	if err := cronTrigger.Stop(shutdownCtx); err != nil {
		log.Error("cron trigger shutdown error", zap.Error(err))
	}

	if err := sched.Stop(shutdownCtx); err != nil {
		log.Error("scheduler shutdown error", zap.Error(err))
	}

	if err := profiler.Stop(); err != nil {
		log.Error("profiler shutdown error", zap.Error(err))
	}
	if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("tracer provider shutdown error", zap.Error(err))
	}
	if err := meterProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("meter provider shutdown error", zap.Error(err))
	}
	if err := logsProvider.Shutdown(shutdownCtx); err != nil {
		log.Error("log provider shutdown error", zap.Error(err))
	}

	log.Info("server exited gracefully")
}
