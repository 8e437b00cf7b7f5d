package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"funnel/internal/checkpoint"
	"funnel/internal/config"
	"funnel/internal/constants"
	"funnel/internal/filesink"
	"funnel/internal/ingest"
	"funnel/internal/logger"
	"funnel/internal/ops"
	"funnel/internal/rowsink"
	"funnel/internal/window"
	"funnel/pkg/bootstrap"
	"funnel/pkg/health"
	"funnel/pkg/logging"
	"funnel/pkg/metrics"
	"funnel/pkg/middleware"
	"funnel/pkg/models"
	"funnel/pkg/ratelimit"
)

const serviceName = "ingest-service"

type App struct {
	*bootstrap.Base
	dbConnector *bootstrap.DatabaseConnector
	db          *sql.DB
	redisClient *redis.Client
	rows        rowsink.Writer
	windows     *window.Manager
	service     *ingest.Service
	server      *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName(serviceName)
	}
	return &App{
		Base:        bootstrap.NewBase(cfg, log),
		dbConnector: bootstrap.NewDatabaseConnector(cfg, log),
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabases(ctx); err != nil {
		return fmt.Errorf("failed to initialize databases: %w", err)
	}

	if err := a.initPipeline(ctx); err != nil {
		return fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	if err := a.InitBroker(serviceName); err != nil {
		return fmt.Errorf("failed to initialize broker: %w", err)
	}

	metrics.RegisterPipelineMetrics()
	metrics.RegisterBrokerMetrics()
	if a.Config.CircuitBreaker.Enabled {
		metrics.RegisterCircuitBreakerMetrics()
	}
	if a.Config.Ops.RateLimit.Enabled {
		metrics.RegisterRateLimitMetrics()
	}

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabases(ctx context.Context) error {
	db, err := a.dbConnector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}
	a.db = db

	redisClient, err := a.dbConnector.InitRedis(ctx)
	if err != nil {
		initCtx := logging.WithServiceName(ctx, serviceName)
		a.Logger.WarnwCtx(initCtx, "Redis unavailable, watermark checkpointing disabled",
			"error", err,
		)
	}
	a.redisClient = redisClient

	return nil
}

func (a *App) initPipeline(ctx context.Context) error {
	pgWriter := rowsink.NewPostgresWriter(a.db, a.Config.RowStore)
	if err := pgWriter.EnsureTable(ctx); err != nil {
		return fmt.Errorf("failed to ensure row store table: %w", err)
	}
	a.rows = rowsink.NewCircuitBreakerWriter(pgWriter, a.Config.CircuitBreaker)

	flusher := filesink.NewAvroWriter(a.Config.FileStore, a.Logger)
	a.windows = window.NewManager(a.Config.Pipeline, flusher, a.Logger)

	if a.redisClient != nil {
		store := checkpoint.NewRedisStore(a.redisClient, a.Config.Broker.Kafka.GroupID)
		a.windows.WithCheckpoint(store)
		if err := a.windows.Restore(ctx); err != nil {
			initCtx := logging.WithServiceName(ctx, serviceName)
			a.Logger.WarnwCtx(initCtx, "Failed to restore watermark checkpoint",
				"error", err,
			)
		}
	}

	a.service = ingest.NewService(a.rows, a.windows, a.Logger)
	return nil
}

func (a *App) initHTTPServer() error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.LoggerMiddleware(a.Logger))

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	healthRegistry.Register(health.NewFileStoreChecker(a.Config.FileStore.PathPrefix))
	if a.redisClient != nil {
		healthRegistry.Register(health.NewRedisChecker(a.redisClient))
	}

	router.GET("/health", func(c *gin.Context) {
		h := healthRegistry.Check(c.Request.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		c.JSON(statusCode, h)
	})

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	opsHandler := ops.NewHandler(a.windows, a.Logger)
	var opsMiddleware []gin.HandlerFunc
	if a.Config.Ops.RateLimit.Enabled {
		rlCfg := ratelimit.DefaultConfig()
		if a.Config.Ops.RateLimit.RPS > 0 {
			rlCfg.RPS = a.Config.Ops.RateLimit.RPS
		}
		if a.Config.Ops.RateLimit.Burst > 0 {
			rlCfg.Burst = a.Config.Ops.RateLimit.Burst
		}
		if a.Config.Ops.RateLimit.CleanupInterval > 0 {
			rlCfg.CleanupInterval = time.Duration(a.Config.Ops.RateLimit.CleanupInterval) * time.Second
		}
		if a.Config.Ops.RateLimit.MaxAge > 0 {
			rlCfg.MaxAge = time.Duration(a.Config.Ops.RateLimit.MaxAge) * time.Second
		}
		opsMiddleware = append(opsMiddleware, ratelimit.Middleware(rlCfg))
	}
	opsHandler.RegisterRoutes(router, opsMiddleware...)

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      router,
		ReadTimeout:  a.Config.Server.ReadTimeoutSeconds * time.Second,
		WriteTimeout: a.Config.Server.WriteTimeoutSeconds * time.Second,
	}

	return nil
}

func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfowCtx(ctx, "HTTP server starting", "port", a.Config.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.windows.Run(gCtx)
	})

	inputTopic := a.Config.Broker.Kafka.InputTopic
	g.Go(func() error {
		return a.Consumer.Consume(gCtx, inputTopic, a.handleMessage)
	})

	return g.Wait()
}

func (a *App) handleMessage(ctx context.Context, raw models.RawMessage) error {
	return a.service.Process(ctx, raw)
}

func (a *App) Shutdown(ctx context.Context) error {
	shutdownCtx := logging.WithServiceName(ctx, serviceName)
	a.Logger.InfowCtx(shutdownCtx, "Shutting down ingest service")

	additionalShutdown := func(ctx context.Context) []error {
		var errs []error

		if a.server != nil {
			httpCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
			defer cancel()
			if err := a.server.Shutdown(httpCtx); err != nil {
				errs = append(errs, fmt.Errorf("HTTP server shutdown error: %w", err))
			}
		}

		errs = append(errs, a.dbConnector.ShutdownDatabases(ctx, a.redisClient, a.db)...)

		return errs
	}

	return a.Base.Shutdown(ctx, additionalShutdown)
}
