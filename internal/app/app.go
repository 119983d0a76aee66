package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/utafrali/grocify/pkg/database"
	"github.com/utafrali/grocify/pkg/health"
	pkgkafka "github.com/utafrali/grocify/pkg/kafka"
	"github.com/utafrali/grocify/pkg/middleware"
	"github.com/utafrali/grocify/pkg/tracing"

	"github.com/utafrali/grocify/internal/config"
	"github.com/utafrali/grocify/internal/event"
	handler "github.com/utafrali/grocify/internal/handler/http"
	"github.com/utafrali/grocify/internal/report"
	"github.com/utafrali/grocify/internal/repository"
	"github.com/utafrali/grocify/internal/repository/memory"
	mongorepo "github.com/utafrali/grocify/internal/repository/mongo"
	pgrepo "github.com/utafrali/grocify/internal/repository/postgres"
	redisrepo "github.com/utafrali/grocify/internal/repository/redis"
	"github.com/utafrali/grocify/internal/service"
	"github.com/utafrali/grocify/migrations"
)

// Version is stamped into traces. Overridden at build time with -ldflags.
var Version = "dev"

// App wires together all dependencies and runs the API server.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	mongo          *mongo.Client
	pool           *pgxpool.Pool
	rdb            *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	shutdown, err := tracing.InitTracer(ctx, cfg.Tracing(handler.ServiceName, Version))
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = shutdown
	database.SetSlowQueryLogging(cfg.SlowQueryThreshold(), logger)

	renderer := report.PDFRenderer{}
	if cfg.ReportFontPath != "" {
		font, err := report.LoadUTF8Font(cfg.ReportFontPath, cfg.ReportFontBoldPath)
		if err != nil {
			a.closeClients()
			return nil, err
		}
		renderer.Font = font
	}

	healthHandler := health.NewHandler()

	orderRepo, err := a.openOrderStore(ctx, healthHandler)
	if err != nil {
		a.closeClients()
		return nil, err
	}

	var idempotency repository.IdempotencyStore
	if cfg.RedisEnabled {
		rdb, err := database.NewRedisClient(ctx, cfg.Redis())
		if err != nil {
			a.closeClients()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		a.rdb = rdb
		idempotency = redisrepo.NewIdempotencyStore(rdb, cfg.IdempotencyTTL())
		healthHandler.RegisterNonCritical("redis", func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		})
		logger.Info("connected to Redis", slog.String("addr", cfg.RedisAddr))
	} else {
		idempotency = memory.NewIdempotencyStore(cfg.IdempotencyTTL())
	}

	var publisher event.Publisher = event.Nop{}
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		publisher = event.NewProducer(a.producer, logger)
		healthHandler.RegisterNonCritical("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	orderService := service.NewOrderService(orderRepo, idempotency, publisher, logger)
	reportService := service.NewReportService(orderService, renderer, cfg.Report(), logger)

	cors := middleware.DefaultCORSConfig()
	cors.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(orderService, reportService, healthHandler, logger, handler.RouterConfig{
		CORS:       cors,
		PprofCIDRs: cfg.PprofAllowedCIDRs,
		RateLimit:  cfg.RateLimit(),
	})

	a.httpServer = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return a, nil
}

// openOrderStore connects the configured order store backend and registers
// its readiness check.
func (a *App) openOrderStore(ctx context.Context, h *health.Handler) (repository.OrderRepository, error) {
	cfg := a.cfg

	switch cfg.OrderStore {
	case config.StorePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg.Postgres(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to postgres: %w", err)
		}
		a.pool = pool

		if err := database.RunMigrations(ctx, pool, migrations.FS, a.logger); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		database.RegisterPoolMetrics(pool, handler.ServiceName)
		h.RegisterCritical("postgres", pool.Ping)

		a.logger.Info("connected to PostgreSQL",
			slog.String("host", cfg.PostgresHost),
			slog.String("database", cfg.PostgresDB),
		)
		return pgrepo.NewOrderRepository(pool), nil

	case config.StoreMemory:
		a.logger.Warn("using in-memory order store; orders are lost on restart")
		return memory.NewOrderRepository(), nil

	default:
		client, err := database.NewMongoClient(ctx, cfg.Mongo(), a.logger)
		if err != nil {
			return nil, fmt.Errorf("connect to mongo: %w", err)
		}
		a.mongo = client

		repo := mongorepo.NewOrderRepository(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection))
		if err := repo.EnsureIndexes(ctx); err != nil {
			return nil, fmt.Errorf("ensure mongo indexes: %w", err)
		}
		h.RegisterCritical("mongo", func(ctx context.Context) error {
			return database.PingMongo(ctx, client)
		})

		a.logger.Info("connected to MongoDB",
			slog.String("database", cfg.MongoDatabase),
			slog.String("collection", cfg.MongoCollection),
		)
		return repo, nil
	}
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("order_store", a.cfg.OrderStore),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeClients()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components: HTTP server first, then the
// tracer, the Kafka producer and finally the store clients.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeClients()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeClients() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		}
	}
	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			a.logger.Error("mongo disconnect error", slog.String("error", err.Error()))
		}
	}
	if a.pool != nil {
		a.pool.Close()
	}
	if a.rdb != nil {
		if err := a.rdb.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}
}
