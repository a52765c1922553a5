package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	rediscache "github.com/Rahima097/find-Roommate-server/internal/adapter/cache/redis"
	"github.com/Rahima097/find-Roommate-server/internal/adapter/email"
	mongoadapter "github.com/Rahima097/find-Roommate-server/internal/adapter/mongo"
	natsadapter "github.com/Rahima097/find-Roommate-server/internal/adapter/nats"
	"github.com/Rahima097/find-Roommate-server/internal/config"
	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/Rahima097/find-Roommate-server/internal/platform/metrics"
	"github.com/Rahima097/find-Roommate-server/internal/platform/tracer"
	"github.com/Rahima097/find-Roommate-server/internal/port/cache"
	"github.com/Rahima097/find-Roommate-server/internal/port/rest"
	"github.com/Rahima097/find-Roommate-server/internal/usecase"
	goredis "github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

type App struct {
	cfg           *config.Config
	log           *logger.Logger
	server        *http.Server
	metricsServer *http.Server
	mongoClient   *mongo.Client
	redisClient   *goredis.Client
	publisher     *natsadapter.Publisher
	listings      *usecase.ListingUseCase
	engagement    *usecase.EngagementUseCase
	contacts      *usecase.ContactUseCase
	tp            *sdktrace.TracerProvider
}

func New(cfg *config.Config) (*App, error) {
	appLogger := logger.NewLogger(logger.NewConfig(cfg.Log.Level, cfg.Log.Format)).Named(cfg.Service)
	appLogger.Info("logger initialized",
		zap.String("http_port", cfg.HTTP.Port),
		zap.String("database", cfg.Mongo.Database))

	m := metrics.NewMetricsManager(strings.ReplaceAll(cfg.Service, "-", "_"))
	tp := tracer.InitTracer(cfg.Service, &cfg.Tracing, appLogger)

	appLogger.Info("connecting to MongoDB...")
	mongoClient, err := mongoadapter.NewMongoDBConnection(&cfg.Mongo)
	if err != nil {
		_ = tp.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize MongoDB client: %w", err)
	}
	appLogger.Info("MongoDB client initialized")
	db := mongoClient.Database(cfg.Mongo.Database)

	listingRepo := mongoadapter.NewListingMongoRepository(db, cfg.Mongo.Collections.Listings, appLogger)
	likeRepo := mongoadapter.NewLikeMongoRepository(db, cfg.Mongo.Collections.Likes, appLogger)
	contactRepo := mongoadapter.NewContactMongoRepository(db, cfg.Mongo.Collections.Contacts, appLogger)

	indexCtx, cancel := context.WithTimeout(context.Background(), cfg.Mongo.ConnectTimeout)
	if err := listingRepo.EnsureIndexes(indexCtx); err != nil {
		appLogger.Error("failed to create listing indexes", zap.Error(err))
	}
	// Duplicate like pairs left by older data make the unique index fail.
	// Likes still work, but the per-pair guarantee is weaker until a cleanup.
	if err := likeRepo.EnsureIndexes(indexCtx); err != nil {
		appLogger.Error("failed to create unique like index", zap.Error(err))
	}
	cancel()

	a := &App{
		cfg:         cfg,
		log:         appLogger,
		mongoClient: mongoClient,
		tp:          tp,
	}

	var cacheRepo cache.CacheRepository
	if cfg.Redis.Enabled {
		client, err := rediscache.NewRedisClient(&cfg.Redis, appLogger)
		if err != nil {
			appLogger.Warn("redis unavailable, listing cache disabled", zap.Error(err))
		} else {
			a.redisClient = client
			cacheRepo = rediscache.NewRedisCacheRepository(client, appLogger)
		}
	}

	var publisher usecase.EventPublisher
	if cfg.NATS.Enabled {
		p, err := natsadapter.NewPublisher(cfg.NATS.URL, cfg.NATS.ConnectTimeout, appLogger, cfg.Service)
		if err != nil {
			appLogger.Warn("NATS unavailable, events disabled", zap.Error(err))
		} else {
			a.publisher = p
			publisher = p
		}
	}

	var notifier usecase.Notifier
	if cfg.SMTP.Enabled {
		notifier = email.NewSMTPSender(&cfg.SMTP, appLogger)
	}

	cacheOpts := usecase.CacheOptions{
		TTL:             cfg.Redis.ListingTTL,
		InvalidateDelay: cfg.Redis.InvalidateDelay,
	}
	a.listings = usecase.NewListingUseCase(listingRepo, cacheRepo, publisher, m, usecase.ListingOptions{
		DefaultLimit: cfg.Listings.DefaultLimit,
		MaxLimit:     cfg.Listings.MaxLimit,
		Cache:        cacheOpts,
	}, appLogger)
	a.engagement = usecase.NewEngagementUseCase(listingRepo, likeRepo, cacheRepo, cacheOpts, publisher, m, appLogger)
	a.contacts = usecase.NewContactUseCase(contactRepo, notifier, cfg.SMTP.NotifyEmail, publisher, m, appLogger)

	checks := map[string]rest.PingFunc{
		"mongo": func(ctx context.Context) error { return mongoadapter.Ping(ctx, mongoClient) },
	}
	if a.redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return a.redisClient.Ping(ctx).Err() }
	}

	handler := rest.NewHandler(a.listings, a.engagement, a.contacts, checks, cfg.HTTP.MaxBodyBytes, appLogger)
	router := rest.NewRouter(handler, rest.RouterOptions{
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Metrics:        m,
	}, appLogger)

	a.server = &http.Server{
		Addr:         ":" + cfg.HTTP.Port,
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	a.metricsServer = metrics.NewMetricsServer(cfg.Metrics.Port, appLogger, m)

	return a, nil
}

// Run serves until SIGINT or SIGTERM, then shuts everything down in reverse
// order of construction.
func (a *App) Run() error {
	errCh := make(chan error, 2)

	go func() {
		a.log.Info("HTTP server starting", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	if a.metricsServer != nil {
		go func() {
			a.log.Info("metrics server starting", zap.String("addr", a.metricsServer.Addr))
			if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error("metrics server failed", zap.Error(err))
			}
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-quit:
		a.log.Info("received shutdown signal", zap.String("signal", sig.String()))
	case runErr = <-errCh:
		a.log.Error("server stopped unexpectedly", zap.Error(runErr))
	}

	a.shutdown()
	return runErr
}

func (a *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTP.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		a.log.Error("HTTP server shutdown failed", zap.Error(err))
	} else {
		a.log.Info("HTTP server stopped")
	}
	if a.metricsServer != nil {
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			a.log.Error("metrics server shutdown failed", zap.Error(err))
		}
	}

	a.contacts.Wait()
	a.listings.Wait()
	a.engagement.Wait()

	if a.publisher != nil {
		a.publisher.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Error("error closing redis client", zap.Error(err))
		}
	}
	if err := a.mongoClient.Disconnect(ctx); err != nil {
		a.log.Error("error disconnecting from MongoDB", zap.Error(err))
	} else {
		a.log.Info("MongoDB connection closed")
	}
	if err := a.tp.Shutdown(ctx); err != nil {
		a.log.Error("error shutting down tracer provider", zap.Error(err))
	}

	a.log.Info("application shut down")
	_ = a.log.Sync()
}
