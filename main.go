package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"rental-location/internal/analytics"
	analytics_api "rental-location/internal/analytics/api"
	"rental-location/internal/auth"
	"rental-location/internal/cache"
	"rental-location/internal/config"
	"rental-location/internal/database"
	"rental-location/internal/database/migrations"
	"rental-location/internal/kafka"
	"rental-location/internal/live"
	"rental-location/internal/logger"
	"rental-location/internal/qr"
	"rental-location/internal/rentals/api"
	"rental-location/internal/rentals/db"
	"rental-location/internal/rentals/service"
	"rental-location/internal/zones"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func migrate(cfg config.DatabaseConfig, bunDB *bun.DB, log *logger.Logger) {
	if cfg.Driver != database.DriverPostgres || !cfg.AutoMigrate {
		return
	}
	opts := migrations.DefaultOptions()
	opts.MigrationsDir = cfg.MigrationsDir

	runner := migrations.NewRunner(bunDB, opts, log)
	defer runner.Close()
	if err := runner.RunMigrations(); err != nil {
		log.Fatal("MIGRATION", fmt.Sprintf("Failed to run migrations: %v", err))
	}
}

// connectRedis returns nil when Redis is unreachable; the service then runs as a
// single instance without the stats cache.
func connectRedis(cfg config.RedisConfig, log *logger.Logger) *redis.Client {
	client, err := cache.Connect(cfg.Addr, cfg.Password, cfg.DB, log)
	if err != nil {
		log.Warn("REDIS", "Running without Redis: no stats cache, live updates stay in-process")
		return nil
	}
	return client
}

func setupKafka(cfg config.KafkaConfig, log *logger.Logger) *kafka.Producer {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka audit stream disabled")
		return nil
	}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, []string{cfg.Topic}); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}
	log.LogKafka("INIT", cfg.Topic, "Kafka producer initialized")
	return kafka.NewProducer(cfg.Brokers, cfg.Topic)
}

func verifiers(ctx context.Context, cfg config.AuthConfig, issuer *auth.TokenIssuer, log *logger.Logger) []auth.Verifier {
	out := []auth.Verifier{issuer}
	if cfg.OIDCIssuer == "" {
		return out
	}
	oidcVerifier, err := auth.NewOIDCVerifier(ctx, cfg.OIDCIssuer)
	if err != nil {
		log.Fatal("AUTH", fmt.Sprintf("Failed to set up OIDC verifier: %v", err))
	}
	log.Info("AUTH", fmt.Sprintf("Accepting ID tokens from %s", cfg.OIDCIssuer))
	return append(out, oidcVerifier)
}

func main() {
	cfg, envLoaded := config.Load()

	log := logger.NewRotatingLogger(logger.FileOptions{
		Dir:        cfg.Log.Dir,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
		Compress:   cfg.Log.Compress,
	})
	defer log.Close()
	log.SetLevel(cfg.Log.Level)

	log.Info("APP", "Starting rental location service")
	if envLoaded {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	} else {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bunDB, err := database.Open(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("DATABASE", err.Error())
	}
	defer bunDB.Close()
	migrate(cfg.Database, bunDB, log)

	topo := zones.DefaultTopology()
	if err := topo.Validate(); err != nil {
		log.Fatal("ZONES", fmt.Sprintf("Invalid zone table: %v", err))
	}

	redisClient := connectRedis(cfg.Redis, log)
	producer := setupKafka(cfg.Kafka, log)

	svc := service.NewRentalService(&db.DB{Bun: bunDB}, nil, nil, nil, topo, log)
	if producer != nil {
		defer producer.Close()
		svc.Audit = producer
	}

	hub := live.NewHub(svc, log)
	if redisClient != nil {
		defer redisClient.Close()
		svc.Cache = cache.NewStatsCache(redisClient, cfg.Stats.CacheTTL)
		svc.Guard = cache.NewSubmitGuard(redisClient, cache.DefaultSubmitTTL)
		svc.Notifier = live.NewNotifier(redisClient, cfg.Redis.Channel)
		go func() {
			if err := hub.Run(ctx, redisClient, cfg.Redis.Channel); err != nil {
				log.Error("LIVE", fmt.Sprintf("Change listener stopped: %v", err))
			}
		}()
	} else {
		svc.Notifier = hub
	}

	secret := cfg.Auth.JWTSecret
	if secret == "" {
		secret = uuid.New().String()
		log.Warn("AUTH", "JWT_SECRET not set, using a random secret; tokens will not survive a restart")
	}
	issuer := auth.NewTokenIssuer(secret, cfg.Auth.TokenTTL)

	handler := api.NewHandler(svc, hub, issuer, qr.NewGenerator(cfg.FormURL), log)
	handler.EditorSecret = cfg.Auth.EditorSecret
	if handler.EditorSecret == "" && cfg.Auth.OIDCIssuer == "" {
		log.Warn("AUTH", "Neither EDITOR_SECRET nor OIDC_ISSUER is set; settings cannot be changed")
	}
	handler.Limiter = api.NewRateLimiter(cfg.RateLimit.PerMinute, cfg.RateLimit.Burst)
	if err := handler.Limiter.TrustProxies(cfg.RateLimit.TrustedProxies); err != nil {
		log.Fatal("CONFIG", err.Error())
	}
	analyticsHandler := analytics_api.NewHandler(analytics.NewService(analytics.NewDB(bunDB)), log)

	log.Info("HTTP", "Setting up router and middleware")
	r := api.NewRouter(handler, []api.RouteRegistrar{analyticsHandler}, verifiers(ctx, cfg.Auth, issuer, log)...)
	log.Info("ROUTER", "Rental and analytics routes registered under /api")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
		// Request contexts end on shutdown, which closes open SSE streams
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Rental location service running on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	log.Info("APP", "Service started successfully, waiting for shutdown signal")
	<-stop

	log.Info("APP", "Shutdown signal received, initiating graceful shutdown")
	cancel()

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Error("HTTP", fmt.Sprintf("Server Shutdown Failed: %v", err))
	} else {
		log.Info("HTTP", "Rental location service shutdown complete")
	}
}
