package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/mapleship/delivery-api/internal/config"
	"github.com/mapleship/delivery-api/internal/handler"
	backupHandler "github.com/mapleship/delivery-api/internal/handler/backup"
	regionHandler "github.com/mapleship/delivery-api/internal/handler/region"
	systemHandler "github.com/mapleship/delivery-api/internal/handler/system"
	"github.com/mapleship/delivery-api/internal/middleware"
	"github.com/mapleship/delivery-api/internal/repository"
	"github.com/mapleship/delivery-api/internal/repository/memory"
	"github.com/mapleship/delivery-api/internal/repository/postgres"
	redisrepo "github.com/mapleship/delivery-api/internal/repository/redis"
	"github.com/mapleship/delivery-api/internal/router"
	"github.com/mapleship/delivery-api/internal/seed"
	backupService "github.com/mapleship/delivery-api/internal/service/backup"
	"github.com/mapleship/delivery-api/internal/service/oplog"
	regionService "github.com/mapleship/delivery-api/internal/service/region"
	"github.com/mapleship/delivery-api/pkg/logger"
	"github.com/mapleship/delivery-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	appLogger := logger.New(&logger.Config{
		Level:   parseLevel(cfg.Log.Level),
		Pretty:  cfg.Log.Pretty,
		Service: "delivery-api",
	})

	m := metrics.New("delivery")

	kv, err := newKVStore(cfg, m)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to key-value backend")
	}
	defer kv.Close()

	// Services
	oplogSvc := oplog.NewService(kv, appLogger, m, "api")
	regionSvc := regionService.NewService(kv, oplogSvc, appLogger,
		regionService.WithStatsTTL(cfg.Cache.StatsTTL),
	)

	seedData, err := seed.Regions()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load seed dataset")
	}
	backupSvc := backupService.NewService(kv, regionSvc, oplogSvc, appLogger, m,
		backupService.WithMaxBackups(cfg.Backup.MaxCount),
		backupService.WithSeedData(seedData),
	)

	// Handlers and router
	h := handler.NewHandler()
	r := router.NewRouter(
		regionHandler.NewHandler(regionSvc),
		backupHandler.NewHandler(backupSvc),
		systemHandler.NewHandler(kv, regionSvc, oplogSvc),
		h,
		router.Config{
			RateLimitRPS:   rateLimitRPS(cfg),
			RateLimitBurst: cfg.RateLimit.Burst,
			CORS:           middleware.DefaultCORSConfig(),
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Str("backend", cfg.Backend).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}

func newKVStore(cfg *config.Config, m *metrics.Metrics) (repository.KVStore, error) {
	switch cfg.Backend {
	case "redis":
		return redisrepo.NewStore(redisrepo.Config{
			URL:          cfg.Redis.URL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			MaxRetries:   cfg.Redis.MaxRetries,
		}, m)
	case "postgres":
		return postgres.NewStore(postgres.Config{
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			Name:     cfg.Database.Name,
			SSLMode:  cfg.Database.SSLMode,
		})
	case "memory":
		return memory.NewStore(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func rateLimitRPS(cfg *config.Config) float64 {
	if !cfg.RateLimit.Enabled {
		return 0
	}
	return cfg.RateLimit.RPS
}

func parseLevel(level string) logger.Level {
	switch level {
	case "debug":
		return logger.DebugLevel
	case "warn":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}
