package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/canteenx/canteen-system/internal/api"
	"github.com/canteenx/canteen-system/internal/api/handler"
	"github.com/canteenx/canteen-system/internal/core/service"
	"github.com/canteenx/canteen-system/internal/infrastructure/db/mongo"
	"github.com/canteenx/canteen-system/internal/infrastructure/db/redis"
	"github.com/canteenx/canteen-system/internal/infrastructure/password"
	"github.com/canteenx/canteen-system/internal/pkg/config"
	"github.com/canteenx/canteen-system/pkg/logger"
)

// canteenx serve: start the HTTP server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func serve(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Error().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	redisCfg := redis.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	redisClient, err := redis.Connect(ctx, redisCfg)
	if err != nil {
		// Orders are still accepted; Idempotency-Key headers are ignored until Redis answers.
		log.Warn().Err(err).Msg("redis unavailable at startup, idempotency keys disabled until it recovers")
		redisClient = redis.NewClient(redisCfg)
	}
	defer redisClient.Close()

	users := mongo.NewUserRepository(db)
	foods := mongo.NewFoodRepository(db)
	orders := mongo.NewOrderRepository(db)

	tokens := service.NewTokenIssuer(service.TokenConfig{
		Secret: cfg.Auth.JWTSecret,
		Issuer: cfg.Auth.JWTIssuer,
		TTL:    cfg.Auth.TokenTTL,
	})
	authService := service.NewAuthService(users, password.NewBcryptHasher(cfg.Auth.BcryptCost), tokens, cfg.Auth.TokenTTL, log)
	orderService := service.NewOrderService(orders, foods, users, redis.NewIdempotencyStore(redisClient, cfg.Redis.IdempotencyTTL), log)
	foodService := service.NewFoodService(foods, log)

	e := api.NewRouter(api.Deps{
		Logger: log,
		Tokens: tokens,
		Auth:   authService,
		Orders: orderService,
		Foods:  foodService,
		Readiness: map[string]handler.DependencyCheck{
			"mongodb": func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
			"redis":   func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		},
		Registerer: prometheus.DefaultRegisterer,
		Gatherer:   prometheus.DefaultGatherer,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info().Msg("server stopped")
	return nil
}
