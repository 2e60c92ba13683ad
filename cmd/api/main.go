// Package main is the entry point for the accounts API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/darkr4m/5StarK9/internal/api"
	"github.com/darkr4m/5StarK9/internal/api/handler"
	"github.com/darkr4m/5StarK9/internal/api/metrics"
	"github.com/darkr4m/5StarK9/internal/core/domain"
	"github.com/darkr4m/5StarK9/internal/core/service"
	"github.com/darkr4m/5StarK9/internal/infrastructure/config"
	mongostore "github.com/darkr4m/5StarK9/internal/infrastructure/db/mongo"
	"github.com/darkr4m/5StarK9/internal/infrastructure/db/postgres"
	redisstore "github.com/darkr4m/5StarK9/internal/infrastructure/db/redis"
	"github.com/darkr4m/5StarK9/internal/infrastructure/queue"
	"github.com/darkr4m/5StarK9/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// @title                       Accounts API
// @version                     1.0
// @description                 Account registration, token authentication and client profiles.
// @BasePath                    /
// @securityDefinitions.apikey  TokenAuth
// @in                          header
// @name                        Authorization
// @description                 Type "Token" followed by a space and the key.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		boot := logger.Init(logger.Options{})
		boot.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "accounts-api",
	})

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server exited with error")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	// --- Stores ---
	db, err := postgres.Connect(ctx, postgres.Config{
		DSN:          cfg.Postgres.DSN,
		MaxOpenConns: cfg.Postgres.MaxOpenConns,
	})
	if err != nil {
		return err
	}
	defer func() { _ = postgres.Close(db) }()

	if err := postgres.Migrate(db); err != nil {
		return err
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	mongoClient, mongoDB, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer func() { _ = mongoClient.Disconnect(context.Background()) }()

	auditRepo := mongostore.NewAuditRepository(mongoDB)
	if err := auditRepo.EnsureIndexes(ctx); err != nil {
		log.Warn().Err(err).Msg("could not create audit indexes")
	}

	// --- Audit workers ---
	dispatcher := queue.NewDispatcher(cfg.AuditWorkers, auditRepo, logger.Named("audit"))
	dispatcher.OnDrop(func(domain.AuditEvent) { metrics.AuditDroppedTotal.Inc() })
	dispatcher.Start()

	// --- Services ---
	accounts := service.NewAccountService(
		postgres.NewUserRepository(db),
		postgres.NewTokenRepository(db),
		redisstore.NewTokenCache(rdb, cfg.Redis.TokenTTL),
		dispatcher,
		service.AccountOptions{AdminBootstrap: cfg.AdminBootstrap},
		logger.Named("accounts"),
	)
	clients := service.NewClientService(postgres.NewClientRepository(db), dispatcher, logger.Named("clients"))

	e := api.NewRouter(api.Deps{
		Accounts: accounts,
		Clients:  clients,
		Health: map[string]handler.Check{
			"postgres": func(ctx context.Context) error { return postgres.Ping(ctx, db) },
			"redis":    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
			"mongodb":  func(ctx context.Context) error { return mongoClient.Ping(ctx, nil) },
		},
		Log:            logger.Named("http"),
		SwaggerEnabled: cfg.SwaggerEnabled,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting accounts API")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown failed")
	}
	if err := dispatcher.Stop(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("audit queue not fully drained")
	}

	log.Info().Msg("shutdown complete")
	return nil
}
