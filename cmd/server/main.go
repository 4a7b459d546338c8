package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/secretkeeper/secretkeeper/internal/api"
	"github.com/secretkeeper/secretkeeper/internal/core/ports"
	"github.com/secretkeeper/secretkeeper/internal/core/service"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/config"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/db/mongo"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/db/redis"
	"github.com/secretkeeper/secretkeeper/internal/infrastructure/oauth"
	"github.com/secretkeeper/secretkeeper/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		logger.Init(logger.Options{})
		l := logger.Get()
		l.Fatal().Err(err).Msg("load configuration")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	// --- Stores ---
	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect mongo")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		log.Fatal().Err(err).Msg("ensure indexes")
	}

	rdb, err := redis.Connect(ctx, redis.Config{
		Addr: cfg.Redis.Addr,
		DB:   cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("connect redis")
	}
	defer rdb.Close()

	// --- Services ---
	userRepo := mongo.NewUserRepository(db)
	sessionStore := redis.NewSessionStore(rdb)

	credentials := service.NewCredentialService(userRepo)
	federation := service.NewFederationService(userRepo)
	sessions := service.NewSessionService(sessionStore, userRepo, cfg.SessionSecret, cfg.SessionTTL)
	secrets := service.NewSecretService(userRepo)

	var providers []ports.IdentityProvider
	if cfg.Google.Enabled() {
		providers = append(providers, oauth.NewGoogle(cfg.Google))
	} else {
		log.Warn().Msg("google provider not configured, /auth/google disabled")
	}
	if cfg.Facebook.Enabled() {
		providers = append(providers, oauth.NewFacebook(cfg.Facebook))
	} else {
		log.Warn().Msg("facebook provider not configured, /auth/facebook disabled")
	}

	// --- HTTP server ---
	e := api.NewRouter(api.Deps{
		Cfg:         cfg,
		Credentials: credentials,
		Federation:  federation,
		Sessions:    sessions,
		Secrets:     secrets,
		Providers:   providers,
		Mongo:       db,
		Redis:       rdb,
		Metrics:     prometheus.DefaultRegisterer,
		Log:         log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server stopped")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server started")

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}
