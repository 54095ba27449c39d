package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/genosentinel/auth-gateway/internal/api"
	"github.com/genosentinel/auth-gateway/internal/core/service"
	mongodb "github.com/genosentinel/auth-gateway/internal/infrastructure/db/mongo"
	"github.com/genosentinel/auth-gateway/internal/infrastructure/proxy"
	"github.com/genosentinel/auth-gateway/internal/pkg/config"
	"github.com/genosentinel/auth-gateway/pkg/logger"
)

func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- User directory ---
	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("user directory unavailable")
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	accounts := mongodb.NewAccountRepository(db)
	if err := accounts.EnsureIndexes(ctx); err != nil {
		log.Fatal().Err(err).Msg("account index creation failed")
	}

	// --- Core services ---
	tokens := service.NewTokenEngine(cfg.JWTSecret, cfg.TokenTTL)
	authService := service.NewAuthService(accounts, tokens, log)
	if err := authService.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("default account seeding failed")
	}

	// --- Forwarding engine ---
	registry, err := proxy.NewRegistry(cfg.Backends.Map())
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backend configuration")
	}
	forwarder := proxy.NewForwarder(registry, proxy.Options{
		ConnectTimeout: cfg.Forward.ConnectTimeout,
		ReadTimeout:    cfg.Forward.ReadTimeout,
		MaxInFlight:    cfg.Forward.MaxInFlight,
	}, log)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Forwarder:   forwarder,
		Mongo:       db,
		Backends:    registry.Names(),
		Log:         log,
	})

	// The server goroutine signals failure through stop() instead of exiting
	// so the deferred disconnect still runs.
	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Strs("backends", registry.Names()).Msg("gateway listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()

	select {
	case err := <-serveErr:
		log.Error().Err(err).Msg("server stopped unexpectedly")
	default:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	log.Info().Msg("shutting down")
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}
