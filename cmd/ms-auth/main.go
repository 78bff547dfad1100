package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/tuanvumaihuynh/medsupply/internal/auth"
	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/http"
	"github.com/tuanvumaihuynh/medsupply/internal/http/middleware"
	"github.com/tuanvumaihuynh/medsupply/internal/log"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/service"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/internal/telemetry"
	"github.com/tuanvumaihuynh/medsupply/pkg/cmdutil"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running auth application: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	time.Local = time.UTC

	type Config struct {
		Log      config.Log
		Postgres config.Postgres
		Auth     config.Auth
		HTTP     config.HTTP
		Otel     config.Otel
	}
	cfg, err := config.New[Config]()
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	logger := log.NewSlogLogger(cfg.Log)

	cleanupTracer, err := telemetry.InitTracer(ctx, cfg.Otel)
	if err != nil {
		return fmt.Errorf("error initializing tracer: %w", err)
	}
	defer func() {
		if err := cleanupTracer(ctx); err != nil {
			logger.ErrorContext(ctx, "error cleaning up tracer", slog.Any("error", err))
		}
	}()

	pgxPool, err := db.NewPgxPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("error creating pgx pool: %w", err)
	}
	defer pgxPool.Close()

	dbClient := db.NewClient(pgxPool)

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	userRepository := repository.NewUserRepository(dbClient)
	authService := service.NewAuthService(dbClient, v, service.SystemClock,
		auth.NewTokenManager(cfg.Auth), cfg.Auth.BcryptCost, userRepository)

	limiter := middleware.NewRateLimiter(ctx, cfg.Auth.RateLimitRPS, cfg.Auth.RateLimitBurst)

	svc := http.New(cfg.HTTP, "auth", logger, dbClient)
	svc.Register(http.AuthRoutes(logger, authService, limiter, svc.Metrics()))
	cleanup, err := svc.Run(ctx)
	if err != nil {
		return fmt.Errorf("error running http service: %w", err)
	}

	logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

	<-cmdutil.InterruptChan()

	logger.InfoContext(ctx, "http service is shutting down")
	if err := cleanup(ctx); err != nil {
		logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
	}

	logger.InfoContext(ctx, "http service is stopped")

	return nil
}
