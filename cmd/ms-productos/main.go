package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/event"
	"github.com/tuanvumaihuynh/medsupply/internal/http"
	"github.com/tuanvumaihuynh/medsupply/internal/log"
	"github.com/tuanvumaihuynh/medsupply/internal/relay"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/service"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/mq"
	"github.com/tuanvumaihuynh/medsupply/internal/telemetry"
	"github.com/tuanvumaihuynh/medsupply/pkg/cmdutil"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

func main() {
	if err := run(); err != nil {
		fmt.Printf("error running productos application: %v\n", err)
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
		HTTP     config.HTTP
		Storage  config.Storage
		Import   config.Import
		Relay    config.Relay
		Kafka    config.Kafka
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

	blobStore, err := blob.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("error creating blob store: %w", err)
	}

	kafkaProducer, err := mq.NewKafkaProducer(ctx, cfg.Kafka)
	if err != nil {
		return fmt.Errorf("error creating kafka producer: %w", err)
	}
	defer kafkaProducer.Close()

	kafkaConsumer, err := mq.NewKafkaConsumer(ctx, cfg.Kafka, logger)
	if err != nil {
		return fmt.Errorf("error creating kafka consumer: %w", err)
	}
	defer kafkaConsumer.Close()

	v, err := validator.NewDefaultValidator()
	if err != nil {
		return fmt.Errorf("error creating validator: %w", err)
	}

	productoRepository := repository.NewProductoRepository(dbClient)
	importJobRepository := repository.NewImportJobRepository(dbClient)
	outboxMsgRepository := repository.NewOutboxMsgRepository(dbClient)

	productoService := service.NewProductoService(dbClient, logger, v, service.SystemClock, blobStore, productoRepository)
	importacionService := service.NewImportacionService(
		cfg.Import, dbClient, logger, v, service.SystemClock, blobStore,
		productoService, importJobRepository, outboxMsgRepository,
	)

	interruptChan := cmdutil.InterruptChan()
	var wg sync.WaitGroup

	wg.Go(func() {
		svc := event.New(logger, kafkaConsumer, importacionService)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running event service: %w", err))
		}
		logger.InfoContext(ctx, "event service started")

		<-interruptChan

		logger.InfoContext(ctx, "event service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "event service is stopped")
	})

	wg.Go(func() {
		svc := http.New(cfg.HTTP, "productos", logger, dbClient,
			http.ProductoRoutes(logger, productoService, importacionService, cfg.Storage.MaxUploadBytes),
		)
		cleanup, err := svc.Run(ctx)
		if err != nil {
			panic(fmt.Errorf("error running http service: %w", err))
		}

		logger.InfoContext(ctx, "http service started", slog.String("address", fmt.Sprintf(":%d", cfg.HTTP.Port)))

		<-interruptChan

		logger.InfoContext(ctx, "http service is shutting down")
		if err := cleanup(ctx); err != nil {
			logger.ErrorContext(ctx, "error shutting down http service", slog.Any("error", err))
		}

		logger.InfoContext(ctx, "http service is stopped")
	})

	wg.Go(func() {
		svc := relay.NewService(cfg.Relay, logger, dbClient, outboxMsgRepository, kafkaProducer)
		cleanup := svc.Run(ctx)
		logger.InfoContext(ctx, "relay service started")

		<-interruptChan

		logger.InfoContext(ctx, "relay service is shutting down")
		cleanup()

		logger.InfoContext(ctx, "relay service is stopped")
	})

	wg.Wait()

	return nil
}
