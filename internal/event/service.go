package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/tuanvumaihuynh/medsupply/internal/storage/mq"
)

// Service consumes domain events and dispatches them to their handlers.
type Service struct {
	logger          *slog.Logger
	mqConsumer      mq.Consumer
	importProcessor ImportProcessor
}

// New creates a new event service.
func New(
	logger *slog.Logger,
	mqConsumer mq.Consumer,
	importProcessor ImportProcessor,
) *Service {
	return &Service{
		logger:          logger.With(slog.String("service", "event")),
		mqConsumer:      mqConsumer,
		importProcessor: importProcessor,
	}
}

type CleanupFunc func()

func (s *Service) Run(ctx context.Context) (CleanupFunc, error) {
	if err := s.mqConsumer.RegisterHandler(
		TopicProductoImportRequested,
		func(ctx context.Context, _ string, payload []byte) error {
			return s.handleProductoImportRequested(ctx, payload)
		},
	); err != nil {
		return nil, fmt.Errorf("register producto import requested handler: %w", err)
	}

	mqCleanup, err := s.mqConsumer.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("run mq consumer: %w", err)
	}

	cleanup := func() {
		mqCleanup()
	}

	return cleanup, nil
}
