package event

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/mq"
)

const TopicProductoImportRequested = "producto.import.requested"

// ProductoImportRequestedEvent asks the worker to process a queued import job.
type ProductoImportRequestedEvent struct {
	JobID uuid.UUID `json:"job_id"`
}

// ImportProcessor runs an import job to completion.
type ImportProcessor interface {
	Process(ctx context.Context, jobID uuid.UUID) error
}

func (s *Service) handleProductoImportRequested(ctx context.Context, payload []byte) error {
	var ev ProductoImportRequestedEvent
	if err := json.Unmarshal(payload, &ev); err != nil {
		return mq.Permanent(fmt.Errorf("unmarshal producto import requested event: %w", err))
	}

	s.logger.InfoContext(ctx, "handling producto import requested event",
		slog.String("job_id", ev.JobID.String()))

	if err := s.importProcessor.Process(ctx, ev.JobID); err != nil {
		err = fmt.Errorf("process import job %s: %w", ev.JobID, err)
		if errors.Is(err, apperr.ImportJobNotFound) {
			return mq.Permanent(err)
		}
		return err
	}

	return nil
}
