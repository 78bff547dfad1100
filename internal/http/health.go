package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
)

const readinessTimeout = 2 * time.Second

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Service) liveness(w http.ResponseWriter, r *http.Request) {
	entityHealth(s.logger, s.name)(w, r)
}

func (s *Service) readiness(w http.ResponseWriter, r *http.Request) error {
	if s.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		if _, err := s.health.IsHealthy(ctx); err != nil {
			return apperr.NotReadyErr.WrapParent(err)
		}
	}

	return writeJSON(w, http.StatusOK, healthResponse{Status: "ready", Service: s.name})
}

// entityHealth answers the liveness probe of one entity service.
func entityHealth(logger *slog.Logger, service string) http.HandlerFunc {
	return handle(logger, func(w http.ResponseWriter, _ *http.Request) error {
		return writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Service: service})
	})
}
