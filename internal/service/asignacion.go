package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type CreateAsignacionParams struct {
	Zona         string      `json:"zona" validate:"notblank,max=80"`
	VigenteDesde model.Date  `json:"vigente_desde" validate:"required"`
	VigenteHasta *model.Date `json:"vigente_hasta"`
}

type CerrarAsignacionParams struct {
	// VigenteHasta defaults to today.
	VigenteHasta *model.Date `json:"vigente_hasta"`
}

type ListAsignacionesParams struct {
	VendedorID *uuid.UUID `json:"vendedor_id"`
	Zona       *string    `json:"zona"`
	Activa     *bool      `json:"activa"`
	Page       *int       `json:"page"`
	Size       *int       `json:"size"`
}

type AsignacionService interface {
	Create(ctx context.Context, vendedorID uuid.UUID, params CreateAsignacionParams, actor *string) (model.AsignacionZona, error)
	Cerrar(ctx context.Context, id uuid.UUID, params CerrarAsignacionParams, actor *string) (model.AsignacionZona, error)
	List(ctx context.Context, params ListAsignacionesParams) (pagination.Page[model.AsignacionZona], error)
}

type asignacionService struct {
	db             db.DB
	validator      validator.Validator
	clock          Clock
	vendedorRepo   repository.VendedorRepository
	asignacionRepo repository.AsignacionZonaRepository
}

func NewAsignacionService(
	db db.DB,
	validator validator.Validator,
	clock Clock,
	vendedorRepo repository.VendedorRepository,
	asignacionRepo repository.AsignacionZonaRepository,
) AsignacionService {
	return &asignacionService{
		db:             db,
		validator:      validator,
		clock:          clock,
		vendedorRepo:   vendedorRepo,
		asignacionRepo: asignacionRepo,
	}
}

var errVigenciaInvalida = apperr.ValidationErr.WithMsg("vigente_hasta must not be before vigente_desde")

func (s *asignacionService) Create(ctx context.Context, vendedorID uuid.UUID, params CreateAsignacionParams, actor *string) (model.AsignacionZona, error) {
	params.Zona = trim(params.Zona)
	if err := validate(s.validator, params); err != nil {
		return model.AsignacionZona{}, err
	}
	if params.VigenteHasta != nil && params.VigenteHasta.Before(params.VigenteDesde.Time) {
		return model.AsignacionZona{}, errVigenciaInvalida
	}

	id, err := newID()
	if err != nil {
		return model.AsignacionZona{}, err
	}

	asignacion := model.AsignacionZona{
		ID:           id,
		VendedorID:   vendedorID,
		Zona:         params.Zona,
		VigenteDesde: params.VigenteDesde,
		VigenteHasta: params.VigenteHasta,
		Activa:       true,
		Audit:        model.NewAudit(actor, stamp(s.clock)),
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if _, err := s.vendedorRepo.WithDB(db).FindByID(ctx, vendedorID); err != nil {
			return mapFindErr(err, apperr.VendedorNotFound)
		}
		if err := s.asignacionRepo.WithDB(db).Insert(ctx, asignacion); err != nil {
			return fmt.Errorf("asignacion repository insert: %w", err)
		}
		return nil
	}); err != nil {
		return model.AsignacionZona{}, fmt.Errorf("db with tx: %w", err)
	}

	return asignacion, nil
}

func (s *asignacionService) Cerrar(ctx context.Context, id uuid.UUID, params CerrarAsignacionParams, actor *string) (model.AsignacionZona, error) {
	var asignacion model.AsignacionZona
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.asignacionRepo.WithDB(db)

		var err error
		asignacion, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err, apperr.AsignacionNotFound)
		}
		if !asignacion.Activa {
			return apperr.AsignacionCerrada
		}

		now := nextStamp(s.clock, asignacion.FechaActualizacion)
		hasta := model.NewDate(s.clock())
		if params.VigenteHasta != nil {
			hasta = *params.VigenteHasta
		}
		if hasta.Before(asignacion.VigenteDesde.Time) {
			return errVigenciaInvalida
		}

		asignacion.VigenteHasta = &hasta
		asignacion.Activa = false
		asignacion.Touch(actor, now)

		if err := repo.Update(ctx, asignacion); err != nil {
			return mapWriteErr(err, apperr.AsignacionNotFound, apperr.AsignacionCerrada)
		}
		return nil
	}); err != nil {
		return model.AsignacionZona{}, fmt.Errorf("db with tx: %w", err)
	}

	return asignacion, nil
}

func (s *asignacionService) List(ctx context.Context, params ListAsignacionesParams) (pagination.Page[model.AsignacionZona], error) {
	page := pagination.Normalize(params.Page, params.Size)
	items, total, err := s.asignacionRepo.ListPage(ctx, repository.ListAsignacionesParams{
		VendedorID: params.VendedorID,
		Zona:       nullable(trimPtr(params.Zona)),
		Activa:     params.Activa,
		Page:       page,
	})
	if err != nil {
		return pagination.Page[model.AsignacionZona]{}, fmt.Errorf("asignacion repository list page: %w", err)
	}

	return pagination.NewPage(items, page, total), nil
}
