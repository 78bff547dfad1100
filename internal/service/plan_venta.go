package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type UpsertPlanVentaParams struct {
	VendedorID      uuid.UUID       `json:"vendedor_id" validate:"required"`
	Periodo         string          `json:"periodo" validate:"required,period"`
	ObjetivoMensual decimal.Decimal `json:"objetivo_mensual" validate:"required,gt=0,lte=999999999999.99"`
	MetaUnidades    *int            `json:"meta_unidades" validate:"omitnil,gte=0"`
	Estado          *model.Estado   `json:"estado" validate:"omitnil,enum"`
}

type ListPlanesVentaParams struct {
	VendedorID *uuid.UUID `json:"vendedor_id"`
	Periodo    *string    `json:"periodo" validate:"omitnil,period"`
	Page       *int       `json:"page"`
	Size       *int       `json:"size"`
}

type PlanVentaService interface {
	// Upsert creates the plan of a vendedor for a periodo, or replaces its
	// objective when one already exists. created reports which happened.
	Upsert(ctx context.Context, params UpsertPlanVentaParams, actor *string) (plan model.PlanVenta, created bool, err error)
	List(ctx context.Context, params ListPlanesVentaParams) (pagination.Page[model.PlanVenta], error)
}

type planVentaService struct {
	db            db.DB
	validator     validator.Validator
	clock         Clock
	vendedorRepo  repository.VendedorRepository
	planVentaRepo repository.PlanVentaRepository
}

func NewPlanVentaService(
	db db.DB,
	validator validator.Validator,
	clock Clock,
	vendedorRepo repository.VendedorRepository,
	planVentaRepo repository.PlanVentaRepository,
) PlanVentaService {
	return &planVentaService{
		db:            db,
		validator:     validator,
		clock:         clock,
		vendedorRepo:  vendedorRepo,
		planVentaRepo: planVentaRepo,
	}
}

func (s *planVentaService) Upsert(ctx context.Context, params UpsertPlanVentaParams, actor *string) (model.PlanVenta, bool, error) {
	params.Periodo = trim(params.Periodo)
	params.ObjetivoMensual = params.ObjetivoMensual.Round(2)
	if err := validate(s.validator, params); err != nil {
		return model.PlanVenta{}, false, err
	}

	var (
		plan    model.PlanVenta
		created bool
	)
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if _, err := s.vendedorRepo.WithDB(db).FindByID(ctx, params.VendedorID); err != nil {
			return mapFindErr(err, apperr.VendedorNotFound)
		}

		repo := s.planVentaRepo.WithDB(db)
		existing, err := repo.FindByVendedorPeriodo(ctx, params.VendedorID, params.Periodo)
		switch {
		case errors.Is(err, repository.ErrNotFound):
			id, err := newID()
			if err != nil {
				return err
			}
			plan = model.PlanVenta{
				ID:              id,
				VendedorID:      params.VendedorID,
				Periodo:         params.Periodo,
				ObjetivoMensual: params.ObjetivoMensual,
				MetaUnidades:    params.MetaUnidades,
				Estado:          model.EstadoActivo,
				Audit:           model.NewAudit(actor, stamp(s.clock)),
			}
			apply(&plan.Estado, params.Estado)
			created = true

			if err := repo.Insert(ctx, plan); err != nil {
				return mapWriteErr(err, apperr.VendedorNotFound, apperr.PlanVentaDuplicado)
			}
			return nil
		case err != nil:
			return fmt.Errorf("plan venta repository find by vendedor periodo: %w", err)
		}

		plan = existing
		plan.ObjetivoMensual = params.ObjetivoMensual
		plan.MetaUnidades = params.MetaUnidades
		apply(&plan.Estado, params.Estado)
		plan.Touch(actor, nextStamp(s.clock, plan.FechaActualizacion))

		if err := repo.Update(ctx, plan); err != nil {
			return mapWriteErr(err, apperr.VendedorNotFound, apperr.PlanVentaDuplicado)
		}
		return nil
	}); err != nil {
		return model.PlanVenta{}, false, fmt.Errorf("db with tx: %w", err)
	}

	return plan, created, nil
}

func (s *planVentaService) List(ctx context.Context, params ListPlanesVentaParams) (pagination.Page[model.PlanVenta], error) {
	if err := validate(s.validator, params); err != nil {
		return pagination.Page[model.PlanVenta]{}, err
	}

	page := pagination.Normalize(params.Page, params.Size)
	items, total, err := s.planVentaRepo.ListPage(ctx, repository.ListPlanesVentaParams{
		VendedorID: params.VendedorID,
		Periodo:    params.Periodo,
		Page:       page,
	})
	if err != nil {
		return pagination.Page[model.PlanVenta]{}, fmt.Errorf("plan venta repository list page: %w", err)
	}

	return pagination.NewPage(items, page, total), nil
}
