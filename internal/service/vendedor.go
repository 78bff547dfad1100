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

type CreateVendedorParams struct {
	Nombre         string        `json:"nombre" validate:"notblank,max=150"`
	Apellidos      string        `json:"apellidos" validate:"notblank,max=150"`
	Correo         string        `json:"correo" validate:"required,email,max=254"`
	Celular        string        `json:"celular" validate:"required,phone,max=30"`
	Identificacion *string       `json:"identificacion" validate:"omitnil,max=30"`
	Zona           *string       `json:"zona" validate:"omitnil,max=80"`
	Estado         *model.Estado `json:"estado" validate:"omitnil,enum"`
}

func (p *CreateVendedorParams) normalize() {
	p.Nombre = trim(p.Nombre)
	p.Apellidos = trim(p.Apellidos)
	p.Correo = *lowerPtr(&p.Correo)
	p.Celular = trim(p.Celular)
	p.Identificacion = nullable(trimPtr(p.Identificacion))
	p.Zona = nullable(trimPtr(p.Zona))
}

// UpdateVendedorParams holds a partial update. Nil fields are left untouched;
// an empty identificacion or zona clears it.
type UpdateVendedorParams struct {
	Nombre         *string       `json:"nombre" validate:"omitnil,notblank,max=150"`
	Apellidos      *string       `json:"apellidos" validate:"omitnil,notblank,max=150"`
	Correo         *string       `json:"correo" validate:"omitnil,required,email,max=254"`
	Celular        *string       `json:"celular" validate:"omitnil,required,phone,max=30"`
	Identificacion *string       `json:"identificacion" validate:"omitnil,max=30"`
	Zona           *string       `json:"zona" validate:"omitnil,max=80"`
	Estado         *model.Estado `json:"estado" validate:"omitnil,enum"`
}

func (p *UpdateVendedorParams) normalize() {
	p.Nombre = trimPtr(p.Nombre)
	p.Apellidos = trimPtr(p.Apellidos)
	p.Correo = lowerPtr(p.Correo)
	p.Celular = trimPtr(p.Celular)
	p.Identificacion = trimPtr(p.Identificacion)
	p.Zona = trimPtr(p.Zona)
}

type ListVendedoresParams struct {
	Zona   *string       `json:"zona"`
	Estado *model.Estado `json:"estado" validate:"omitnil,enum"`
	Page   *int          `json:"page"`
	Size   *int          `json:"size"`
}

type VendedorService interface {
	Create(ctx context.Context, params CreateVendedorParams, actor *string) (model.Vendedor, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateVendedorParams, actor *string) (model.Vendedor, error)
	Get(ctx context.Context, id uuid.UUID) (model.Vendedor, error)
	List(ctx context.Context, params ListVendedoresParams) (pagination.Page[model.Vendedor], error)
}

type vendedorService struct {
	db           db.DB
	validator    validator.Validator
	clock        Clock
	vendedorRepo repository.VendedorRepository
}

func NewVendedorService(
	db db.DB,
	validator validator.Validator,
	clock Clock,
	vendedorRepo repository.VendedorRepository,
) VendedorService {
	return &vendedorService{
		db:           db,
		validator:    validator,
		clock:        clock,
		vendedorRepo: vendedorRepo,
	}
}

func idOfVendedor(v model.Vendedor) uuid.UUID { return v.ID }

func (s *vendedorService) Create(ctx context.Context, params CreateVendedorParams, actor *string) (model.Vendedor, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Vendedor{}, err
	}

	id, err := newID()
	if err != nil {
		return model.Vendedor{}, err
	}

	vendedor := model.Vendedor{
		ID:             id,
		Nombre:         params.Nombre,
		Apellidos:      params.Apellidos,
		Correo:         params.Correo,
		Celular:        params.Celular,
		Identificacion: params.Identificacion,
		Zona:           params.Zona,
		Estado:         model.EstadoActivo,
		Audit:          model.NewAudit(actor, stamp(s.clock)),
	}
	if params.Estado != nil {
		vendedor.Estado = *params.Estado
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.vendedorRepo.WithDB(db)
		if err := ensureUnique(ctx, repo.FindByCorreo, vendedor.Correo, vendedor.ID, idOfVendedor, apperr.VendedorCorreoDuplicado); err != nil {
			return err
		}
		if err := repo.Insert(ctx, vendedor); err != nil {
			return mapWriteErr(err, apperr.VendedorNotFound, apperr.VendedorCorreoDuplicado)
		}
		return nil
	}); err != nil {
		return model.Vendedor{}, fmt.Errorf("db with tx: %w", err)
	}

	return vendedor, nil
}

func (s *vendedorService) Update(ctx context.Context, id uuid.UUID, params UpdateVendedorParams, actor *string) (model.Vendedor, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Vendedor{}, err
	}

	var vendedor model.Vendedor
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.vendedorRepo.WithDB(db)

		var err error
		vendedor, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err, apperr.VendedorNotFound)
		}

		if params.Correo != nil && *params.Correo != vendedor.Correo {
			if err := ensureUnique(ctx, repo.FindByCorreo, *params.Correo, vendedor.ID, idOfVendedor, apperr.VendedorCorreoDuplicado); err != nil {
				return err
			}
		}

		apply(&vendedor.Nombre, params.Nombre)
		apply(&vendedor.Apellidos, params.Apellidos)
		apply(&vendedor.Correo, params.Correo)
		apply(&vendedor.Celular, params.Celular)
		applyOptional(&vendedor.Identificacion, params.Identificacion)
		applyOptional(&vendedor.Zona, params.Zona)
		apply(&vendedor.Estado, params.Estado)
		vendedor.Touch(actor, nextStamp(s.clock, vendedor.FechaActualizacion))

		if err := repo.Update(ctx, vendedor); err != nil {
			return mapWriteErr(err, apperr.VendedorNotFound, apperr.VendedorCorreoDuplicado)
		}
		return nil
	}); err != nil {
		return model.Vendedor{}, fmt.Errorf("db with tx: %w", err)
	}

	return vendedor, nil
}

func (s *vendedorService) Get(ctx context.Context, id uuid.UUID) (model.Vendedor, error) {
	vendedor, err := s.vendedorRepo.FindByID(ctx, id)
	if err != nil {
		return model.Vendedor{}, fmt.Errorf("vendedor repository find by id: %w", mapFindErr(err, apperr.VendedorNotFound))
	}
	return vendedor, nil
}

func (s *vendedorService) List(ctx context.Context, params ListVendedoresParams) (pagination.Page[model.Vendedor], error) {
	if err := validate(s.validator, params); err != nil {
		return pagination.Page[model.Vendedor]{}, err
	}

	page := pagination.Normalize(params.Page, params.Size)
	items, total, err := s.vendedorRepo.ListPage(ctx, repository.ListVendedoresParams{
		Zona:   nullable(trimPtr(params.Zona)),
		Estado: params.Estado,
		Page:   page,
	})
	if err != nil {
		return pagination.Page[model.Vendedor]{}, fmt.Errorf("vendedor repository list page: %w", err)
	}

	return pagination.NewPage(items, page, total), nil
}
