package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type CreateProveedorParams struct {
	Nombre         string        `json:"nombre" validate:"notblank,max=120"`
	Nit            string        `json:"nit" validate:"required,nit"`
	Pais           string        `json:"pais" validate:"notblank,max=60"`
	Direccion      string        `json:"direccion" validate:"notblank,max=200"`
	NombreContacto string        `json:"nombre_contacto" validate:"notblank,max=120"`
	Email          string        `json:"email" validate:"required,email,max=254"`
	Telefono       string        `json:"telefono" validate:"required,phone,max=30"`
	Estado         *model.Estado `json:"estado" validate:"omitnil,enum"`
}

func (p *CreateProveedorParams) normalize() {
	p.Nombre = trim(p.Nombre)
	p.Nit = validator.NormalizeNit(p.Nit)
	p.Pais = trim(p.Pais)
	p.Direccion = trim(p.Direccion)
	p.NombreContacto = trim(p.NombreContacto)
	p.Email = *lowerPtr(&p.Email)
	p.Telefono = trim(p.Telefono)
}

type UpdateProveedorParams struct {
	Nombre         *string       `json:"nombre" validate:"omitnil,notblank,max=120"`
	Nit            *string       `json:"nit" validate:"omitnil,required,nit"`
	Pais           *string       `json:"pais" validate:"omitnil,notblank,max=60"`
	Direccion      *string       `json:"direccion" validate:"omitnil,notblank,max=200"`
	NombreContacto *string       `json:"nombre_contacto" validate:"omitnil,notblank,max=120"`
	Email          *string       `json:"email" validate:"omitnil,required,email,max=254"`
	Telefono       *string       `json:"telefono" validate:"omitnil,required,phone,max=30"`
	Estado         *model.Estado `json:"estado" validate:"omitnil,enum"`
}

func (p *UpdateProveedorParams) normalize() {
	p.Nombre = trimPtr(p.Nombre)
	if p.Nit != nil {
		nit := validator.NormalizeNit(*p.Nit)
		p.Nit = &nit
	}
	p.Pais = trimPtr(p.Pais)
	p.Direccion = trimPtr(p.Direccion)
	p.NombreContacto = trimPtr(p.NombreContacto)
	p.Email = lowerPtr(p.Email)
	p.Telefono = trimPtr(p.Telefono)
}

type ListProveedoresParams struct {
	Nombre              *string                    `json:"nombre"`
	Pais                *string                    `json:"pais"`
	Estado              *model.Estado              `json:"estado" validate:"omitnil,enum"`
	EstadoCertificacion *model.EstadoCertificacion `json:"estado_certificacion" validate:"omitnil,enum"`
	Page                *int                       `json:"page"`
	Size                *int                       `json:"size"`
}

type CambiarEstadoProveedorParams struct {
	Estado model.Estado `json:"estado" validate:"required,enum"`
}

type UploadProveedorCertificacionParams struct {
	Autoridad        model.Autoridad `json:"autoridad" validate:"required,enum"`
	FechaVencimiento *model.Date     `json:"fecha_vencimiento"`
	Archivo          upload.File     `json:"archivo"`
}

type ProveedorService interface {
	Create(ctx context.Context, params CreateProveedorParams, actor *string) (model.Proveedor, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateProveedorParams, actor *string) (model.Proveedor, error)
	CambiarEstado(ctx context.Context, id uuid.UUID, params CambiarEstadoProveedorParams, actor *string) (model.Proveedor, error)
	// Get returns the proveedor with its certifications.
	Get(ctx context.Context, id uuid.UUID) (model.Proveedor, error)
	List(ctx context.Context, params ListProveedoresParams) (pagination.Page[model.Proveedor], error)
	UploadCertificacion(ctx context.Context, id uuid.UUID, params UploadProveedorCertificacionParams, actor *string) (model.Certificacion, error)
}

type proveedorService struct {
	db            db.DB
	logger        *slog.Logger
	validator     validator.Validator
	clock         Clock
	blobStore     blob.Store
	proveedorRepo repository.ProveedorRepository
}

func NewProveedorService(
	db db.DB,
	logger *slog.Logger,
	validator validator.Validator,
	clock Clock,
	blobStore blob.Store,
	proveedorRepo repository.ProveedorRepository,
) ProveedorService {
	return &proveedorService{
		db:            db,
		logger:        logger.With(slog.String("service", "proveedor")),
		validator:     validator,
		clock:         clock,
		blobStore:     blobStore,
		proveedorRepo: proveedorRepo,
	}
}

func idOfProveedor(p model.Proveedor) uuid.UUID { return p.ID }

func (s *proveedorService) Create(ctx context.Context, params CreateProveedorParams, actor *string) (model.Proveedor, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Proveedor{}, err
	}

	id, err := newID()
	if err != nil {
		return model.Proveedor{}, err
	}

	proveedor := model.Proveedor{
		ID:                  id,
		Nombre:              params.Nombre,
		Nit:                 params.Nit,
		Pais:                params.Pais,
		Direccion:           params.Direccion,
		NombreContacto:      params.NombreContacto,
		Email:               params.Email,
		Telefono:            params.Telefono,
		Estado:              model.EstadoActivo,
		EstadoCertificacion: model.EstadoCertificacionFor(0),
		Audit:               model.NewAudit(actor, stamp(s.clock)),
	}
	apply(&proveedor.Estado, params.Estado)

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.proveedorRepo.WithDB(db)
		if err := ensureUnique(ctx, repo.FindByNit, proveedor.Nit, proveedor.ID, idOfProveedor, apperr.ProveedorNitDuplicado); err != nil {
			return err
		}
		if err := repo.Insert(ctx, proveedor); err != nil {
			return mapWriteErr(err, apperr.ProveedorNotFound, apperr.ProveedorNitDuplicado)
		}
		return nil
	}); err != nil {
		return model.Proveedor{}, fmt.Errorf("db with tx: %w", err)
	}

	return proveedor, nil
}

func (s *proveedorService) Update(ctx context.Context, id uuid.UUID, params UpdateProveedorParams, actor *string) (model.Proveedor, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Proveedor{}, err
	}

	return s.update(ctx, id, actor, func(repo repository.ProveedorRepository, p *model.Proveedor) error {
		if params.Nit != nil && *params.Nit != p.Nit {
			if err := ensureUnique(ctx, repo.FindByNit, *params.Nit, p.ID, idOfProveedor, apperr.ProveedorNitDuplicado); err != nil {
				return err
			}
		}

		apply(&p.Nombre, params.Nombre)
		apply(&p.Nit, params.Nit)
		apply(&p.Pais, params.Pais)
		apply(&p.Direccion, params.Direccion)
		apply(&p.NombreContacto, params.NombreContacto)
		apply(&p.Email, params.Email)
		apply(&p.Telefono, params.Telefono)
		apply(&p.Estado, params.Estado)
		return nil
	})
}

func (s *proveedorService) CambiarEstado(ctx context.Context, id uuid.UUID, params CambiarEstadoProveedorParams, actor *string) (model.Proveedor, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Proveedor{}, err
	}

	return s.update(ctx, id, actor, func(_ repository.ProveedorRepository, p *model.Proveedor) error {
		p.Estado = params.Estado
		return nil
	})
}

// update loads the proveedor, lets mutate change it and persists the result
// with a fresh update stamp, all in one transaction.
func (s *proveedorService) update(
	ctx context.Context,
	id uuid.UUID,
	actor *string,
	mutate func(repo repository.ProveedorRepository, p *model.Proveedor) error,
) (model.Proveedor, error) {
	var proveedor model.Proveedor
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.proveedorRepo.WithDB(db)

		var err error
		proveedor, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err, apperr.ProveedorNotFound)
		}

		if err := mutate(repo, &proveedor); err != nil {
			return err
		}
		proveedor.Touch(actor, nextStamp(s.clock, proveedor.FechaActualizacion))

		if err := repo.Update(ctx, proveedor); err != nil {
			return mapWriteErr(err, apperr.ProveedorNotFound, apperr.ProveedorNitDuplicado)
		}
		return nil
	}); err != nil {
		return model.Proveedor{}, fmt.Errorf("db with tx: %w", err)
	}

	return proveedor, nil
}

func (s *proveedorService) Get(ctx context.Context, id uuid.UUID) (model.Proveedor, error) {
	proveedor, err := s.proveedorRepo.FindByID(ctx, id)
	if err != nil {
		return model.Proveedor{}, fmt.Errorf("proveedor repository find by id: %w", mapFindErr(err, apperr.ProveedorNotFound))
	}

	certs, err := s.proveedorRepo.ListCertificaciones(ctx, id)
	if err != nil {
		return model.Proveedor{}, fmt.Errorf("proveedor repository list certificaciones: %w", err)
	}
	proveedor.Certificaciones = certs

	return proveedor, nil
}

func (s *proveedorService) List(ctx context.Context, params ListProveedoresParams) (pagination.Page[model.Proveedor], error) {
	if err := validate(s.validator, params); err != nil {
		return pagination.Page[model.Proveedor]{}, err
	}

	page := pagination.Normalize(params.Page, params.Size)
	items, total, err := s.proveedorRepo.ListPage(ctx, repository.ListProveedoresParams{
		Nombre:              nullable(trimPtr(params.Nombre)),
		Pais:                nullable(trimPtr(params.Pais)),
		Estado:              params.Estado,
		EstadoCertificacion: params.EstadoCertificacion,
		Page:                page,
	})
	if err != nil {
		return pagination.Page[model.Proveedor]{}, fmt.Errorf("proveedor repository list page: %w", err)
	}

	return pagination.NewPage(items, page, total), nil
}

func (s *proveedorService) UploadCertificacion(ctx context.Context, id uuid.UUID, params UploadProveedorCertificacionParams, actor *string) (model.Certificacion, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Certificacion{}, err
	}

	if _, err := s.proveedorRepo.FindByID(ctx, id); err != nil {
		return model.Certificacion{}, fmt.Errorf("proveedor repository find by id: %w", mapFindErr(err, apperr.ProveedorNotFound))
	}

	certID, err := newID()
	if err != nil {
		return model.Certificacion{}, err
	}

	cert := model.Certificacion{
		ID:               certID,
		PropietarioID:    id,
		Autoridad:        params.Autoridad,
		NombreArchivo:    params.Archivo.Name,
		ClaveArchivo:     fmt.Sprintf("proveedores/%s/certificaciones/%s%s", id, certID, params.Archivo.Ext),
		ContentType:      params.Archivo.ContentType,
		TamanoBytes:      params.Archivo.Size(),
		FechaVencimiento: params.FechaVencimiento,
		FechaSubida:      stamp(s.clock),
		SubidoPor:        actor,
	}

	if err := storeCertificacion(ctx, s.blobStore, s.logger, cert, params.Archivo, func() error {
		if err := s.proveedorRepo.InsertCertificacion(ctx, cert); err != nil {
			return fmt.Errorf("proveedor repository insert certificacion: %w", mapFindErr(err, apperr.ProveedorNotFound))
		}
		return nil
	}); err != nil {
		return model.Certificacion{}, err
	}

	return cert, nil
}
