package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type CreateProductoParams struct {
	Nombre                    string             `json:"nombre" validate:"notblank,max=200"`
	CodigoSKU                 string             `json:"codigo_sku" validate:"required,sku"`
	Categoria                 model.Categoria    `json:"categoria" validate:"required,enum"`
	PrecioUnitario            decimal.Decimal    `json:"precio_unitario" validate:"required,gt=0,lte=9999999999.99"`
	CondicionesAlmacenamiento string             `json:"condiciones_almacenamiento" validate:"notblank,max=500"`
	FechaVencimiento          model.DayMonthYear `json:"fecha_vencimiento" validate:"required"`
	ProveedorID               uuid.UUID          `json:"proveedor_id" validate:"required"`
	Estado                    *model.Estado      `json:"estado" validate:"omitnil,enum"`
}

func (p *CreateProductoParams) normalize() {
	p.Nombre = trim(p.Nombre)
	p.CodigoSKU = trim(p.CodigoSKU)
	p.Categoria = model.Categoria(trim(string(p.Categoria)))
	p.CondicionesAlmacenamiento = trim(p.CondicionesAlmacenamiento)
	// Rounded before validation so the bounds apply to the stored NUMERIC(12,2).
	p.PrecioUnitario = p.PrecioUnitario.Round(2)
}

type UpdateProductoParams struct {
	Nombre                    *string             `json:"nombre" validate:"omitnil,notblank,max=200"`
	CodigoSKU                 *string             `json:"codigo_sku" validate:"omitnil,sku"`
	Categoria                 *model.Categoria    `json:"categoria" validate:"omitnil,enum"`
	PrecioUnitario            *decimal.Decimal    `json:"precio_unitario" validate:"omitnil,gt=0,lte=9999999999.99"`
	CondicionesAlmacenamiento *string             `json:"condiciones_almacenamiento" validate:"omitnil,notblank,max=500"`
	FechaVencimiento          *model.DayMonthYear `json:"fecha_vencimiento"`
	ProveedorID               *uuid.UUID          `json:"proveedor_id" validate:"omitnil,required"`
	Estado                    *model.Estado       `json:"estado" validate:"omitnil,enum"`
}

func (p *UpdateProductoParams) normalize() {
	p.Nombre = trimPtr(p.Nombre)
	p.CodigoSKU = trimPtr(p.CodigoSKU)
	p.CondicionesAlmacenamiento = trimPtr(p.CondicionesAlmacenamiento)
	if p.PrecioUnitario != nil {
		precio := p.PrecioUnitario.Round(2)
		p.PrecioUnitario = &precio
	}
}

type ListProductosParams struct {
	Nombre      *string          `json:"nombre"`
	Categoria   *model.Categoria `json:"categoria" validate:"omitnil,enum"`
	Estado      *model.Estado    `json:"estado" validate:"omitnil,enum"`
	ProveedorID *uuid.UUID       `json:"proveedor_id"`
	Page        *int             `json:"page"`
	Size        *int             `json:"size"`
}

type UploadProductoCertificacionParams struct {
	Autoridad        model.Autoridad `json:"autoridad" validate:"required,enum"`
	FechaVencimiento *model.Date     `json:"fecha_vencimiento" validate:"required"`
	Archivo          upload.File     `json:"archivo"`
}

type ProductoService interface {
	Create(ctx context.Context, params CreateProductoParams, actor *string) (model.Producto, error)
	Update(ctx context.Context, id uuid.UUID, params UpdateProductoParams, actor *string) (model.Producto, error)
	// Get returns the producto together with its certification, if any.
	Get(ctx context.Context, id uuid.UUID) (model.Producto, error)
	List(ctx context.Context, params ListProductosParams) (pagination.Page[model.Producto], error)
	UploadCertificacion(ctx context.Context, id uuid.UUID, params UploadProductoCertificacionParams, actor *string) (model.Certificacion, error)
}

type productoService struct {
	db           db.DB
	logger       *slog.Logger
	validator    validator.Validator
	clock        Clock
	blobStore    blob.Store
	productoRepo repository.ProductoRepository
}

func NewProductoService(
	db db.DB,
	logger *slog.Logger,
	validator validator.Validator,
	clock Clock,
	blobStore blob.Store,
	productoRepo repository.ProductoRepository,
) ProductoService {
	return &productoService{
		db:           db,
		logger:       logger.With(slog.String("service", "producto")),
		validator:    validator,
		clock:        clock,
		blobStore:    blobStore,
		productoRepo: productoRepo,
	}
}

func idOfProducto(p model.Producto) uuid.UUID { return p.ID }

func (s *productoService) Create(ctx context.Context, params CreateProductoParams, actor *string) (model.Producto, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Producto{}, err
	}

	id, err := newID()
	if err != nil {
		return model.Producto{}, err
	}

	producto := model.Producto{
		ID:                        id,
		Nombre:                    params.Nombre,
		CodigoSKU:                 params.CodigoSKU,
		Categoria:                 params.Categoria,
		PrecioUnitario:            params.PrecioUnitario,
		CondicionesAlmacenamiento: params.CondicionesAlmacenamiento,
		FechaVencimiento:          params.FechaVencimiento,
		ProveedorID:               params.ProveedorID,
		Estado:                    model.EstadoActivo,
		Audit:                     model.NewAudit(actor, stamp(s.clock)),
	}
	apply(&producto.Estado, params.Estado)

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productoRepo.WithDB(db)
		if err := ensureUnique(ctx, repo.FindBySKU, producto.CodigoSKU, producto.ID, idOfProducto, apperr.ProductoSkuDuplicado); err != nil {
			return err
		}
		if err := repo.Insert(ctx, producto); err != nil {
			return mapWriteErr(err, apperr.ProductoNotFound, apperr.ProductoSkuDuplicado)
		}
		return nil
	}); err != nil {
		return model.Producto{}, fmt.Errorf("db with tx: %w", err)
	}

	return producto, nil
}

func (s *productoService) Update(ctx context.Context, id uuid.UUID, params UpdateProductoParams, actor *string) (model.Producto, error) {
	params.normalize()
	if err := validate(s.validator, params); err != nil {
		return model.Producto{}, err
	}

	var producto model.Producto
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.productoRepo.WithDB(db)

		var err error
		producto, err = repo.FindByID(ctx, id)
		if err != nil {
			return mapFindErr(err, apperr.ProductoNotFound)
		}

		if params.CodigoSKU != nil && *params.CodigoSKU != producto.CodigoSKU {
			if err := ensureUnique(ctx, repo.FindBySKU, *params.CodigoSKU, producto.ID, idOfProducto, apperr.ProductoSkuDuplicado); err != nil {
				return err
			}
		}

		apply(&producto.Nombre, params.Nombre)
		apply(&producto.CodigoSKU, params.CodigoSKU)
		apply(&producto.Categoria, params.Categoria)
		if params.PrecioUnitario != nil {
			producto.PrecioUnitario = *params.PrecioUnitario
		}
		apply(&producto.CondicionesAlmacenamiento, params.CondicionesAlmacenamiento)
		apply(&producto.FechaVencimiento, params.FechaVencimiento)
		apply(&producto.ProveedorID, params.ProveedorID)
		apply(&producto.Estado, params.Estado)
		producto.Touch(actor, nextStamp(s.clock, producto.FechaActualizacion))

		if err := repo.Update(ctx, producto); err != nil {
			return mapWriteErr(err, apperr.ProductoNotFound, apperr.ProductoSkuDuplicado)
		}
		return nil
	}); err != nil {
		return model.Producto{}, fmt.Errorf("db with tx: %w", err)
	}

	return producto, nil
}

func (s *productoService) Get(ctx context.Context, id uuid.UUID) (model.Producto, error) {
	producto, err := s.productoRepo.FindByID(ctx, id)
	if err != nil {
		return model.Producto{}, fmt.Errorf("producto repository find by id: %w", mapFindErr(err, apperr.ProductoNotFound))
	}

	cert, err := s.productoRepo.FindCertificacion(ctx, id)
	switch {
	case err == nil:
		producto.Certificacion = &cert
	case !errors.Is(err, repository.ErrNotFound):
		return model.Producto{}, fmt.Errorf("producto repository find certificacion: %w", err)
	}

	return producto, nil
}

func (s *productoService) List(ctx context.Context, params ListProductosParams) (pagination.Page[model.Producto], error) {
	if err := validate(s.validator, params); err != nil {
		return pagination.Page[model.Producto]{}, err
	}

	page := pagination.Normalize(params.Page, params.Size)
	items, total, err := s.productoRepo.ListPage(ctx, repository.ListProductosParams{
		Nombre:      nullable(trimPtr(params.Nombre)),
		Categoria:   params.Categoria,
		Estado:      params.Estado,
		ProveedorID: params.ProveedorID,
		Page:        page,
	})
	if err != nil {
		return pagination.Page[model.Producto]{}, fmt.Errorf("producto repository list page: %w", err)
	}

	return pagination.NewPage(items, page, total), nil
}

func (s *productoService) UploadCertificacion(ctx context.Context, id uuid.UUID, params UploadProductoCertificacionParams, actor *string) (model.Certificacion, error) {
	if err := validate(s.validator, params); err != nil {
		return model.Certificacion{}, err
	}

	if _, err := s.productoRepo.FindByID(ctx, id); err != nil {
		return model.Certificacion{}, fmt.Errorf("producto repository find by id: %w", mapFindErr(err, apperr.ProductoNotFound))
	}
	if _, err := s.productoRepo.FindCertificacion(ctx, id); err == nil {
		return model.Certificacion{}, apperr.ProductoCertificacionDuplicada
	} else if !errors.Is(err, repository.ErrNotFound) {
		return model.Certificacion{}, fmt.Errorf("producto repository find certificacion: %w", err)
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
		ClaveArchivo:     fmt.Sprintf("productos/%s/certificacion/%s%s", id, certID, params.Archivo.Ext),
		ContentType:      params.Archivo.ContentType,
		TamanoBytes:      params.Archivo.Size(),
		FechaVencimiento: params.FechaVencimiento,
		FechaSubida:      stamp(s.clock),
		SubidoPor:        actor,
	}

	if err := storeCertificacion(ctx, s.blobStore, s.logger, cert, params.Archivo, func() error {
		if err := s.productoRepo.InsertCertificacion(ctx, cert); err != nil {
			return mapWriteErr(err, apperr.ProductoNotFound, apperr.ProductoCertificacionDuplicada)
		}
		return nil
	}); err != nil {
		return model.Certificacion{}, err
	}

	return cert, nil
}

// storeCertificacion uploads the file and then runs persist. The file is
// removed again when persist fails.
func storeCertificacion(
	ctx context.Context,
	store blob.Store,
	logger *slog.Logger,
	cert model.Certificacion,
	file upload.File,
	persist func() error,
) error {
	if err := store.Put(ctx, cert.ClaveArchivo, file.Reader(), file.Size(), file.ContentType); err != nil {
		return fmt.Errorf("blob store put: %w", err)
	}

	if err := persist(); err != nil {
		if delErr := store.Delete(ctx, cert.ClaveArchivo); delErr != nil {
			logger.WarnContext(ctx, "error removing orphan certificacion file",
				slog.String("clave_archivo", cert.ClaveArchivo),
				slog.Any("error", delErr))
		}
		return err
	}

	return nil
}
