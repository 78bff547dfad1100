package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
)

type ListProveedoresParams struct {
	Nombre              *string
	Pais                *string
	Estado              *model.Estado
	EstadoCertificacion *model.EstadoCertificacion
	Page                pagination.Params
}

type ProveedorRepository interface {
	WithDB(db db.DB) ProveedorRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.Proveedor, error)
	FindByNit(ctx context.Context, nit string) (model.Proveedor, error)
	ListPage(ctx context.Context, params ListProveedoresParams) ([]model.Proveedor, int, error)
	Insert(ctx context.Context, p model.Proveedor) error
	Update(ctx context.Context, p model.Proveedor) error

	ListCertificaciones(ctx context.Context, proveedorID uuid.UUID) ([]model.Certificacion, error)
	InsertCertificacion(ctx context.Context, c model.Certificacion) error
}

type proveedorRepository struct {
	db db.DB
}

func NewProveedorRepository(db db.DB) ProveedorRepository {
	return &proveedorRepository{db: db}
}

func (r proveedorRepository) WithDB(db db.DB) ProveedorRepository {
	return &proveedorRepository{db: db}
}

// proveedorSelect joins the certification count so the read model can derive
// estado_certificacion.
const proveedorSelect = `
	SELECT p.id, p.nombre, p.nit, p.pais, p.direccion, p.nombre_contacto, p.email, p.telefono, p.estado,
		p.creado_por, p.fecha_creacion, p.actualizado_por, p.fecha_actualizacion,
		COALESCE(c.total, 0) AS total_certificaciones
	FROM proveedores p
	LEFT JOIN (
		SELECT proveedor_id, COUNT(*) AS total
		FROM certificaciones_proveedor
		GROUP BY proveedor_id
	) c ON c.proveedor_id = p.id `

const proveedorCount = `
	SELECT COUNT(*)
	FROM proveedores p
	LEFT JOIN (
		SELECT proveedor_id, COUNT(*) AS total
		FROM certificaciones_proveedor
		GROUP BY proveedor_id
	) c ON c.proveedor_id = p.id `

type proveedorRow struct {
	ID                   uuid.UUID    `db:"id"`
	Nombre               string       `db:"nombre"`
	Nit                  string       `db:"nit"`
	Pais                 string       `db:"pais"`
	Direccion            string       `db:"direccion"`
	NombreContacto       string       `db:"nombre_contacto"`
	Email                string       `db:"email"`
	Telefono             string       `db:"telefono"`
	Estado               model.Estado `db:"estado"`
	TotalCertificaciones int          `db:"total_certificaciones"`
	auditRow
}

func (row proveedorRow) toModel() model.Proveedor {
	return model.Proveedor{
		ID:                   row.ID,
		Nombre:               row.Nombre,
		Nit:                  row.Nit,
		Pais:                 row.Pais,
		Direccion:            row.Direccion,
		NombreContacto:       row.NombreContacto,
		Email:                row.Email,
		Telefono:             row.Telefono,
		Estado:               row.Estado,
		EstadoCertificacion:  model.EstadoCertificacionFor(row.TotalCertificaciones),
		TotalCertificaciones: row.TotalCertificaciones,
		Audit:                row.auditRow.toModel(),
	}
}

func (r proveedorRepository) findOne(ctx context.Context, cond string, args pgx.NamedArgs) (model.Proveedor, error) {
	rows, err := r.db.Query(ctx, proveedorSelect+"WHERE "+cond, args)
	if err != nil {
		return model.Proveedor{}, fmt.Errorf("query proveedor: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[proveedorRow])
	if err != nil {
		return model.Proveedor{}, mapErr(err)
	}

	return row.toModel(), nil
}

func (r proveedorRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Proveedor, error) {
	return r.findOne(ctx, "p.id = @id", pgx.NamedArgs{"id": id})
}

func (r proveedorRepository) FindByNit(ctx context.Context, nit string) (model.Proveedor, error) {
	return r.findOne(ctx, "p.nit = @nit", pgx.NamedArgs{"nit": nit})
}

func (r proveedorRepository) ListPage(ctx context.Context, params ListProveedoresParams) ([]model.Proveedor, int, error) {
	f := newFilter()
	if params.Nombre != nil {
		add(f, "p.nombre ILIKE @nombre", "nombre", containsPattern(*params.Nombre))
	}
	add(f, "LOWER(p.pais) = LOWER(@pais)", "pais", params.Pais)
	add(f, "p.estado = @estado", "estado", params.Estado)
	if params.EstadoCertificacion != nil {
		switch *params.EstadoCertificacion {
		case model.EstadoCertificacionVigente:
			f.raw("COALESCE(c.total, 0) > 0")
		case model.EstadoCertificacionSinCertificaciones:
			f.raw("COALESCE(c.total, 0) = 0")
		}
	}

	var total int
	if err := r.db.QueryRow(ctx, proveedorCount+f.where(), f.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count proveedores: %w", err)
	}

	rows, err := r.db.Query(ctx,
		proveedorSelect+f.where()+" ORDER BY p.nombre ASC, p.id ASC LIMIT @limit OFFSET @offset",
		f.pageArgs(params.Page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list proveedores: %w", err)
	}

	proveedorRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[proveedorRow])
	if err != nil {
		return nil, 0, fmt.Errorf("collect proveedores: %w", err)
	}

	items := make([]model.Proveedor, 0, len(proveedorRows))
	for _, row := range proveedorRows {
		items = append(items, row.toModel())
	}

	return items, total, nil
}

func proveedorArgs(p model.Proveedor) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"id":              p.ID,
		"nombre":          p.Nombre,
		"nit":             p.Nit,
		"pais":            p.Pais,
		"direccion":       p.Direccion,
		"nombre_contacto": p.NombreContacto,
		"email":           p.Email,
		"telefono":        p.Telefono,
		"estado":          string(p.Estado),
	}
	setAuditArgs(args, p.Audit)
	return args
}

func (r proveedorRepository) Insert(ctx context.Context, p model.Proveedor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO proveedores (id, nombre, nit, pais, direccion, nombre_contacto, email, telefono, estado, `+auditColumns+`)
		VALUES (@id, @nombre, @nit, @pais, @direccion, @nombre_contacto, @email, @telefono, @estado,
			@creado_por, @fecha_creacion, @actualizado_por, @fecha_actualizacion)`,
		proveedorArgs(p),
	)
	if err != nil {
		return fmt.Errorf("insert proveedor: %w", mapErr(err))
	}
	return nil
}

func (r proveedorRepository) Update(ctx context.Context, p model.Proveedor) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE proveedores SET
			nombre              = @nombre,
			nit                 = @nit,
			pais                = @pais,
			direccion           = @direccion,
			nombre_contacto     = @nombre_contacto,
			email               = @email,
			telefono            = @telefono,
			estado              = @estado,
			actualizado_por     = @actualizado_por,
			fecha_actualizacion = @fecha_actualizacion
		WHERE id = @id`,
		proveedorArgs(p),
	)
	if err != nil {
		return fmt.Errorf("update proveedor: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r proveedorRepository) ListCertificaciones(ctx context.Context, proveedorID uuid.UUID) ([]model.Certificacion, error) {
	return certificacionesProveedor.listByOwner(ctx, r.db, proveedorID)
}

func (r proveedorRepository) InsertCertificacion(ctx context.Context, c model.Certificacion) error {
	return certificacionesProveedor.insert(ctx, r.db, c)
}
