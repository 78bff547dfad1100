package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
)

type ListProductosParams struct {
	Nombre      *string
	Categoria   *model.Categoria
	Estado      *model.Estado
	ProveedorID *uuid.UUID
	Page        pagination.Params
}

type ProductoRepository interface {
	WithDB(db db.DB) ProductoRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.Producto, error)
	FindBySKU(ctx context.Context, sku string) (model.Producto, error)
	ListPage(ctx context.Context, params ListProductosParams) ([]model.Producto, int, error)
	Insert(ctx context.Context, p model.Producto) error
	Update(ctx context.Context, p model.Producto) error

	// FindCertificacion returns the single certification of a producto.
	FindCertificacion(ctx context.Context, productoID uuid.UUID) (model.Certificacion, error)
	InsertCertificacion(ctx context.Context, c model.Certificacion) error
}

type productoRepository struct {
	db db.DB
}

func NewProductoRepository(db db.DB) ProductoRepository {
	return &productoRepository{db: db}
}

func (r productoRepository) WithDB(db db.DB) ProductoRepository {
	return &productoRepository{db: db}
}

const productoColumns = "id, nombre, codigo_sku, categoria, precio_unitario::text AS precio_unitario, " +
	"condiciones_almacenamiento, fecha_vencimiento, proveedor_id, estado, " + auditColumns

type productoRow struct {
	ID                        uuid.UUID       `db:"id"`
	Nombre                    string          `db:"nombre"`
	CodigoSKU                 string          `db:"codigo_sku"`
	Categoria                 model.Categoria `db:"categoria"`
	PrecioUnitario            string          `db:"precio_unitario"`
	CondicionesAlmacenamiento string          `db:"condiciones_almacenamiento"`
	FechaVencimiento          time.Time       `db:"fecha_vencimiento"`
	ProveedorID               uuid.UUID       `db:"proveedor_id"`
	Estado                    model.Estado    `db:"estado"`
	auditRow
}

func (row productoRow) toModel() (model.Producto, error) {
	precio, err := decimal.NewFromString(row.PrecioUnitario)
	if err != nil {
		return model.Producto{}, fmt.Errorf("parse precio_unitario: %w", err)
	}

	return model.Producto{
		ID:                        row.ID,
		Nombre:                    row.Nombre,
		CodigoSKU:                 row.CodigoSKU,
		Categoria:                 row.Categoria,
		PrecioUnitario:            precio,
		CondicionesAlmacenamiento: row.CondicionesAlmacenamiento,
		FechaVencimiento:          model.DayMonthYear{Time: row.FechaVencimiento},
		ProveedorID:               row.ProveedorID,
		Estado:                    row.Estado,
		Audit:                     row.auditRow.toModel(),
	}, nil
}

func (r productoRepository) findOne(ctx context.Context, cond string, args pgx.NamedArgs) (model.Producto, error) {
	rows, err := r.db.Query(ctx, "SELECT "+productoColumns+" FROM productos WHERE "+cond, args)
	if err != nil {
		return model.Producto{}, fmt.Errorf("query producto: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[productoRow])
	if err != nil {
		return model.Producto{}, mapErr(err)
	}

	return row.toModel()
}

func (r productoRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Producto, error) {
	return r.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
}

func (r productoRepository) FindBySKU(ctx context.Context, sku string) (model.Producto, error) {
	return r.findOne(ctx, "codigo_sku = @codigo_sku", pgx.NamedArgs{"codigo_sku": sku})
}

func (r productoRepository) ListPage(ctx context.Context, params ListProductosParams) ([]model.Producto, int, error) {
	f := newFilter()
	if params.Nombre != nil {
		add(f, "nombre ILIKE @nombre", "nombre", containsPattern(*params.Nombre))
	}
	add(f, "categoria = @categoria", "categoria", params.Categoria)
	add(f, "estado = @estado", "estado", params.Estado)
	add(f, "proveedor_id = @proveedor_id", "proveedor_id", params.ProveedorID)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM productos "+f.where(), f.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count productos: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+productoColumns+`
		FROM productos `+f.where()+`
		ORDER BY fecha_creacion ASC, id ASC
		LIMIT @limit OFFSET @offset`,
		f.pageArgs(params.Page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list productos: %w", err)
	}

	productoRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[productoRow])
	if err != nil {
		return nil, 0, fmt.Errorf("collect productos: %w", err)
	}

	items := make([]model.Producto, 0, len(productoRows))
	for _, row := range productoRows {
		p, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}

	return items, total, nil
}

func productoArgs(p model.Producto) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"id":                         p.ID,
		"nombre":                     p.Nombre,
		"codigo_sku":                 p.CodigoSKU,
		"categoria":                  string(p.Categoria),
		"precio_unitario":            p.PrecioUnitario.StringFixed(2),
		"condiciones_almacenamiento": p.CondicionesAlmacenamiento,
		"fecha_vencimiento":          p.FechaVencimiento.Time,
		"proveedor_id":               p.ProveedorID,
		"estado":                     string(p.Estado),
	}
	setAuditArgs(args, p.Audit)
	return args
}

func (r productoRepository) Insert(ctx context.Context, p model.Producto) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO productos (id, nombre, codigo_sku, categoria, precio_unitario, condiciones_almacenamiento,
			fecha_vencimiento, proveedor_id, estado, `+auditColumns+`)
		VALUES (@id, @nombre, @codigo_sku, @categoria, @precio_unitario::numeric, @condiciones_almacenamiento,
			@fecha_vencimiento, @proveedor_id, @estado,
			@creado_por, @fecha_creacion, @actualizado_por, @fecha_actualizacion)`,
		productoArgs(p),
	)
	if err != nil {
		return fmt.Errorf("insert producto: %w", mapErr(err))
	}
	return nil
}

func (r productoRepository) Update(ctx context.Context, p model.Producto) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE productos SET
			nombre                     = @nombre,
			codigo_sku                 = @codigo_sku,
			categoria                  = @categoria,
			precio_unitario            = @precio_unitario::numeric,
			condiciones_almacenamiento = @condiciones_almacenamiento,
			fecha_vencimiento          = @fecha_vencimiento,
			proveedor_id               = @proveedor_id,
			estado                     = @estado,
			actualizado_por            = @actualizado_por,
			fecha_actualizacion        = @fecha_actualizacion
		WHERE id = @id`,
		productoArgs(p),
	)
	if err != nil {
		return fmt.Errorf("update producto: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r productoRepository) FindCertificacion(ctx context.Context, productoID uuid.UUID) (model.Certificacion, error) {
	certs, err := certificacionesProducto.listByOwner(ctx, r.db, productoID)
	if err != nil {
		return model.Certificacion{}, err
	}
	if len(certs) == 0 {
		return model.Certificacion{}, ErrNotFound
	}
	return certs[0], nil
}

func (r productoRepository) InsertCertificacion(ctx context.Context, c model.Certificacion) error {
	return certificacionesProducto.insert(ctx, r.db, c)
}
