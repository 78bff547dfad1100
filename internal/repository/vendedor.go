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

type ListVendedoresParams struct {
	Zona   *string
	Estado *model.Estado
	Page   pagination.Params
}

type VendedorRepository interface {
	WithDB(db db.DB) VendedorRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.Vendedor, error)
	FindByCorreo(ctx context.Context, correo string) (model.Vendedor, error)
	ListPage(ctx context.Context, params ListVendedoresParams) ([]model.Vendedor, int, error)
	Insert(ctx context.Context, v model.Vendedor) error
	Update(ctx context.Context, v model.Vendedor) error
}

type vendedorRepository struct {
	db db.DB
}

func NewVendedorRepository(db db.DB) VendedorRepository {
	return &vendedorRepository{db: db}
}

func (r vendedorRepository) WithDB(db db.DB) VendedorRepository {
	return &vendedorRepository{db: db}
}

const vendedorColumns = "id, nombre, apellidos, correo, celular, identificacion, zona, estado, " + auditColumns

type vendedorRow struct {
	ID             uuid.UUID    `db:"id"`
	Nombre         string       `db:"nombre"`
	Apellidos      string       `db:"apellidos"`
	Correo         string       `db:"correo"`
	Celular        string       `db:"celular"`
	Identificacion *string      `db:"identificacion"`
	Zona           *string      `db:"zona"`
	Estado         model.Estado `db:"estado"`
	auditRow
}

func (row vendedorRow) toModel() model.Vendedor {
	return model.Vendedor{
		ID:             row.ID,
		Nombre:         row.Nombre,
		Apellidos:      row.Apellidos,
		Correo:         row.Correo,
		Celular:        row.Celular,
		Identificacion: row.Identificacion,
		Zona:           row.Zona,
		Estado:         row.Estado,
		Audit:          row.auditRow.toModel(),
	}
}

func (r vendedorRepository) findOne(ctx context.Context, cond string, args pgx.NamedArgs) (model.Vendedor, error) {
	rows, err := r.db.Query(ctx, "SELECT "+vendedorColumns+" FROM vendedores WHERE "+cond, args)
	if err != nil {
		return model.Vendedor{}, fmt.Errorf("query vendedor: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[vendedorRow])
	if err != nil {
		return model.Vendedor{}, mapErr(err)
	}

	return row.toModel(), nil
}

func (r vendedorRepository) FindByID(ctx context.Context, id uuid.UUID) (model.Vendedor, error) {
	return r.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
}

func (r vendedorRepository) FindByCorreo(ctx context.Context, correo string) (model.Vendedor, error) {
	return r.findOne(ctx, "correo = @correo", pgx.NamedArgs{"correo": correo})
}

func (r vendedorRepository) ListPage(ctx context.Context, params ListVendedoresParams) ([]model.Vendedor, int, error) {
	f := newFilter()
	add(f, "zona = @zona", "zona", params.Zona)
	add(f, "estado = @estado", "estado", params.Estado)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM vendedores "+f.where(), f.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count vendedores: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+vendedorColumns+`
		FROM vendedores `+f.where()+`
		ORDER BY fecha_creacion ASC, id ASC
		LIMIT @limit OFFSET @offset`,
		f.pageArgs(params.Page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list vendedores: %w", err)
	}

	vendedorRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[vendedorRow])
	if err != nil {
		return nil, 0, fmt.Errorf("collect vendedores: %w", err)
	}

	items := make([]model.Vendedor, 0, len(vendedorRows))
	for _, row := range vendedorRows {
		items = append(items, row.toModel())
	}

	return items, total, nil
}

func vendedorArgs(v model.Vendedor) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"id":             v.ID,
		"nombre":         v.Nombre,
		"apellidos":      v.Apellidos,
		"correo":         v.Correo,
		"celular":        v.Celular,
		"identificacion": v.Identificacion,
		"zona":           v.Zona,
		"estado":         string(v.Estado),
	}
	setAuditArgs(args, v.Audit)
	return args
}

func (r vendedorRepository) Insert(ctx context.Context, v model.Vendedor) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO vendedores (`+vendedorColumns+`)
		VALUES (@id, @nombre, @apellidos, @correo, @celular, @identificacion, @zona, @estado,
			@creado_por, @fecha_creacion, @actualizado_por, @fecha_actualizacion)`,
		vendedorArgs(v),
	)
	if err != nil {
		return fmt.Errorf("insert vendedor: %w", mapErr(err))
	}
	return nil
}

func (r vendedorRepository) Update(ctx context.Context, v model.Vendedor) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE vendedores SET
			nombre              = @nombre,
			apellidos           = @apellidos,
			correo              = @correo,
			celular             = @celular,
			identificacion      = @identificacion,
			zona                = @zona,
			estado              = @estado,
			actualizado_por     = @actualizado_por,
			fecha_actualizacion = @fecha_actualizacion
		WHERE id = @id`,
		vendedorArgs(v),
	)
	if err != nil {
		return fmt.Errorf("update vendedor: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
