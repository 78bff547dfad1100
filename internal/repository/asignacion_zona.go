package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
)

type ListAsignacionesParams struct {
	VendedorID *uuid.UUID
	Zona       *string
	Activa     *bool
	Page       pagination.Params
}

type AsignacionZonaRepository interface {
	WithDB(db db.DB) AsignacionZonaRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.AsignacionZona, error)
	ListPage(ctx context.Context, params ListAsignacionesParams) ([]model.AsignacionZona, int, error)
	Insert(ctx context.Context, a model.AsignacionZona) error
	Update(ctx context.Context, a model.AsignacionZona) error
}

type asignacionZonaRepository struct {
	db db.DB
}

func NewAsignacionZonaRepository(db db.DB) AsignacionZonaRepository {
	return &asignacionZonaRepository{db: db}
}

func (r asignacionZonaRepository) WithDB(db db.DB) AsignacionZonaRepository {
	return &asignacionZonaRepository{db: db}
}

const asignacionColumns = "id, vendedor_id, zona, vigente_desde, vigente_hasta, activa, " + auditColumns

type asignacionRow struct {
	ID           uuid.UUID  `db:"id"`
	VendedorID   uuid.UUID  `db:"vendedor_id"`
	Zona         string     `db:"zona"`
	VigenteDesde time.Time  `db:"vigente_desde"`
	VigenteHasta *time.Time `db:"vigente_hasta"`
	Activa       bool       `db:"activa"`
	auditRow
}

func (row asignacionRow) toModel() model.AsignacionZona {
	a := model.AsignacionZona{
		ID:           row.ID,
		VendedorID:   row.VendedorID,
		Zona:         row.Zona,
		VigenteDesde: model.NewDate(row.VigenteDesde),
		Activa:       row.Activa,
		Audit:        row.auditRow.toModel(),
	}
	if row.VigenteHasta != nil {
		hasta := model.NewDate(*row.VigenteHasta)
		a.VigenteHasta = &hasta
	}
	return a
}

func (r asignacionZonaRepository) FindByID(ctx context.Context, id uuid.UUID) (model.AsignacionZona, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+asignacionColumns+" FROM asignaciones_zona WHERE id = @id",
		pgx.NamedArgs{"id": id},
	)
	if err != nil {
		return model.AsignacionZona{}, fmt.Errorf("query asignacion: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[asignacionRow])
	if err != nil {
		return model.AsignacionZona{}, mapErr(err)
	}

	return row.toModel(), nil
}

func (r asignacionZonaRepository) ListPage(ctx context.Context, params ListAsignacionesParams) ([]model.AsignacionZona, int, error) {
	f := newFilter()
	add(f, "vendedor_id = @vendedor_id", "vendedor_id", params.VendedorID)
	add(f, "zona = @zona", "zona", params.Zona)
	add(f, "activa = @activa", "activa", params.Activa)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM asignaciones_zona "+f.where(), f.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count asignaciones: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+asignacionColumns+`
		FROM asignaciones_zona `+f.where()+`
		ORDER BY fecha_creacion ASC, id ASC
		LIMIT @limit OFFSET @offset`,
		f.pageArgs(params.Page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list asignaciones: %w", err)
	}

	asignacionRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[asignacionRow])
	if err != nil {
		return nil, 0, fmt.Errorf("collect asignaciones: %w", err)
	}

	items := make([]model.AsignacionZona, 0, len(asignacionRows))
	for _, row := range asignacionRows {
		items = append(items, row.toModel())
	}

	return items, total, nil
}

func asignacionArgs(a model.AsignacionZona) pgx.NamedArgs {
	var hasta *time.Time
	if a.VigenteHasta != nil {
		hasta = &a.VigenteHasta.Time
	}

	args := pgx.NamedArgs{
		"id":            a.ID,
		"vendedor_id":   a.VendedorID,
		"zona":          a.Zona,
		"vigente_desde": a.VigenteDesde.Time,
		"vigente_hasta": hasta,
		"activa":        a.Activa,
	}
	setAuditArgs(args, a.Audit)
	return args
}

func (r asignacionZonaRepository) Insert(ctx context.Context, a model.AsignacionZona) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO asignaciones_zona (`+asignacionColumns+`)
		VALUES (@id, @vendedor_id, @zona, @vigente_desde, @vigente_hasta, @activa,
			@creado_por, @fecha_creacion, @actualizado_por, @fecha_actualizacion)`,
		asignacionArgs(a),
	)
	if err != nil {
		return fmt.Errorf("insert asignacion: %w", mapErr(err))
	}
	return nil
}

func (r asignacionZonaRepository) Update(ctx context.Context, a model.AsignacionZona) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE asignaciones_zona SET
			zona                = @zona,
			vigente_desde       = @vigente_desde,
			vigente_hasta       = @vigente_hasta,
			activa              = @activa,
			actualizado_por     = @actualizado_por,
			fecha_actualizacion = @fecha_actualizacion
		WHERE id = @id`,
		asignacionArgs(a),
	)
	if err != nil {
		return fmt.Errorf("update asignacion: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
