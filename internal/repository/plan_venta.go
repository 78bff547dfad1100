package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
)

type ListPlanesVentaParams struct {
	VendedorID *uuid.UUID
	Periodo    *string
	Page       pagination.Params
}

type PlanVentaRepository interface {
	WithDB(db db.DB) PlanVentaRepository
	FindByVendedorPeriodo(ctx context.Context, vendedorID uuid.UUID, periodo string) (model.PlanVenta, error)
	ListPage(ctx context.Context, params ListPlanesVentaParams) ([]model.PlanVenta, int, error)
	Insert(ctx context.Context, p model.PlanVenta) error
	Update(ctx context.Context, p model.PlanVenta) error
}

type planVentaRepository struct {
	db db.DB
}

func NewPlanVentaRepository(db db.DB) PlanVentaRepository {
	return &planVentaRepository{db: db}
}

func (r planVentaRepository) WithDB(db db.DB) PlanVentaRepository {
	return &planVentaRepository{db: db}
}

const planVentaColumns = "id, vendedor_id, periodo, objetivo_mensual::text AS objetivo_mensual, meta_unidades, estado, " + auditColumns

type planVentaRow struct {
	ID              uuid.UUID    `db:"id"`
	VendedorID      uuid.UUID    `db:"vendedor_id"`
	Periodo         string       `db:"periodo"`
	ObjetivoMensual string       `db:"objetivo_mensual"`
	MetaUnidades    *int         `db:"meta_unidades"`
	Estado          model.Estado `db:"estado"`
	auditRow
}

func (row planVentaRow) toModel() (model.PlanVenta, error) {
	objetivo, err := decimal.NewFromString(row.ObjetivoMensual)
	if err != nil {
		return model.PlanVenta{}, fmt.Errorf("parse objetivo_mensual: %w", err)
	}

	return model.PlanVenta{
		ID:              row.ID,
		VendedorID:      row.VendedorID,
		Periodo:         row.Periodo,
		ObjetivoMensual: objetivo,
		MetaUnidades:    row.MetaUnidades,
		Estado:          row.Estado,
		Audit:           row.auditRow.toModel(),
	}, nil
}

func (r planVentaRepository) FindByVendedorPeriodo(ctx context.Context, vendedorID uuid.UUID, periodo string) (model.PlanVenta, error) {
	rows, err := r.db.Query(ctx,
		"SELECT "+planVentaColumns+" FROM planes_venta WHERE vendedor_id = @vendedor_id AND periodo = @periodo",
		pgx.NamedArgs{"vendedor_id": vendedorID, "periodo": periodo},
	)
	if err != nil {
		return model.PlanVenta{}, fmt.Errorf("query plan venta: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[planVentaRow])
	if err != nil {
		return model.PlanVenta{}, mapErr(err)
	}

	return row.toModel()
}

func (r planVentaRepository) ListPage(ctx context.Context, params ListPlanesVentaParams) ([]model.PlanVenta, int, error) {
	f := newFilter()
	add(f, "vendedor_id = @vendedor_id", "vendedor_id", params.VendedorID)
	add(f, "periodo = @periodo", "periodo", params.Periodo)

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM planes_venta "+f.where(), f.args).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count planes venta: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT `+planVentaColumns+`
		FROM planes_venta `+f.where()+`
		ORDER BY fecha_creacion ASC, id ASC
		LIMIT @limit OFFSET @offset`,
		f.pageArgs(params.Page),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list planes venta: %w", err)
	}

	planRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[planVentaRow])
	if err != nil {
		return nil, 0, fmt.Errorf("collect planes venta: %w", err)
	}

	items := make([]model.PlanVenta, 0, len(planRows))
	for _, row := range planRows {
		p, err := row.toModel()
		if err != nil {
			return nil, 0, err
		}
		items = append(items, p)
	}

	return items, total, nil
}

func planVentaArgs(p model.PlanVenta) pgx.NamedArgs {
	args := pgx.NamedArgs{
		"id":               p.ID,
		"vendedor_id":      p.VendedorID,
		"periodo":          p.Periodo,
		"objetivo_mensual": p.ObjetivoMensual.String(),
		"meta_unidades":    p.MetaUnidades,
		"estado":           string(p.Estado),
	}
	setAuditArgs(args, p.Audit)
	return args
}

func (r planVentaRepository) Insert(ctx context.Context, p model.PlanVenta) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO planes_venta (id, vendedor_id, periodo, objetivo_mensual, meta_unidades, estado, `+auditColumns+`)
		VALUES (@id, @vendedor_id, @periodo, @objetivo_mensual::numeric, @meta_unidades, @estado,
			@creado_por, @fecha_creacion, @actualizado_por, @fecha_actualizacion)`,
		planVentaArgs(p),
	)
	if err != nil {
		return fmt.Errorf("insert plan venta: %w", mapErr(err))
	}
	return nil
}

func (r planVentaRepository) Update(ctx context.Context, p model.PlanVenta) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE planes_venta SET
			objetivo_mensual    = @objetivo_mensual::numeric,
			meta_unidades       = @meta_unidades,
			estado              = @estado,
			actualizado_por     = @actualizado_por,
			fecha_actualizacion = @fecha_actualizacion
		WHERE id = @id`,
		planVentaArgs(p),
	)
	if err != nil {
		return fmt.Errorf("update plan venta: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
