package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
)

// certificacionTable describes where the certifications of one owner kind live.
type certificacionTable struct {
	name     string
	ownerCol string
}

var (
	certificacionesProducto  = certificacionTable{name: "certificaciones_producto", ownerCol: "producto_id"}
	certificacionesProveedor = certificacionTable{name: "certificaciones_proveedor", ownerCol: "proveedor_id"}
)

func (t certificacionTable) columns() string {
	return "id, " + t.ownerCol + " AS propietario_id, autoridad, nombre_archivo, clave_archivo, content_type, " +
		"tamano_bytes, fecha_vencimiento, fecha_subida, subido_por"
}

type certificacionRow struct {
	ID               uuid.UUID       `db:"id"`
	PropietarioID    uuid.UUID       `db:"propietario_id"`
	Autoridad        model.Autoridad `db:"autoridad"`
	NombreArchivo    string          `db:"nombre_archivo"`
	ClaveArchivo     string          `db:"clave_archivo"`
	ContentType      string          `db:"content_type"`
	TamanoBytes      int64           `db:"tamano_bytes"`
	FechaVencimiento *time.Time      `db:"fecha_vencimiento"`
	FechaSubida      time.Time       `db:"fecha_subida"`
	SubidoPor        *string         `db:"subido_por"`
}

func (row certificacionRow) toModel() model.Certificacion {
	c := model.Certificacion{
		ID:            row.ID,
		PropietarioID: row.PropietarioID,
		Autoridad:     row.Autoridad,
		NombreArchivo: row.NombreArchivo,
		ClaveArchivo:  row.ClaveArchivo,
		ContentType:   row.ContentType,
		TamanoBytes:   row.TamanoBytes,
		FechaSubida:   row.FechaSubida,
		SubidoPor:     row.SubidoPor,
	}
	if row.FechaVencimiento != nil {
		d := model.NewDate(*row.FechaVencimiento)
		c.FechaVencimiento = &d
	}
	return c
}

func (t certificacionTable) insert(ctx context.Context, conn db.DB, c model.Certificacion) error {
	var vencimiento *time.Time
	if c.FechaVencimiento != nil {
		vencimiento = &c.FechaVencimiento.Time
	}

	_, err := conn.Exec(ctx, `
		INSERT INTO `+t.name+` (id, `+t.ownerCol+`, autoridad, nombre_archivo, clave_archivo, content_type,
			tamano_bytes, fecha_vencimiento, fecha_subida, subido_por)
		VALUES (@id, @propietario_id, @autoridad, @nombre_archivo, @clave_archivo, @content_type,
			@tamano_bytes, @fecha_vencimiento, @fecha_subida, @subido_por)`,
		pgx.NamedArgs{
			"id":                c.ID,
			"propietario_id":    c.PropietarioID,
			"autoridad":         string(c.Autoridad),
			"nombre_archivo":    c.NombreArchivo,
			"clave_archivo":     c.ClaveArchivo,
			"content_type":      c.ContentType,
			"tamano_bytes":      c.TamanoBytes,
			"fecha_vencimiento": vencimiento,
			"fecha_subida":      c.FechaSubida,
			"subido_por":        c.SubidoPor,
		},
	)
	if err != nil {
		return fmt.Errorf("insert %s: %w", t.name, mapErr(err))
	}
	return nil
}

func (t certificacionTable) listByOwner(ctx context.Context, conn db.DB, ownerID uuid.UUID) ([]model.Certificacion, error) {
	rows, err := conn.Query(ctx,
		"SELECT "+t.columns()+" FROM "+t.name+" WHERE "+t.ownerCol+" = @owner ORDER BY fecha_subida ASC, id ASC",
		pgx.NamedArgs{"owner": ownerID},
	)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", t.name, err)
	}

	certRows, err := pgx.CollectRows(rows, pgx.RowToStructByName[certificacionRow])
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", t.name, err)
	}

	items := make([]model.Certificacion, 0, len(certRows))
	for _, row := range certRows {
		items = append(items, row.toModel())
	}
	return items, nil
}
