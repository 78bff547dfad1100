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

type ImportJobRepository interface {
	WithDB(db db.DB) ImportJobRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.ImportJob, error)
	Insert(ctx context.Context, job model.ImportJob) error
	Update(ctx context.Context, job model.ImportJob) error
}

type importJobRepository struct {
	db db.DB
}

func NewImportJobRepository(db db.DB) ImportJobRepository {
	return &importJobRepository{db: db}
}

func (r importJobRepository) WithDB(db db.DB) ImportJobRepository {
	return &importJobRepository{db: db}
}

const importJobColumns = "id, nombre_archivo, clave_archivo, estado, total_filas, filas_procesadas, exitosos, " +
	"fallidos, progreso, mensaje_error, detalles_errores, usuario_registro, fecha_creacion, " +
	"fecha_inicio_proceso, fecha_finalizacion"

type importJobRow struct {
	ID                 uuid.UUID               `db:"id"`
	NombreArchivo      string                  `db:"nombre_archivo"`
	ClaveArchivo       string                  `db:"clave_archivo"`
	Estado             model.EstadoImportacion `db:"estado"`
	TotalFilas         int                     `db:"total_filas"`
	FilasProcesadas    int                     `db:"filas_procesadas"`
	Exitosos           int                     `db:"exitosos"`
	Fallidos           int                     `db:"fallidos"`
	Progreso           float64                 `db:"progreso"`
	MensajeError       *string                 `db:"mensaje_error"`
	DetallesErrores    []model.ImportRowError  `db:"detalles_errores"`
	UsuarioRegistro    *string                 `db:"usuario_registro"`
	FechaCreacion      time.Time               `db:"fecha_creacion"`
	FechaInicioProceso *time.Time              `db:"fecha_inicio_proceso"`
	FechaFinalizacion  *time.Time              `db:"fecha_finalizacion"`
}

func (row importJobRow) toModel() model.ImportJob {
	detalles := row.DetallesErrores
	if detalles == nil {
		detalles = []model.ImportRowError{}
	}

	return model.ImportJob{
		ID:                 row.ID,
		NombreArchivo:      row.NombreArchivo,
		ClaveArchivo:       row.ClaveArchivo,
		Estado:             row.Estado,
		TotalFilas:         row.TotalFilas,
		FilasProcesadas:    row.FilasProcesadas,
		Exitosos:           row.Exitosos,
		Fallidos:           row.Fallidos,
		Progreso:           row.Progreso,
		MensajeError:       row.MensajeError,
		DetallesErrores:    detalles,
		UsuarioRegistro:    row.UsuarioRegistro,
		FechaCreacion:      row.FechaCreacion,
		FechaInicioProceso: row.FechaInicioProceso,
		FechaFinalizacion:  row.FechaFinalizacion,
	}
}

func (r importJobRepository) FindByID(ctx context.Context, id uuid.UUID) (model.ImportJob, error) {
	rows, err := r.db.Query(ctx, "SELECT "+importJobColumns+" FROM import_jobs WHERE id = @id", pgx.NamedArgs{"id": id})
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("query import job: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[importJobRow])
	if err != nil {
		return model.ImportJob{}, mapErr(err)
	}

	return row.toModel(), nil
}

func importJobArgs(job model.ImportJob) pgx.NamedArgs {
	detalles := job.DetallesErrores
	if detalles == nil {
		detalles = []model.ImportRowError{}
	}

	return pgx.NamedArgs{
		"id":                   job.ID,
		"nombre_archivo":       job.NombreArchivo,
		"clave_archivo":        job.ClaveArchivo,
		"estado":               string(job.Estado),
		"total_filas":          job.TotalFilas,
		"filas_procesadas":     job.FilasProcesadas,
		"exitosos":             job.Exitosos,
		"fallidos":             job.Fallidos,
		"progreso":             job.Progreso,
		"mensaje_error":        job.MensajeError,
		"detalles_errores":     detalles,
		"usuario_registro":     job.UsuarioRegistro,
		"fecha_creacion":       job.FechaCreacion,
		"fecha_inicio_proceso": job.FechaInicioProceso,
		"fecha_finalizacion":   job.FechaFinalizacion,
	}
}

func (r importJobRepository) Insert(ctx context.Context, job model.ImportJob) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO import_jobs (`+importJobColumns+`)
		VALUES (@id, @nombre_archivo, @clave_archivo, @estado, @total_filas, @filas_procesadas, @exitosos,
			@fallidos, @progreso, @mensaje_error, @detalles_errores::jsonb, @usuario_registro, @fecha_creacion,
			@fecha_inicio_proceso, @fecha_finalizacion)`,
		importJobArgs(job),
	)
	if err != nil {
		return fmt.Errorf("insert import job: %w", mapErr(err))
	}
	return nil
}

func (r importJobRepository) Update(ctx context.Context, job model.ImportJob) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE import_jobs SET
			estado               = @estado,
			total_filas          = @total_filas,
			filas_procesadas     = @filas_procesadas,
			exitosos             = @exitosos,
			fallidos             = @fallidos,
			progreso             = @progreso,
			mensaje_error        = @mensaje_error,
			detalles_errores     = @detalles_errores::jsonb,
			fecha_inicio_proceso = @fecha_inicio_proceso,
			fecha_finalizacion   = @fecha_finalizacion
		WHERE id = @id`,
		importJobArgs(job),
	)
	if err != nil {
		return fmt.Errorf("update import job: %w", mapErr(err))
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
