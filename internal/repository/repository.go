package repository

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrDuplicateKey = errors.New("duplicate key")
)

const pgUniqueViolation = "23505"

// DuplicateKeyError carries the unique constraint that rejected a write.
type DuplicateKeyError struct {
	Constraint string
}

func (e DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate key violates %s", e.Constraint)
}

func (e DuplicateKeyError) Is(target error) bool {
	return target == ErrDuplicateKey
}

// mapErr translates driver errors into repository errors.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return DuplicateKeyError{Constraint: pgErr.ConstraintName}
	}

	return err
}

// filter accumulates AND-ed conditions with their named arguments.
type filter struct {
	conds []string
	args  pgx.NamedArgs
}

func newFilter() *filter {
	return &filter{args: pgx.NamedArgs{}}
}

// add appends cond when value is non-nil. cond refers to the argument by @name.
func add[T any](f *filter, cond, name string, value *T) {
	if value == nil {
		return
	}
	f.conds = append(f.conds, cond)
	f.args[name] = *value
}

func (f *filter) raw(cond string) {
	f.conds = append(f.conds, cond)
}

func (f *filter) where() string {
	if len(f.conds) == 0 {
		return ""
	}
	return "WHERE " + strings.Join(f.conds, " AND ")
}

// pageArgs returns a copy of the filter args extended with limit and offset.
func (f *filter) pageArgs(p pagination.Params) pgx.NamedArgs {
	args := make(pgx.NamedArgs, len(f.args)+2)
	for k, v := range f.args {
		args[k] = v
	}
	args["limit"] = p.Limit()
	args["offset"] = p.Offset()
	return args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere.
func containsPattern(s string) *string {
	p := "%" + likeEscaper.Replace(s) + "%"
	return &p
}

type auditRow struct {
	CreadoPor          *string   `db:"creado_por"`
	FechaCreacion      time.Time `db:"fecha_creacion"`
	ActualizadoPor     *string   `db:"actualizado_por"`
	FechaActualizacion time.Time `db:"fecha_actualizacion"`
}

func (a auditRow) toModel() model.Audit {
	return model.Audit{
		CreadoPor:          a.CreadoPor,
		FechaCreacion:      a.FechaCreacion,
		ActualizadoPor:     a.ActualizadoPor,
		FechaActualizacion: a.FechaActualizacion,
	}
}

const auditColumns = "creado_por, fecha_creacion, actualizado_por, fecha_actualizacion"

func setAuditArgs(args pgx.NamedArgs, a model.Audit) {
	args["creado_por"] = a.CreadoPor
	args["fecha_creacion"] = a.FechaCreacion
	args["actualizado_por"] = a.ActualizadoPor
	args["fecha_actualizacion"] = a.FechaActualizacion
}
