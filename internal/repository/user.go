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

type UserRepository interface {
	WithDB(db db.DB) UserRepository
	FindByID(ctx context.Context, id uuid.UUID) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	Insert(ctx context.Context, u model.User) error
}

type userRepository struct {
	db db.DB
}

func NewUserRepository(db db.DB) UserRepository {
	return &userRepository{db: db}
}

func (r userRepository) WithDB(db db.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = "id, email, password_hash, nombre, apellido, is_active, created_at, updated_at"

type userRow struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Nombre       string    `db:"nombre"`
	Apellido     string    `db:"apellido"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRepository) findOne(ctx context.Context, cond string, args pgx.NamedArgs) (model.User, error) {
	rows, err := r.db.Query(ctx, "SELECT "+userColumns+" FROM users WHERE "+cond, args)
	if err != nil {
		return model.User{}, fmt.Errorf("query user: %w", err)
	}

	row, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByName[userRow])
	if err != nil {
		return model.User{}, mapErr(err)
	}

	return model.User(row), nil
}

func (r userRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return r.findOne(ctx, "id = @id", pgx.NamedArgs{"id": id})
}

func (r userRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.findOne(ctx, "email = @email", pgx.NamedArgs{"email": email})
}

func (r userRepository) Insert(ctx context.Context, u model.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (@id, @email, @password_hash, @nombre, @apellido, @is_active, @created_at, @updated_at)`,
		pgx.NamedArgs{
			"id":            u.ID,
			"email":         u.Email,
			"password_hash": u.PasswordHash,
			"nombre":        u.Nombre,
			"apellido":      u.Apellido,
			"is_active":     u.IsActive,
			"created_at":    u.CreatedAt,
			"updated_at":    u.UpdatedAt,
		},
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", mapErr(err))
	}
	return nil
}
