package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/auth"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type SignupParams struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
	Nombre   string `json:"nombre" validate:"notblank,max=100"`
	Apellido string `json:"apellido" validate:"notblank,max=100"`
}

type LoginParams struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type AuthResult struct {
	User  model.User `json:"user"`
	Token auth.Token `json:"token"`
}

// TokenManager issues and verifies access tokens.
type TokenManager interface {
	Issue(userID uuid.UUID, email string) (auth.Token, error)
	Verify(token string) (auth.Claims, error)
}

type AuthService interface {
	Signup(ctx context.Context, params SignupParams) (AuthResult, error)
	Login(ctx context.Context, params LoginParams) (AuthResult, error)
	// Validate resolves the active user a token was issued to.
	Validate(ctx context.Context, token string) (model.User, error)
}

type authService struct {
	db         db.DB
	validator  validator.Validator
	clock      Clock
	tokens     TokenManager
	bcryptCost int
	userRepo   repository.UserRepository
}

func NewAuthService(
	db db.DB,
	validator validator.Validator,
	clock Clock,
	tokens TokenManager,
	bcryptCost int,
	userRepo repository.UserRepository,
) AuthService {
	return &authService{
		db:         db,
		validator:  validator,
		clock:      clock,
		tokens:     tokens,
		bcryptCost: bcryptCost,
		userRepo:   userRepo,
	}
}

func idOfUser(u model.User) uuid.UUID { return u.ID }

func (s *authService) Signup(ctx context.Context, params SignupParams) (AuthResult, error) {
	params.Email = *lowerPtr(&params.Email)
	params.Nombre = trim(params.Nombre)
	params.Apellido = trim(params.Apellido)
	if err := validate(s.validator, params); err != nil {
		return AuthResult{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(params.Password), s.bcryptCost)
	if err != nil {
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	id, err := newID()
	if err != nil {
		return AuthResult{}, err
	}

	now := stamp(s.clock)
	user := model.User{
		ID:           id,
		Email:        params.Email,
		PasswordHash: string(hash),
		Nombre:       params.Nombre,
		Apellido:     params.Apellido,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.db.WithTx(ctx, func(db db.DB) error {
		repo := s.userRepo.WithDB(db)
		if err := ensureUnique(ctx, repo.FindByEmail, user.Email, user.ID, idOfUser, apperr.UserEmailDuplicado); err != nil {
			return err
		}
		if err := repo.Insert(ctx, user); err != nil {
			return mapWriteErr(err, apperr.UsuarioNoEncontrado, apperr.UserEmailDuplicado)
		}
		return nil
	}); err != nil {
		return AuthResult{}, fmt.Errorf("db with tx: %w", err)
	}

	return s.issue(user)
}

func (s *authService) Login(ctx context.Context, params LoginParams) (AuthResult, error) {
	params.Email = *lowerPtr(&params.Email)
	if err := validate(s.validator, params); err != nil {
		return AuthResult{}, err
	}

	user, err := s.userRepo.FindByEmail(ctx, params.Email)
	if errors.Is(err, repository.ErrNotFound) {
		return AuthResult{}, apperr.CredencialesInvalidas
	}
	if err != nil {
		return AuthResult{}, fmt.Errorf("user repository find by email: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(params.Password)); err != nil {
		return AuthResult{}, apperr.CredencialesInvalidas
	}
	if !user.IsActive {
		return AuthResult{}, apperr.UsuarioInactivo
	}

	return s.issue(user)
}

func (s *authService) issue(user model.User) (AuthResult, error) {
	token, err := s.tokens.Issue(user.ID, user.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}
	return AuthResult{User: user, Token: token}, nil
}

func (s *authService) Validate(ctx context.Context, token string) (model.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		return model.User{}, apperr.TokenInvalido.WrapParent(err)
	}

	id, err := claims.UserID()
	if err != nil {
		return model.User{}, apperr.TokenInvalido.WrapParent(err)
	}

	user, err := s.userRepo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, apperr.UsuarioNoEncontrado
	}
	if err != nil {
		return model.User{}, fmt.Errorf("user repository find by id: %w", err)
	}
	if !user.IsActive {
		return model.User{}, apperr.UsuarioInactivo
	}

	return user, nil
}
