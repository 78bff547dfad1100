package validator_test

import (
	"errors"
	"strings"
	"testing"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

type vendedorInput struct {
	Nombre  string       `json:"nombre" validate:"notblank,max=150"`
	Correo  string       `json:"correo" validate:"required,email"`
	Celular string       `json:"celular" validate:"required,phone"`
	Estado  model.Estado `json:"estado" validate:"enum"`
}

type miscInput struct {
	Nit     string `json:"nit" validate:"nit"`
	Sku     string `json:"codigo_sku" validate:"sku"`
	Periodo string `json:"periodo" validate:"period"`
}

func fieldErrors(t *testing.T, err error) map[string]govalidator.FieldError {
	t.Helper()

	var verrs govalidator.ValidationErrors
	require.True(t, errors.As(err, &verrs))

	out := map[string]govalidator.FieldError{}
	for _, fe := range verrs {
		out[fe.Field()] = fe
	}
	return out
}

func TestDefaultValidator(t *testing.T) {
	v := validator.MustNewDefaultValidator()

	t.Run("Should pass a valid struct", func(t *testing.T) {
		err := v.Validate(vendedorInput{
			Nombre:  "Juan",
			Correo:  "juan@example.com",
			Celular: "300 123-4567",
			Estado:  model.EstadoActivo,
		})
		assert.NoError(t, err)
	})

	t.Run("Should accumulate every violation", func(t *testing.T) {
		err := v.Validate(vendedorInput{
			Nombre:  "   ",
			Correo:  "no-es-correo",
			Celular: "",
			Estado:  model.EstadoActivo,
		})
		require.Error(t, err)
		assert.True(t, validator.IsValidationError(err))

		errs := fieldErrors(t, err)
		assert.Len(t, errs, 3)
		assert.Contains(t, errs, "nombre")
		assert.Contains(t, errs, "correo")
		assert.Contains(t, errs, "celular")
	})

	t.Run("Should echo allowed values for enums", func(t *testing.T) {
		err := v.Validate(vendedorInput{
			Nombre:  "Juan",
			Correo:  "juan@example.com",
			Celular: "3001234567",
			Estado:  "borrado",
		})
		errs := fieldErrors(t, err)
		require.Contains(t, errs, "estado")
		assert.Equal(t, "must be one of [activo inactivo]", validator.ValidationErrorMessage(errs["estado"]))
	})
}

func TestPhoneRule(t *testing.T) {
	v := validator.MustNewDefaultValidator()

	tests := []struct {
		phone string
		valid bool
	}{
		{"3001234567", true},
		{"+57 300 123 4567", true},
		{"300-123-4567", true},
		{"300123456", false},
		{"30012345ab", false},
		{"(300)1234567", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			err := v.Validate(vendedorInput{
				Nombre: "Juan", Correo: "juan@example.com", Celular: tt.phone, Estado: model.EstadoActivo,
			})
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Contains(t, fieldErrors(t, err), "celular")
			}
		})
	}
}

func TestMiscRules(t *testing.T) {
	v := validator.MustNewDefaultValidator()

	t.Run("Should accept valid values", func(t *testing.T) {
		assert.NoError(t, v.Validate(miscInput{Nit: "900123456", Sku: "MED-001_a", Periodo: "2026-10"}))
		assert.NoError(t, v.Validate(miscInput{Nit: "900-123-4567", Sku: "abc", Periodo: "1999-01"}))
	})

	t.Run("Should reject invalid values", func(t *testing.T) {
		err := v.Validate(miscInput{Nit: "12345678", Sku: "ab", Periodo: "2026-13"})
		errs := fieldErrors(t, err)
		assert.Len(t, errs, 3)
		assert.Equal(t, "must contain between 9 and 10 digits", validator.ValidationErrorMessage(errs["nit"]))
		assert.Equal(t, "must have the format YYYY-MM", validator.ValidationErrorMessage(errs["periodo"]))
	})
}

func TestNormalizeNit(t *testing.T) {
	assert.Equal(t, "9001234567", validator.NormalizeNit(" 900-123 4567 "))
	assert.Equal(t, "123", validator.Digits("a1-2b3"))
}

func TestDecimalRules(t *testing.T) {
	type precioInput struct {
		Precio decimal.Decimal `json:"precio_unitario" validate:"required,gt=0"`
	}

	v := validator.MustNewDefaultValidator()

	assert.NoError(t, v.Validate(precioInput{Precio: decimal.RequireFromString("0.01")}))

	errs := fieldErrors(t, v.Validate(precioInput{Precio: decimal.RequireFromString("-3")}))
	require.Contains(t, errs, "precio_unitario")
	assert.Equal(t, "must be greater than 0", validator.ValidationErrorMessage(errs["precio_unitario"]))

	errs = fieldErrors(t, v.Validate(precioInput{}))
	assert.Equal(t, "required", errs["precio_unitario"].Tag())
}

func TestMaxBytesRule(t *testing.T) {
	type claveInput struct {
		Password string `json:"password" validate:"min=6,maxbytes=72"`
	}

	v := validator.MustNewDefaultValidator()

	assert.NoError(t, v.Validate(claveInput{Password: strings.Repeat("a", 72)}))
	assert.NoError(t, v.Validate(claveInput{Password: strings.Repeat("ñ", 36)}))

	errs := fieldErrors(t, v.Validate(claveInput{Password: strings.Repeat("ñ", 37)}))
	require.Contains(t, errs, "password")
	assert.Equal(t, "must be at most 72 bytes long", validator.ValidationErrorMessage(errs["password"]))
}
