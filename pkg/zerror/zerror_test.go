package zerror_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/tuanvumaihuynh/medsupply/pkg/zerror"
)

func TestZError(t *testing.T) {
	notFound := zerror.NewNotFound("VENDEDOR_NOT_FOUND", "vendedor no encontrado")

	t.Run("Should match predefined error after wrapping", func(t *testing.T) {
		parent := errors.New("no rows")
		err := fmt.Errorf("get vendedor: %w", notFound.WrapParent(parent))

		assert.ErrorIs(t, err, notFound)
		assert.ErrorIs(t, err, parent)
	})

	t.Run("Should not match a different code", func(t *testing.T) {
		other := zerror.NewNotFound("PRODUCTO_NOT_FOUND", "producto no encontrado")
		assert.NotErrorIs(t, notFound, other)
	})

	t.Run("Should extract with errors.As", func(t *testing.T) {
		err := fmt.Errorf("wrapped: %w", notFound.WithMsg("otro mensaje"))

		var zErr zerror.ZError
		assert.True(t, errors.As(err, &zErr))
		assert.Equal(t, zerror.StatusNotFound, zErr.Status())
		assert.Equal(t, "VENDEDOR_NOT_FOUND", zErr.Code())
		assert.Equal(t, "otro mensaje", zErr.Msg())
	})

	t.Run("Should keep nil parent on WrapParent(nil)", func(t *testing.T) {
		assert.Nil(t, notFound.WrapParent(nil).Parent())
		assert.Equal(t, "Code=VENDEDOR_NOT_FOUND, Msg=vendedor no encontrado", notFound.Error())
	})
}
