package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
)

func TestPlanVentaService_Upsert(t *testing.T) {
	ctx := context.Background()
	v := testValidator(t)

	vendedores := &fakeVendedorRepo{}
	vendedor, err := NewVendedorService(fakeDB{}, v, fixedClock(testNow), vendedores).
		Create(ctx, validVendedorParams(), nil)
	require.NoError(t, err)

	planes := &fakePlanVentaRepo{}
	svc := NewPlanVentaService(fakeDB{}, v, fixedClock(testNow), vendedores, planes)

	params := UpsertPlanVentaParams{
		VendedorID:      vendedor.ID,
		Periodo:         "2025-03",
		ObjetivoMensual: decimal.RequireFromString("1500000.50"),
		MetaUnidades:    ptr(120),
	}

	t.Run("Should create the plan on first upsert", func(t *testing.T) {
		plan, created, err := svc.Upsert(ctx, params, ptr("admin"))
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, model.EstadoActivo, plan.Estado)
		assert.True(t, plan.ObjetivoMensual.Equal(decimal.RequireFromString("1500000.5")))
	})

	t.Run("Should replace the objective on a second upsert", func(t *testing.T) {
		again := params
		again.ObjetivoMensual = decimal.NewFromInt(2000000)
		again.MetaUnidades = nil

		plan, created, err := svc.Upsert(ctx, again, ptr("editor"))
		require.NoError(t, err)
		assert.False(t, created)
		assert.True(t, plan.ObjetivoMensual.Equal(decimal.NewFromInt(2000000)))
		assert.Nil(t, plan.MetaUnidades)
		assert.Equal(t, "admin", *plan.CreadoPor)
		assert.True(t, plan.FechaActualizacion.After(plan.FechaCreacion))
		assert.Len(t, planes.items, 1)
	})

	t.Run("Should reject an unknown vendedor", func(t *testing.T) {
		unknown := params
		unknown.VendedorID = uuid.New()
		_, _, err := svc.Upsert(ctx, unknown, nil)
		assert.ErrorIs(t, err, apperr.VendedorNotFound)
	})

	t.Run("Should validate periodo and objective", func(t *testing.T) {
		bad := params
		bad.Periodo = "2025-13"
		bad.ObjetivoMensual = decimal.NewFromInt(-1)
		_, _, err := svc.Upsert(ctx, bad, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "periodo")
		assert.Contains(t, err.Error(), "objetivo_mensual")
	})

	t.Run("Should reject objectives the column cannot store", func(t *testing.T) {
		for _, objetivo := range []string{"0.004", "1000000000000"} {
			bad := params
			bad.ObjetivoMensual = decimal.RequireFromString(objetivo)
			_, _, err := svc.Upsert(ctx, bad, nil)
			require.Error(t, err, objetivo)
			assert.Contains(t, err.Error(), "objetivo_mensual", objetivo)
		}
	})

	t.Run("Should list plans of a vendedor", func(t *testing.T) {
		page, err := svc.List(ctx, ListPlanesVentaParams{VendedorID: &vendedor.ID})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Total)
	})
}
