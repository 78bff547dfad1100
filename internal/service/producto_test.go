package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
)

func newTestProductoService(t *testing.T) (ProductoService, *fakeProductoRepo, *recordingStore) {
	repo := &fakeProductoRepo{}
	store := &recordingStore{Store: newBlobStore(t)}
	svc := NewProductoService(fakeDB{}, discardLogger(), testValidator(t), fixedClock(testNow), store, repo)
	return svc, repo, store
}

func validProductoParams() CreateProductoParams {
	vence, _ := model.ParseDayMonthYear("31/12/2026")
	return CreateProductoParams{
		Nombre:                    "Guantes de nitrilo",
		CodigoSKU:                 "GUA-001",
		Categoria:                 model.CategoriaInsumo,
		PrecioUnitario:            decimal.RequireFromString("12500.456"),
		CondicionesAlmacenamiento: "Lugar fresco y seco",
		FechaVencimiento:          vence,
		ProveedorID:               uuid.New(),
	}
}

func pdfFile() upload.File {
	return upload.File{
		Name:        "registro.pdf",
		Ext:         ".pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4\n%%EOF\n"),
	}
}

func TestProductoService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Should round the price to two decimals", func(t *testing.T) {
		svc, _, _ := newTestProductoService(t)
		p, err := svc.Create(ctx, validProductoParams(), nil)
		require.NoError(t, err)
		assert.Equal(t, "12500.46", p.PrecioUnitario.StringFixed(2))
		assert.Equal(t, model.EstadoActivo, p.Estado)
	})

	t.Run("Should reject a duplicated sku", func(t *testing.T) {
		svc, _, _ := newTestProductoService(t)
		_, err := svc.Create(ctx, validProductoParams(), nil)
		require.NoError(t, err)

		_, err = svc.Create(ctx, validProductoParams(), nil)
		assert.ErrorIs(t, err, apperr.ProductoSkuDuplicado)
	})

	t.Run("Should reject a zero price and an unknown categoria", func(t *testing.T) {
		svc, repo, _ := newTestProductoService(t)
		params := validProductoParams()
		params.PrecioUnitario = decimal.Zero
		params.Categoria = "juguete"

		_, err := svc.Create(ctx, params, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "precio_unitario")
		assert.Contains(t, err.Error(), "categoria")
		assert.Empty(t, repo.items)
	})
}

func TestProductoService_PriceBounds(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		precio  string
		wantErr bool
	}{
		{name: "rounds to zero", precio: "0.004", wantErr: true},
		{name: "smallest storable", precio: "0.005"},
		{name: "largest storable", precio: "9999999999.99"},
		{name: "rounds past the column", precio: "9999999999.995", wantErr: true},
		{name: "overflows the column", precio: "100000000000", wantErr: true},
	}

	for _, tt := range tests {
		t.Run("Create "+tt.name, func(t *testing.T) {
			svc, repo, _ := newTestProductoService(t)
			params := validProductoParams()
			params.PrecioUnitario = decimal.RequireFromString(tt.precio)

			p, err := svc.Create(ctx, params, nil)
			if !tt.wantErr {
				require.NoError(t, err)
				assert.True(t, p.PrecioUnitario.GreaterThan(decimal.Zero))
				return
			}

			var verrs govalidator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, "precio_unitario", verrs[0].Field())
			assert.Empty(t, repo.items)
		})

		t.Run("Update "+tt.name, func(t *testing.T) {
			svc, _, _ := newTestProductoService(t)
			created, err := svc.Create(ctx, validProductoParams(), nil)
			require.NoError(t, err)

			_, err = svc.Update(ctx, created.ID, UpdateProductoParams{
				PrecioUnitario: ptr(decimal.RequireFromString(tt.precio)),
			}, nil)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}

			var verrs govalidator.ValidationErrors
			require.ErrorAs(t, err, &verrs)
			assert.Equal(t, "precio_unitario", verrs[0].Field())
		})
	}
}

func TestProductoService_Update(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newTestProductoService(t)

	created, err := svc.Create(ctx, validProductoParams(), nil)
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, UpdateProductoParams{
		PrecioUnitario: ptr(decimal.RequireFromString("99.999")),
		Estado:         ptr(model.EstadoInactivo),
	}, ptr("editor"))
	require.NoError(t, err)

	assert.Equal(t, "100.00", updated.PrecioUnitario.StringFixed(2))
	assert.Equal(t, model.EstadoInactivo, updated.Estado)
	assert.Equal(t, created.CodigoSKU, updated.CodigoSKU)

	_, err = svc.Update(ctx, uuid.New(), UpdateProductoParams{}, nil)
	assert.ErrorIs(t, err, apperr.ProductoNotFound)
}

func TestProductoService_UploadCertificacion(t *testing.T) {
	ctx := context.Background()
	vence := model.NewDate(time.Date(2027, time.June, 30, 0, 0, 0, 0, time.UTC))

	t.Run("Should store the file and attach the certification", func(t *testing.T) {
		svc, _, store := newTestProductoService(t)
		p, err := svc.Create(ctx, validProductoParams(), nil)
		require.NoError(t, err)

		cert, err := svc.UploadCertificacion(ctx, p.ID, UploadProductoCertificacionParams{
			Autoridad:        model.AutoridadINVIMA,
			FechaVencimiento: &vence,
			Archivo:          pdfFile(),
		}, ptr("admin"))
		require.NoError(t, err)

		assert.True(t, strings.HasPrefix(cert.ClaveArchivo, "productos/"+p.ID.String()+"/certificacion/"))
		assert.True(t, strings.HasSuffix(cert.ClaveArchivo, ".pdf"))
		assert.Equal(t, int64(len(pdfFile().Data)), cert.TamanoBytes)

		rc, err := store.Get(ctx, cert.ClaveArchivo)
		require.NoError(t, err)
		defer rc.Close()
		data, err := io.ReadAll(rc)
		require.NoError(t, err)
		assert.Equal(t, pdfFile().Data, data)

		got, err := svc.Get(ctx, p.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Certificacion)
		assert.Equal(t, cert.ID, got.Certificacion.ID)
	})

	t.Run("Should allow a single certification per producto", func(t *testing.T) {
		svc, _, store := newTestProductoService(t)
		p, err := svc.Create(ctx, validProductoParams(), nil)
		require.NoError(t, err)

		params := UploadProductoCertificacionParams{
			Autoridad:        model.AutoridadFDA,
			FechaVencimiento: &vence,
			Archivo:          pdfFile(),
		}
		_, err = svc.UploadCertificacion(ctx, p.ID, params, nil)
		require.NoError(t, err)

		_, err = svc.UploadCertificacion(ctx, p.ID, params, nil)
		assert.ErrorIs(t, err, apperr.ProductoCertificacionDuplicada)
		assert.Len(t, store.puts, 1)
	})

	t.Run("Should require the expiry date", func(t *testing.T) {
		svc, _, store := newTestProductoService(t)
		p, err := svc.Create(ctx, validProductoParams(), nil)
		require.NoError(t, err)

		_, err = svc.UploadCertificacion(ctx, p.ID, UploadProductoCertificacionParams{
			Autoridad: model.AutoridadEMA,
			Archivo:   pdfFile(),
		}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "fecha_vencimiento")
		assert.Empty(t, store.puts)
	})

	t.Run("Should return not found for an unknown producto", func(t *testing.T) {
		svc, _, _ := newTestProductoService(t)
		_, err := svc.UploadCertificacion(ctx, uuid.New(), UploadProductoCertificacionParams{
			Autoridad:        model.AutoridadINVIMA,
			FechaVencimiento: &vence,
			Archivo:          pdfFile(),
		}, nil)
		assert.ErrorIs(t, err, apperr.ProductoNotFound)
	})
}
