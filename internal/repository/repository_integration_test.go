//go:build integration

package repository

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/ptr"
)

func newTestDB(t *testing.T) *db.Client {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("medsupply_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := db.NewPgxPool(ctx, config.Postgres{
		URL:             dsn,
		MaxConns:        4,
		MinConns:        1,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: time.Minute,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(pool))

	return db.NewClient(pool)
}

func testNow() time.Time {
	return time.Now().UTC().Truncate(time.Microsecond)
}

func TestVendedorRepository(t *testing.T) {
	client := newTestDB(t)
	repo := NewVendedorRepository(client)
	ctx := context.Background()

	now := testNow()
	v := model.Vendedor{
		ID:        uuid.New(),
		Nombre:    "Ana",
		Apellidos: "Gomez",
		Correo:    "ana@example.com",
		Celular:   "3001234567",
		Zona:      ptr.New("Norte"),
		Estado:    model.EstadoActivo,
		Audit:     model.NewAudit(nil, now),
	}
	require.NoError(t, repo.Insert(ctx, v))

	got, err := repo.FindByID(ctx, v.ID)
	require.NoError(t, err)
	assert.Equal(t, v.Correo, got.Correo)
	assert.True(t, v.FechaCreacion.Equal(got.FechaCreacion))

	dup := v
	dup.ID = uuid.New()
	err = repo.Insert(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateKey)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)

	items, total, err := repo.ListPage(ctx, ListVendedoresParams{
		Zona: ptr.New("Norte"),
		Page: pagination.Normalize(nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	require.Len(t, items, 1)
	assert.Equal(t, v.ID, items[0].ID)
}

func TestPlanVentaRepository_DecimalRoundTrip(t *testing.T) {
	client := newTestDB(t)
	ctx := context.Background()
	now := testNow()

	vendedorID := uuid.New()
	require.NoError(t, NewVendedorRepository(client).Insert(ctx, model.Vendedor{
		ID: vendedorID, Nombre: "Luis", Apellidos: "Mora", Correo: "luis@example.com",
		Celular: "3001234567", Estado: model.EstadoActivo, Audit: model.NewAudit(nil, now),
	}))

	repo := NewPlanVentaRepository(client)
	plan := model.PlanVenta{
		ID:              uuid.New(),
		VendedorID:      vendedorID,
		Periodo:         "2025-01",
		ObjetivoMensual: decimal.RequireFromString("1500000.50"),
		MetaUnidades:    ptr.New(120),
		Estado:          model.EstadoActivo,
		Audit:           model.NewAudit(nil, now),
	}
	require.NoError(t, repo.Insert(ctx, plan))

	got, err := repo.FindByVendedorPeriodo(ctx, vendedorID, "2025-01")
	require.NoError(t, err)
	assert.True(t, plan.ObjetivoMensual.Equal(got.ObjetivoMensual))

	plan.ID = uuid.New()
	assert.ErrorIs(t, repo.Insert(ctx, plan), ErrDuplicateKey)
}

func TestProveedorRepository_EstadoCertificacion(t *testing.T) {
	client := newTestDB(t)
	repo := NewProveedorRepository(client)
	ctx := context.Background()
	now := testNow()

	newProveedor := func(nombre, nit string) model.Proveedor {
		return model.Proveedor{
			ID: uuid.New(), Nombre: nombre, Nit: nit, Pais: "Colombia", Direccion: "Calle 1",
			NombreContacto: "Contacto", Email: "c@example.com", Telefono: "3001234567",
			Estado: model.EstadoActivo, Audit: model.NewAudit(nil, now),
		}
	}
	certificado := newProveedor("Beta", "900123456")
	sinCert := newProveedor("Alfa", "900123457")
	require.NoError(t, repo.Insert(ctx, certificado))
	require.NoError(t, repo.Insert(ctx, sinCert))

	require.NoError(t, repo.InsertCertificacion(ctx, model.Certificacion{
		ID: uuid.New(), PropietarioID: certificado.ID, Autoridad: model.AutoridadINVIMA,
		NombreArchivo: "cert.pdf", ClaveArchivo: "proveedores/x/cert.pdf", ContentType: "application/pdf",
		TamanoBytes: 10, FechaSubida: now,
	}))

	got, err := repo.FindByID(ctx, certificado.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoCertificacionVigente, got.EstadoCertificacion)
	assert.Equal(t, 1, got.TotalCertificaciones)

	items, total, err := repo.ListPage(ctx, ListProveedoresParams{
		Pais: ptr.New("colombia"),
		Page: pagination.Normalize(nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, items, 2)
	assert.Equal(t, "Alfa", items[0].Nombre)

	items, total, err = repo.ListPage(ctx, ListProveedoresParams{
		EstadoCertificacion: ptr.New(model.EstadoCertificacionSinCertificaciones),
		Page:                pagination.Normalize(nil, nil),
	})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, sinCert.ID, items[0].ID)
}

func TestImportJobRepository_DetallesErrores(t *testing.T) {
	client := newTestDB(t)
	repo := NewImportJobRepository(client)
	ctx := context.Background()

	job := model.ImportJob{
		ID:            uuid.New(),
		NombreArchivo: "productos.csv",
		ClaveArchivo:  "imports/productos.csv",
		Estado:        model.EstadoImportacionEnCola,
		FechaCreacion: testNow(),
	}
	require.NoError(t, repo.Insert(ctx, job))

	job.Estado = model.EstadoImportacionCompletado
	job.DetallesErrores = []model.ImportRowError{{Fila: 2, CodigoSKU: "SKU-1", Errores: []string{"precio_unitario: must be greater than 0"}}}
	require.NoError(t, repo.Update(ctx, job))

	got, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.EstadoImportacionCompletado, got.Estado)
	assert.Equal(t, job.DetallesErrores, got.DetallesErrores)
}

func TestOutboxMsgRepository(t *testing.T) {
	client := newTestDB(t)
	repo := NewOutboxMsgRepository(client)
	ctx := context.Background()

	require.NoError(t, repo.CreateOutboxMsg(ctx, CreateOutboxMsgParams{
		Topic:   "producto.import.requested",
		Headers: map[string]string{"correlation_id": "abc"},
		Payload: json.RawMessage(`{"job_id":"x"}`),
	}))

	err := client.WithTx(ctx, func(tx db.DB) error {
		msgs, err := repo.WithDB(tx).ListUnprocessedOutboxMsgs(ctx, ListUnprocessedOutboxMsgsParams{BatchSize: 10})
		require.NoError(t, err)
		require.Len(t, msgs, 1)
		assert.Equal(t, "abc", msgs[0].Headers["correlation_id"])
		assert.JSONEq(t, `{"job_id":"x"}`, string(msgs[0].Payload))

		return repo.WithDB(tx).BulkUpdateOutboxMsgs(ctx, BulkUpdateOutboxMsgsParams{
			Items: []BulkUpdateOutboxMsgsItem{{ID: msgs[0].ID}},
		})
	})
	require.NoError(t, err)

	msgs, err := repo.ListUnprocessedOutboxMsgs(ctx, ListUnprocessedOutboxMsgsParams{BatchSize: 10})
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestNestedWithTxRollsBackOnlyTheSavepoint(t *testing.T) {
	client := newTestDB(t)
	repo := NewVendedorRepository(client)
	ctx := context.Background()

	newVendedor := func(correo string) model.Vendedor {
		return model.Vendedor{
			ID:        uuid.New(),
			Nombre:    "Luis",
			Apellidos: "Perez",
			Correo:    correo,
			Celular:   "3007654321",
			Estado:    model.EstadoActivo,
			Audit:     model.NewAudit(nil, testNow()),
		}
	}
	kept, dropped := newVendedor("kept@example.com"), newVendedor("dropped@example.com")
	errInner := errors.New("inner failure")

	err := client.WithTx(ctx, func(tx db.DB) error {
		require.NoError(t, repo.WithDB(tx).Insert(ctx, kept))

		innerErr := tx.WithTx(ctx, func(sp db.DB) error {
			require.NoError(t, repo.WithDB(sp).Insert(ctx, dropped))
			return errInner
		})
		assert.ErrorIs(t, innerErr, errInner)

		return nil
	})
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, kept.ID)
	require.NoError(t, err)

	_, err = repo.FindByID(ctx, dropped.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
