package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/event"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
)

type importFixture struct {
	svc       ImportacionService
	jobs      *fakeImportJobRepo
	outbox    *fakeOutboxMsgRepo
	productos *fakeProductoRepo
	store     *recordingStore
}

func newImportFixture(t *testing.T, cfg config.Import) importFixture {
	f := importFixture{
		jobs:      newFakeImportJobRepo(),
		outbox:    &fakeOutboxMsgRepo{},
		productos: &fakeProductoRepo{},
		store:     &recordingStore{Store: newBlobStore(t)},
	}
	v := testValidator(t)
	productoSvc := NewProductoService(fakeDB{}, discardLogger(), v, fixedClock(testNow), f.store, f.productos)
	f.svc = NewImportacionService(cfg, fakeDB{}, discardLogger(), v, fixedClock(testNow), f.store, productoSvc, f.jobs, f.outbox)
	return f
}

func csvFile(lines ...string) upload.File {
	return upload.File{
		Name:        "productos.csv",
		Ext:         ".csv",
		ContentType: "text/csv",
		Data:        []byte(strings.Join(lines, "\n") + "\n"),
	}
}

const importHeader = "nombre,codigo_sku,categoria,precio_unitario,condiciones_almacenamiento,fecha_vencimiento,proveedor_id"

func importLines() []string {
	proveedor := uuid.NewString()
	return []string{
		importHeader,
		"Jeringa 5ml,JER-005,insumo,1200.50,Ambiente,31/12/2026," + proveedor,
		"Alcohol,ALC-001,bebida,abc,Ambiente,31/12/2026," + proveedor,
		"Jeringa repetida,JER-005,insumo,1300,Ambiente,31/12/2026," + proveedor,
		"Gasas,GAS-010,Insumo,800,Ambiente,15/06/2027," + proveedor,
	}
}

func TestImportacionService_Enqueue(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 25})

	job, err := f.svc.Enqueue(ctx, csvFile(importLines()...), ptr("admin"))
	require.NoError(t, err)

	assert.Equal(t, model.EstadoImportacionEnCola, job.Estado)
	assert.Equal(t, "importaciones/"+job.ID.String()+".csv", job.ClaveArchivo)
	assert.Equal(t, []string{job.ClaveArchivo}, f.store.puts)

	require.Len(t, f.outbox.msgs, 1)
	msg := f.outbox.msgs[0]
	assert.Equal(t, event.TopicProductoImportRequested, msg.Topic)
	assert.Equal(t, job.ID.String(), *msg.PartitionKey)

	var ev event.ProductoImportRequestedEvent
	require.NoError(t, json.Unmarshal(msg.Payload, &ev))
	assert.Equal(t, job.ID, ev.JobID)

	got, err := f.svc.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, job.ID, got.ID)

	_, err = f.svc.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperr.ImportJobNotFound)
}

func TestImportacionService_EnqueueRollsBackFile(t *testing.T) {
	ctx := context.Background()
	f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 25})
	f.outbox.err = assert.AnError

	_, err := f.svc.Enqueue(ctx, csvFile(importHeader), nil)
	require.ErrorIs(t, err, assert.AnError)
	assert.Equal(t, f.store.puts, f.store.deletes)
}

func TestImportacionService_Process(t *testing.T) {
	ctx := context.Background()

	t.Run("Should import valid rows and report the others", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 2})
		job, err := f.svc.Enqueue(ctx, csvFile(importLines()...), ptr("admin"))
		require.NoError(t, err)

		require.NoError(t, f.svc.Process(ctx, job.ID))

		got, err := f.svc.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.EstadoImportacionCompletado, got.Estado)
		assert.Equal(t, 4, got.TotalFilas)
		assert.Equal(t, 4, got.FilasProcesadas)
		assert.Equal(t, 2, got.Exitosos)
		assert.Equal(t, 2, got.Fallidos)
		assert.Equal(t, float64(100), got.Progreso)
		assert.NotNil(t, got.FechaInicioProceso)
		assert.NotNil(t, got.FechaFinalizacion)
		assert.Len(t, f.productos.items, 2)
		assert.Equal(t, "admin", *f.productos.items[0].CreadoPor)

		require.Len(t, got.DetallesErrores, 2)

		bad := got.DetallesErrores[0]
		assert.Equal(t, 3, bad.Fila)
		assert.Equal(t, "ALC-001", bad.CodigoSKU)
		require.Len(t, bad.Errores, 2)
		assert.Equal(t, "precio_unitario: must be a number", bad.Errores[0])
		assert.True(t, strings.HasPrefix(bad.Errores[1], "categoria: "))

		dup := got.DetallesErrores[1]
		assert.Equal(t, 4, dup.Fila)
		assert.Equal(t, []string{apperr.ProductoSkuDuplicado.Msg()}, dup.Errores)
	})

	t.Run("Should write progress while processing", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 2})
		job, err := f.svc.Enqueue(ctx, csvFile(importLines()...), nil)
		require.NoError(t, err)

		require.NoError(t, f.svc.Process(ctx, job.ID))

		require.Len(t, f.jobs.updates, 3)
		assert.Equal(t, model.EstadoImportacionProcesando, f.jobs.updates[0].Estado)
		assert.Equal(t, model.EstadoImportacionProcesando, f.jobs.updates[1].Estado)
		assert.Equal(t, float64(50), f.jobs.updates[1].Progreso)
		assert.Equal(t, model.EstadoImportacionCompletado, f.jobs.updates[2].Estado)
	})

	t.Run("Should keep counting failures past the error cap", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 1, ProgressEvery: 25})
		job, err := f.svc.Enqueue(ctx, csvFile(importLines()...), nil)
		require.NoError(t, err)

		require.NoError(t, f.svc.Process(ctx, job.ID))

		got, err := f.svc.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, got.Fallidos)
		assert.Len(t, got.DetallesErrores, 1)
	})

	t.Run("Should fail the job when required columns are missing", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 25})
		job, err := f.svc.Enqueue(ctx, csvFile("nombre,codigo_sku", "Gasas,GAS-010"), nil)
		require.NoError(t, err)

		require.NoError(t, f.svc.Process(ctx, job.ID))

		got, err := f.svc.Get(ctx, job.ID)
		require.NoError(t, err)
		assert.Equal(t, model.EstadoImportacionFallido, got.Estado)
		require.NotNil(t, got.MensajeError)
		assert.Contains(t, *got.MensajeError, "precio_unitario")
		assert.Empty(t, f.productos.items)
	})

	t.Run("Should skip a job that already finished", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 25})
		job, err := f.svc.Enqueue(ctx, csvFile(importLines()...), nil)
		require.NoError(t, err)
		require.NoError(t, f.svc.Process(ctx, job.ID))
		updates := len(f.jobs.updates)

		require.NoError(t, f.svc.Process(ctx, job.ID))
		assert.Len(t, f.jobs.updates, updates)
		assert.Len(t, f.productos.items, 2)
	})

	t.Run("Should return not found for an unknown job", func(t *testing.T) {
		f := newImportFixture(t, config.Import{MaxRowErrors: 100, ProgressEvery: 25})
		err := f.svc.Process(ctx, uuid.New())
		assert.ErrorIs(t, err, apperr.ImportJobNotFound)
	})
}
