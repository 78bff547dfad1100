package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/pkg/pagination"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
)

var testNow = time.Date(2025, time.March, 10, 15, 4, 5, 123456789, time.UTC)

func fixedClock(t time.Time) Clock {
	return func() time.Time { return t }
}

func testValidator(t *testing.T) validator.Validator {
	t.Helper()
	v, err := validator.NewDefaultValidator()
	require.NoError(t, err)
	return v
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T {
	return &v
}

// fakeDB runs transactions inline against the in-memory repositories.
type fakeDB struct {
	db.DB
}

func (f fakeDB) WithTx(_ context.Context, fn func(db.DB) error) error {
	return fn(f)
}

func paginate[T any](items []T, page pagination.Params) ([]T, int) {
	total := len(items)
	start := min(page.Offset(), total)
	end := min(start+page.Limit(), total)
	return items[start:end], total
}

type fakeVendedorRepo struct {
	items []model.Vendedor
}

func (r *fakeVendedorRepo) WithDB(db.DB) repository.VendedorRepository { return r }

func (r *fakeVendedorRepo) FindByID(_ context.Context, id uuid.UUID) (model.Vendedor, error) {
	for _, v := range r.items {
		if v.ID == id {
			return v, nil
		}
	}
	return model.Vendedor{}, repository.ErrNotFound
}

func (r *fakeVendedorRepo) FindByCorreo(_ context.Context, correo string) (model.Vendedor, error) {
	for _, v := range r.items {
		if v.Correo == correo {
			return v, nil
		}
	}
	return model.Vendedor{}, repository.ErrNotFound
}

func (r *fakeVendedorRepo) ListPage(_ context.Context, params repository.ListVendedoresParams) ([]model.Vendedor, int, error) {
	var out []model.Vendedor
	for _, v := range r.items {
		if params.Zona != nil && (v.Zona == nil || !strings.EqualFold(*v.Zona, *params.Zona)) {
			continue
		}
		if params.Estado != nil && v.Estado != *params.Estado {
			continue
		}
		out = append(out, v)
	}
	items, total := paginate(out, params.Page)
	return items, total, nil
}

func (r *fakeVendedorRepo) Insert(_ context.Context, v model.Vendedor) error {
	if _, err := r.FindByCorreo(context.Background(), v.Correo); err == nil {
		return repository.DuplicateKeyError{Constraint: "vendedores_correo_key"}
	}
	r.items = append(r.items, v)
	return nil
}

func (r *fakeVendedorRepo) Update(_ context.Context, v model.Vendedor) error {
	for i := range r.items {
		if r.items[i].ID == v.ID {
			r.items[i] = v
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakePlanVentaRepo struct {
	items []model.PlanVenta
}

func (r *fakePlanVentaRepo) WithDB(db.DB) repository.PlanVentaRepository { return r }

func (r *fakePlanVentaRepo) FindByVendedorPeriodo(_ context.Context, vendedorID uuid.UUID, periodo string) (model.PlanVenta, error) {
	for _, p := range r.items {
		if p.VendedorID == vendedorID && p.Periodo == periodo {
			return p, nil
		}
	}
	return model.PlanVenta{}, repository.ErrNotFound
}

func (r *fakePlanVentaRepo) ListPage(_ context.Context, params repository.ListPlanesVentaParams) ([]model.PlanVenta, int, error) {
	var out []model.PlanVenta
	for _, p := range r.items {
		if params.VendedorID != nil && p.VendedorID != *params.VendedorID {
			continue
		}
		if params.Periodo != nil && p.Periodo != *params.Periodo {
			continue
		}
		out = append(out, p)
	}
	items, total := paginate(out, params.Page)
	return items, total, nil
}

func (r *fakePlanVentaRepo) Insert(ctx context.Context, p model.PlanVenta) error {
	if _, err := r.FindByVendedorPeriodo(ctx, p.VendedorID, p.Periodo); err == nil {
		return repository.DuplicateKeyError{Constraint: "planes_venta_vendedor_id_periodo_key"}
	}
	r.items = append(r.items, p)
	return nil
}

func (r *fakePlanVentaRepo) Update(_ context.Context, p model.PlanVenta) error {
	for i := range r.items {
		if r.items[i].ID == p.ID {
			r.items[i] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeAsignacionRepo struct {
	items []model.AsignacionZona
}

func (r *fakeAsignacionRepo) WithDB(db.DB) repository.AsignacionZonaRepository { return r }

func (r *fakeAsignacionRepo) FindByID(_ context.Context, id uuid.UUID) (model.AsignacionZona, error) {
	for _, a := range r.items {
		if a.ID == id {
			return a, nil
		}
	}
	return model.AsignacionZona{}, repository.ErrNotFound
}

func (r *fakeAsignacionRepo) ListPage(_ context.Context, params repository.ListAsignacionesParams) ([]model.AsignacionZona, int, error) {
	var out []model.AsignacionZona
	for _, a := range r.items {
		if params.VendedorID != nil && a.VendedorID != *params.VendedorID {
			continue
		}
		if params.Activa != nil && a.Activa != *params.Activa {
			continue
		}
		out = append(out, a)
	}
	items, total := paginate(out, params.Page)
	return items, total, nil
}

func (r *fakeAsignacionRepo) Insert(_ context.Context, a model.AsignacionZona) error {
	r.items = append(r.items, a)
	return nil
}

func (r *fakeAsignacionRepo) Update(_ context.Context, a model.AsignacionZona) error {
	for i := range r.items {
		if r.items[i].ID == a.ID {
			r.items[i] = a
			return nil
		}
	}
	return repository.ErrNotFound
}

type fakeProductoRepo struct {
	items []model.Producto
	certs []model.Certificacion
	// insertErr, when set, fails every Insert.
	insertErr error
}

func (r *fakeProductoRepo) WithDB(db.DB) repository.ProductoRepository { return r }

func (r *fakeProductoRepo) FindByID(_ context.Context, id uuid.UUID) (model.Producto, error) {
	for _, p := range r.items {
		if p.ID == id {
			return p, nil
		}
	}
	return model.Producto{}, repository.ErrNotFound
}

func (r *fakeProductoRepo) FindBySKU(_ context.Context, sku string) (model.Producto, error) {
	for _, p := range r.items {
		if p.CodigoSKU == sku {
			return p, nil
		}
	}
	return model.Producto{}, repository.ErrNotFound
}

func (r *fakeProductoRepo) ListPage(_ context.Context, params repository.ListProductosParams) ([]model.Producto, int, error) {
	var out []model.Producto
	for _, p := range r.items {
		if params.Categoria != nil && p.Categoria != *params.Categoria {
			continue
		}
		if params.ProveedorID != nil && p.ProveedorID != *params.ProveedorID {
			continue
		}
		out = append(out, p)
	}
	items, total := paginate(out, params.Page)
	return items, total, nil
}

func (r *fakeProductoRepo) Insert(ctx context.Context, p model.Producto) error {
	if r.insertErr != nil {
		return r.insertErr
	}
	if _, err := r.FindBySKU(ctx, p.CodigoSKU); err == nil {
		return repository.DuplicateKeyError{Constraint: "productos_codigo_sku_key"}
	}
	r.items = append(r.items, p)
	return nil
}

func (r *fakeProductoRepo) Update(_ context.Context, p model.Producto) error {
	for i := range r.items {
		if r.items[i].ID == p.ID {
			r.items[i] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeProductoRepo) FindCertificacion(_ context.Context, productoID uuid.UUID) (model.Certificacion, error) {
	for _, c := range r.certs {
		if c.PropietarioID == productoID {
			return c, nil
		}
	}
	return model.Certificacion{}, repository.ErrNotFound
}

func (r *fakeProductoRepo) InsertCertificacion(ctx context.Context, c model.Certificacion) error {
	if _, err := r.FindCertificacion(ctx, c.PropietarioID); err == nil {
		return repository.DuplicateKeyError{Constraint: "certificaciones_producto_producto_id_key"}
	}
	r.certs = append(r.certs, c)
	return nil
}

type fakeProveedorRepo struct {
	items []model.Proveedor
	certs []model.Certificacion
	// insertCertErr, when set, fails every InsertCertificacion.
	insertCertErr error
}

func (r *fakeProveedorRepo) WithDB(db.DB) repository.ProveedorRepository { return r }

func (r *fakeProveedorRepo) FindByID(_ context.Context, id uuid.UUID) (model.Proveedor, error) {
	for _, p := range r.items {
		if p.ID == id {
			return r.withCount(p), nil
		}
	}
	return model.Proveedor{}, repository.ErrNotFound
}

func (r *fakeProveedorRepo) FindByNit(_ context.Context, nit string) (model.Proveedor, error) {
	for _, p := range r.items {
		if p.Nit == nit {
			return r.withCount(p), nil
		}
	}
	return model.Proveedor{}, repository.ErrNotFound
}

func (r *fakeProveedorRepo) withCount(p model.Proveedor) model.Proveedor {
	p.TotalCertificaciones = 0
	for _, c := range r.certs {
		if c.PropietarioID == p.ID {
			p.TotalCertificaciones++
		}
	}
	p.EstadoCertificacion = model.EstadoCertificacionFor(p.TotalCertificaciones)
	return p
}

func (r *fakeProveedorRepo) ListPage(_ context.Context, params repository.ListProveedoresParams) ([]model.Proveedor, int, error) {
	var out []model.Proveedor
	for _, p := range r.items {
		p = r.withCount(p)
		if params.Pais != nil && !strings.EqualFold(p.Pais, *params.Pais) {
			continue
		}
		if params.EstadoCertificacion != nil && p.EstadoCertificacion != *params.EstadoCertificacion {
			continue
		}
		out = append(out, p)
	}
	slices.SortFunc(out, func(a, b model.Proveedor) int { return strings.Compare(a.Nombre, b.Nombre) })
	items, total := paginate(out, params.Page)
	return items, total, nil
}

func (r *fakeProveedorRepo) Insert(ctx context.Context, p model.Proveedor) error {
	if _, err := r.FindByNit(ctx, p.Nit); err == nil {
		return repository.DuplicateKeyError{Constraint: "proveedores_nit_key"}
	}
	r.items = append(r.items, p)
	return nil
}

func (r *fakeProveedorRepo) Update(_ context.Context, p model.Proveedor) error {
	for i := range r.items {
		if r.items[i].ID == p.ID {
			r.items[i] = p
			return nil
		}
	}
	return repository.ErrNotFound
}

func (r *fakeProveedorRepo) ListCertificaciones(_ context.Context, proveedorID uuid.UUID) ([]model.Certificacion, error) {
	out := []model.Certificacion{}
	for _, c := range r.certs {
		if c.PropietarioID == proveedorID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeProveedorRepo) InsertCertificacion(_ context.Context, c model.Certificacion) error {
	if r.insertCertErr != nil {
		return r.insertCertErr
	}
	r.certs = append(r.certs, c)
	return nil
}

type fakeUserRepo struct {
	items []model.User
}

func (r *fakeUserRepo) WithDB(db.DB) repository.UserRepository { return r }

func (r *fakeUserRepo) FindByID(_ context.Context, id uuid.UUID) (model.User, error) {
	for _, u := range r.items {
		if u.ID == id {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, email string) (model.User, error) {
	for _, u := range r.items {
		if u.Email == email {
			return u, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}

func (r *fakeUserRepo) Insert(ctx context.Context, u model.User) error {
	if _, err := r.FindByEmail(ctx, u.Email); err == nil {
		return repository.DuplicateKeyError{Constraint: "users_email_key"}
	}
	r.items = append(r.items, u)
	return nil
}

type fakeImportJobRepo struct {
	jobs map[uuid.UUID]model.ImportJob
	// updates records every persisted state, in order.
	updates []model.ImportJob
}

func newFakeImportJobRepo() *fakeImportJobRepo {
	return &fakeImportJobRepo{jobs: map[uuid.UUID]model.ImportJob{}}
}

func (r *fakeImportJobRepo) WithDB(db.DB) repository.ImportJobRepository { return r }

func (r *fakeImportJobRepo) FindByID(_ context.Context, id uuid.UUID) (model.ImportJob, error) {
	job, ok := r.jobs[id]
	if !ok {
		return model.ImportJob{}, repository.ErrNotFound
	}
	return job, nil
}

func (r *fakeImportJobRepo) Insert(_ context.Context, job model.ImportJob) error {
	r.jobs[job.ID] = job
	return nil
}

func (r *fakeImportJobRepo) Update(_ context.Context, job model.ImportJob) error {
	if _, ok := r.jobs[job.ID]; !ok {
		return repository.ErrNotFound
	}
	job.DetallesErrores = slices.Clone(job.DetallesErrores)
	r.jobs[job.ID] = job
	r.updates = append(r.updates, job)
	return nil
}

type fakeOutboxMsgRepo struct {
	msgs []repository.CreateOutboxMsgParams
	err  error
}

func (r *fakeOutboxMsgRepo) WithDB(db.DB) repository.OutboxMsgRepository { return r }

func (r *fakeOutboxMsgRepo) CreateOutboxMsg(_ context.Context, params repository.CreateOutboxMsgParams) error {
	if r.err != nil {
		return r.err
	}
	r.msgs = append(r.msgs, params)
	return nil
}

func (r *fakeOutboxMsgRepo) ListUnprocessedOutboxMsgs(context.Context, repository.ListUnprocessedOutboxMsgsParams) ([]repository.ListUnprocessedOutboxMsgsResult, error) {
	return nil, errors.New("not implemented")
}

func (r *fakeOutboxMsgRepo) BulkUpdateOutboxMsgs(context.Context, repository.BulkUpdateOutboxMsgsParams) error {
	return errors.New("not implemented")
}

func newBlobStore(t *testing.T) blob.Store {
	t.Helper()
	store, err := blob.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return store
}

// recordingStore wraps a store and remembers the keys written and deleted.
type recordingStore struct {
	blob.Store
	puts    []string
	deletes []string
}

func (s *recordingStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	s.puts = append(s.puts, key)
	return s.Store.Put(ctx, key, r, size, contentType)
}

func (s *recordingStore) Delete(ctx context.Context, key string) error {
	s.deletes = append(s.deletes, key)
	return s.Store.Delete(ctx, key)
}
