package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	govalidator "github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/medsupply/internal/apperr"
	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/internal/event"
	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/repository"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/blob"
	"github.com/tuanvumaihuynh/medsupply/internal/storage/db"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
	"github.com/tuanvumaihuynh/medsupply/pkg/outbox"
	"github.com/tuanvumaihuynh/medsupply/pkg/validator"
	"github.com/tuanvumaihuynh/medsupply/pkg/zerror"
)

// Columns every import CSV must carry, in any order.
var importColumns = []string{
	"nombre",
	"codigo_sku",
	"categoria",
	"precio_unitario",
	"condiciones_almacenamiento",
	"fecha_vencimiento",
	"proveedor_id",
}

type ImportacionService interface {
	// Enqueue stores the CSV and queues an import job for the worker.
	Enqueue(ctx context.Context, archivo upload.File, actor *string) (model.ImportJob, error)
	Get(ctx context.Context, id uuid.UUID) (model.ImportJob, error)
	// Process creates one producto per CSV row, recording per-row failures on
	// the job.
	Process(ctx context.Context, id uuid.UUID) error
}

type importacionService struct {
	cfg           config.Import
	db            db.DB
	logger        *slog.Logger
	validator     validator.Validator
	clock         Clock
	blobStore     blob.Store
	productoSvc   ProductoService
	importJobRepo repository.ImportJobRepository
	outboxMsgRepo repository.OutboxMsgRepository
}

func NewImportacionService(
	cfg config.Import,
	db db.DB,
	logger *slog.Logger,
	validator validator.Validator,
	clock Clock,
	blobStore blob.Store,
	productoSvc ProductoService,
	importJobRepo repository.ImportJobRepository,
	outboxMsgRepo repository.OutboxMsgRepository,
) ImportacionService {
	return &importacionService{
		cfg:           cfg,
		db:            db,
		logger:        logger.With(slog.String("service", "importacion")),
		validator:     validator,
		clock:         clock,
		blobStore:     blobStore,
		productoSvc:   productoSvc,
		importJobRepo: importJobRepo,
		outboxMsgRepo: outboxMsgRepo,
	}
}

func (s *importacionService) Enqueue(ctx context.Context, archivo upload.File, actor *string) (model.ImportJob, error) {
	id, err := newID()
	if err != nil {
		return model.ImportJob{}, err
	}

	now := stamp(s.clock)
	job := model.ImportJob{
		ID:              id,
		NombreArchivo:   archivo.Name,
		ClaveArchivo:    fmt.Sprintf("importaciones/%s%s", id, archivo.Ext),
		Estado:          model.EstadoImportacionEnCola,
		DetallesErrores: []model.ImportRowError{},
		UsuarioRegistro: actor,
		FechaCreacion:   now,
	}

	evBytes, err := json.Marshal(event.ProductoImportRequestedEvent{JobID: job.ID})
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("marshal event: %w", err)
	}

	if err := s.blobStore.Put(ctx, job.ClaveArchivo, archivo.Reader(), archivo.Size(), archivo.ContentType); err != nil {
		return model.ImportJob{}, fmt.Errorf("blob store put: %w", err)
	}

	partitionKey := job.ID.String()
	if err := s.db.WithTx(ctx, func(db db.DB) error {
		if err := s.importJobRepo.WithDB(db).Insert(ctx, job); err != nil {
			return fmt.Errorf("import job repository insert: %w", err)
		}

		if err := s.outboxMsgRepo.
			WithDB(db).
			CreateOutboxMsg(ctx, repository.CreateOutboxMsgParams{
				Topic:        event.TopicProductoImportRequested,
				Headers:      outbox.BuildHeaders(ctx),
				Payload:      evBytes,
				PartitionKey: &partitionKey,
				CreatedAt:    now,
			}); err != nil {
			return fmt.Errorf("outbox msg repository create outbox msg: %w", err)
		}

		return nil
	}); err != nil {
		if delErr := s.blobStore.Delete(ctx, job.ClaveArchivo); delErr != nil {
			s.logger.WarnContext(ctx, "error removing orphan import file",
				slog.String("clave_archivo", job.ClaveArchivo),
				slog.Any("error", delErr))
		}
		return model.ImportJob{}, fmt.Errorf("db with tx: %w", err)
	}

	return job, nil
}

func (s *importacionService) Get(ctx context.Context, id uuid.UUID) (model.ImportJob, error) {
	job, err := s.importJobRepo.FindByID(ctx, id)
	if err != nil {
		return model.ImportJob{}, fmt.Errorf("import job repository find by id: %w", mapFindErr(err, apperr.ImportJobNotFound))
	}
	return job, nil
}

func (s *importacionService) Process(ctx context.Context, id uuid.UUID) error {
	job, err := s.importJobRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Errorf("import job repository find by id: %w", mapFindErr(err, apperr.ImportJobNotFound))
	}

	logger := s.logger.With(slog.String("job_id", id.String()))
	if job.Estado.IsTerminal() {
		logger.InfoContext(ctx, "import job already finished, skipping", slog.String("estado", string(job.Estado)))
		return nil
	}

	started := stamp(s.clock)
	job.Estado = model.EstadoImportacionProcesando
	job.FechaInicioProceso = &started
	job.TotalFilas, job.FilasProcesadas, job.Exitosos, job.Fallidos = 0, 0, 0, 0
	job.DetallesErrores = []model.ImportRowError{}
	job.UpdateProgress()
	if err := s.importJobRepo.Update(ctx, job); err != nil {
		return fmt.Errorf("import job repository update: %w", err)
	}

	rows, header, err := s.readCSV(ctx, job.ClaveArchivo)
	if err != nil {
		logger.WarnContext(ctx, "import file rejected", slog.Any("error", err))
		return s.finish(ctx, &job, model.EstadoImportacionFallido, err)
	}

	job.TotalFilas = len(rows)
	for i, record := range rows {
		// The header is line 1.
		fila := i + 2
		if rowErr := s.importRow(ctx, header, record, fila, job.UsuarioRegistro); rowErr != nil {
			job.Fallidos++
			if len(job.DetallesErrores) < s.cfg.MaxRowErrors {
				job.DetallesErrores = append(job.DetallesErrores, *rowErr)
			}
		} else {
			job.Exitosos++
		}
		job.FilasProcesadas++

		if s.cfg.ProgressEvery > 0 && job.FilasProcesadas%s.cfg.ProgressEvery == 0 && job.FilasProcesadas < job.TotalFilas {
			job.UpdateProgress()
			if err := s.importJobRepo.Update(ctx, job); err != nil {
				return fmt.Errorf("import job repository update progress: %w", err)
			}
		}
	}

	logger.InfoContext(ctx, "import job processed",
		slog.Int("total", job.TotalFilas),
		slog.Int("exitosos", job.Exitosos),
		slog.Int("fallidos", job.Fallidos))

	return s.finish(ctx, &job, model.EstadoImportacionCompletado, nil)
}

func (s *importacionService) finish(ctx context.Context, job *model.ImportJob, estado model.EstadoImportacion, cause error) error {
	finished := stamp(s.clock)
	job.Estado = estado
	job.FechaFinalizacion = &finished
	if cause != nil {
		msg := importErrorMessage(cause)
		job.MensajeError = &msg
	}
	job.UpdateProgress()
	if estado == model.EstadoImportacionCompletado {
		job.Progreso = 100
	}

	if err := s.importJobRepo.Update(ctx, *job); err != nil {
		return fmt.Errorf("import job repository update: %w", err)
	}
	return nil
}

// readCSV returns the data rows and the column index of every required column.
func (s *importacionService) readCSV(ctx context.Context, key string) ([][]string, map[string]int, error) {
	rc, err := s.blobStore.Get(ctx, key)
	if err != nil {
		return nil, nil, fmt.Errorf("blob store get: %w", err)
	}
	defer rc.Close()

	r := csv.NewReader(rc)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	headerRow, err := r.Read()
	if errors.Is(err, io.EOF) {
		return nil, nil, apperr.ImportCSVInvalido.WithMsg("el archivo CSV está vacío")
	}
	if err != nil {
		return nil, nil, apperr.ImportCSVInvalido.WrapParent(err)
	}

	header := make(map[string]int, len(headerRow))
	for i, col := range headerRow {
		col = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(col, "\ufeff")))
		header[col] = i
	}

	var missing []string
	for _, col := range importColumns {
		if _, ok := header[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, nil, apperr.ImportCSVInvalido.WithMsg(
			"faltan columnas requeridas: " + strings.Join(missing, ", "))
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, nil, apperr.ImportCSVInvalido.WrapParent(err)
	}

	return rows, header, nil
}

// importRow creates the producto of one CSV row. It returns nil on success.
func (s *importacionService) importRow(
	ctx context.Context,
	header map[string]int,
	record []string,
	fila int,
	actor *string,
) *model.ImportRowError {
	get := func(col string) string {
		i := header[col]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	params := CreateProductoParams{
		Nombre:                    get("nombre"),
		CodigoSKU:                 get("codigo_sku"),
		Categoria:                 model.Categoria(strings.ToLower(get("categoria"))),
		CondicionesAlmacenamiento: get("condiciones_almacenamiento"),
	}

	parseErrs := map[string]string{}
	if v := get("precio_unitario"); v != "" {
		precio, err := decimal.NewFromString(v)
		if err != nil {
			parseErrs["precio_unitario"] = "must be a number"
		}
		params.PrecioUnitario = precio
	}
	if v := get("fecha_vencimiento"); v != "" {
		fecha, err := model.ParseDayMonthYear(v)
		if err != nil {
			parseErrs["fecha_vencimiento"] = "must have the format DD/MM/YYYY"
		}
		params.FechaVencimiento = fecha
	}
	if v := get("proveedor_id"); v != "" {
		proveedorID, err := uuid.Parse(v)
		if err != nil {
			parseErrs["proveedor_id"] = "must be a valid UUID"
		}
		params.ProveedorID = proveedorID
	}

	rowErr := &model.ImportRowError{Fila: fila, CodigoSKU: params.CodigoSKU}

	if len(parseErrs) > 0 {
		for _, col := range importColumns {
			if msg, ok := parseErrs[col]; ok {
				rowErr.Errores = append(rowErr.Errores, col+": "+msg)
			}
		}
		for _, msg := range fieldMessages(s.validator.Validate(params)) {
			field, _, _ := strings.Cut(msg, ":")
			if _, dup := parseErrs[field]; !dup {
				rowErr.Errores = append(rowErr.Errores, msg)
			}
		}
		return rowErr
	}

	if _, err := s.productoSvc.Create(ctx, params, actor); err != nil {
		if msgs := fieldMessages(err); len(msgs) > 0 {
			rowErr.Errores = msgs
			return rowErr
		}

		var zErr zerror.ZError
		if errors.As(err, &zErr) {
			rowErr.Errores = []string{zErr.Msg()}
			return rowErr
		}

		s.logger.ErrorContext(ctx, "error importing row", slog.Int("fila", fila), slog.Any("error", err))
		rowErr.Errores = []string{"error interno al crear el producto"}
		return rowErr
	}

	return nil
}

// fieldMessages renders validation errors as "field: message".
func fieldMessages(err error) []string {
	var verrs govalidator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fe.Field()+": "+validator.ValidationErrorMessage(fe))
	}
	return msgs
}

func importErrorMessage(err error) string {
	var zErr zerror.ZError
	if errors.As(err, &zErr) {
		if zErr.Parent() != nil {
			return zErr.Msg() + ": " + zErr.Parent().Error()
		}
		return zErr.Msg()
	}
	if errors.Is(err, blob.ErrNotFound) {
		return "archivo de importación no encontrado"
	}
	return "no se pudo leer el archivo de importación"
}
