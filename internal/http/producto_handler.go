package http

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/internal/service"
	"github.com/tuanvumaihuynh/medsupply/internal/upload"
)

type productoHandler struct {
	logger         *slog.Logger
	productoSvc    service.ProductoService
	importacionSvc service.ImportacionService
	certPolicy     upload.Policy
	csvPolicy      upload.Policy
}

// ProductoRoutes serves productos, their certification and CSV imports.
// maxUploadBytes bounds every uploaded file.
func ProductoRoutes(
	logger *slog.Logger,
	productoSvc service.ProductoService,
	importacionSvc service.ImportacionService,
	maxUploadBytes int64,
) RouteFunc {
	h := &productoHandler{
		logger:         logger.With(slog.String("handler", "producto")),
		productoSvc:    productoSvc,
		importacionSvc: importacionSvc,
		certPolicy:     upload.CertificacionPolicy(maxUploadBytes),
		csvPolicy:      upload.CSVPolicy(maxUploadBytes),
	}

	return func(r chi.Router) {
		r.Route("/productos", func(r chi.Router) {
			r.Get("/health", entityHealth(h.logger, "productos"))
			r.Post("/", handle(h.logger, h.create))
			r.Get("/", handle(h.logger, h.list))
			r.Post("/importaciones", handle(h.logger, h.enqueueImport))
			r.Get("/importaciones/{id}", handle(h.logger, h.getImport))
			r.Get("/{id}", handle(h.logger, h.get))
			r.Patch("/{id}", handle(h.logger, h.update))
			r.Post("/{id}/certificacion", handle(h.logger, h.uploadCertificacion))
		})
	}
}

func (h *productoHandler) create(w http.ResponseWriter, r *http.Request) error {
	var params service.CreateProductoParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	producto, err := h.productoSvc.Create(r.Context(), params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, producto)
}

func (h *productoHandler) get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	producto, err := h.productoSvc.Get(r.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, producto)
}

func (h *productoHandler) update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var params service.UpdateProductoParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	producto, err := h.productoSvc.Update(r.Context(), id, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, producto)
}

func (h *productoHandler) list(w http.ResponseWriter, r *http.Request) error {
	var params service.ListProductosParams
	if err := (query{
		"nombre":       &params.Nombre,
		"categoria":    &params.Categoria,
		"estado":       &params.Estado,
		"proveedor_id": &params.ProveedorID,
		"page":         &params.Page,
		"size":         &params.Size,
	}).bind(r); err != nil {
		return err
	}

	page, err := h.productoSvc.List(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, page)
}

func (h *productoHandler) uploadCertificacion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	archivo, err := readUpload(w, r, h.certPolicy, "archivo")
	if err != nil {
		return err
	}

	fechaVencimiento, err := formDate(r, "fecha_vencimiento")
	if err != nil {
		return err
	}

	cert, err := h.productoSvc.UploadCertificacion(r.Context(), id, service.UploadProductoCertificacionParams{
		Autoridad:        model.Autoridad(strings.ToUpper(strings.TrimSpace(r.FormValue("autoridad")))),
		FechaVencimiento: fechaVencimiento,
		Archivo:          archivo,
	}, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, cert)
}

func (h *productoHandler) enqueueImport(w http.ResponseWriter, r *http.Request) error {
	archivo, err := readUpload(w, r, h.csvPolicy, "archivo")
	if err != nil {
		return err
	}

	job, err := h.importacionSvc.Enqueue(r.Context(), archivo, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusAccepted, job)
}

func (h *productoHandler) getImport(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	job, err := h.importacionSvc.Get(r.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, job)
}
