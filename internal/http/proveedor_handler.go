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

type proveedorHandler struct {
	logger       *slog.Logger
	proveedorSvc service.ProveedorService
	certPolicy   upload.Policy
}

func ProveedorRoutes(logger *slog.Logger, proveedorSvc service.ProveedorService, maxUploadBytes int64) RouteFunc {
	h := &proveedorHandler{
		logger:       logger.With(slog.String("handler", "proveedor")),
		proveedorSvc: proveedorSvc,
		certPolicy:   upload.CertificacionPolicy(maxUploadBytes),
	}

	return func(r chi.Router) {
		r.Route("/proveedores", func(r chi.Router) {
			r.Get("/health", entityHealth(h.logger, "proveedores"))
			r.Post("/", handle(h.logger, h.create))
			r.Get("/", handle(h.logger, h.list))
			r.Get("/{id}", handle(h.logger, h.get))
			r.Patch("/{id}", handle(h.logger, h.update))
			r.Patch("/{id}/estado", handle(h.logger, h.cambiarEstado))
			r.Post("/{id}/certificaciones", handle(h.logger, h.uploadCertificacion))
		})
	}
}

func (h *proveedorHandler) create(w http.ResponseWriter, r *http.Request) error {
	var params service.CreateProveedorParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	proveedor, err := h.proveedorSvc.Create(r.Context(), params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, proveedor)
}

func (h *proveedorHandler) get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	proveedor, err := h.proveedorSvc.Get(r.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, proveedor)
}

func (h *proveedorHandler) update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var params service.UpdateProveedorParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	proveedor, err := h.proveedorSvc.Update(r.Context(), id, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, proveedor)
}

func (h *proveedorHandler) cambiarEstado(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var params service.CambiarEstadoProveedorParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	proveedor, err := h.proveedorSvc.CambiarEstado(r.Context(), id, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, proveedor)
}

func (h *proveedorHandler) list(w http.ResponseWriter, r *http.Request) error {
	var params service.ListProveedoresParams
	if err := (query{
		"nombre":               &params.Nombre,
		"pais":                 &params.Pais,
		"estado":               &params.Estado,
		"estado_certificacion": &params.EstadoCertificacion,
		"page":                 &params.Page,
		"size":                 &params.Size,
	}).bind(r); err != nil {
		return err
	}

	page, err := h.proveedorSvc.List(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, page)
}

func (h *proveedorHandler) uploadCertificacion(w http.ResponseWriter, r *http.Request) error {
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

	cert, err := h.proveedorSvc.UploadCertificacion(r.Context(), id, service.UploadProveedorCertificacionParams{
		Autoridad:        model.Autoridad(strings.ToUpper(strings.TrimSpace(r.FormValue("autoridad")))),
		FechaVencimiento: fechaVencimiento,
		Archivo:          archivo,
	}, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, cert)
}
