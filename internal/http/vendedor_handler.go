package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tuanvumaihuynh/medsupply/internal/service"
)

type vendedorHandler struct {
	logger        *slog.Logger
	vendedorSvc   service.VendedorService
	planVentaSvc  service.PlanVentaService
	asignacionSvc service.AsignacionService
}

// VendedorRoutes serves vendedores, their planes de venta and their zone
// assignments.
func VendedorRoutes(
	logger *slog.Logger,
	vendedorSvc service.VendedorService,
	planVentaSvc service.PlanVentaService,
	asignacionSvc service.AsignacionService,
) RouteFunc {
	h := &vendedorHandler{
		logger:        logger.With(slog.String("handler", "vendedor")),
		vendedorSvc:   vendedorSvc,
		planVentaSvc:  planVentaSvc,
		asignacionSvc: asignacionSvc,
	}

	return func(r chi.Router) {
		r.Route("/vendedores", func(r chi.Router) {
			r.Get("/health", entityHealth(h.logger, "vendedores"))
			r.Post("/", handle(h.logger, h.create))
			r.Get("/", handle(h.logger, h.list))
			r.Get("/{id}", handle(h.logger, h.get))
			r.Patch("/{id}", handle(h.logger, h.update))
			r.Post("/{id}/asignaciones", handle(h.logger, h.createAsignacion))
		})

		r.Get("/asignaciones", handle(h.logger, h.listAsignaciones))
		r.Patch("/asignaciones/{id}/cerrar", handle(h.logger, h.cerrarAsignacion))

		r.Post("/planes-venta", handle(h.logger, h.upsertPlanVenta))
		r.Get("/planes-venta", handle(h.logger, h.listPlanesVenta))
	}
}

func (h *vendedorHandler) create(w http.ResponseWriter, r *http.Request) error {
	var params service.CreateVendedorParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	vendedor, err := h.vendedorSvc.Create(r.Context(), params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, vendedor)
}

func (h *vendedorHandler) get(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	vendedor, err := h.vendedorSvc.Get(r.Context(), id)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, vendedor)
}

func (h *vendedorHandler) update(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var params service.UpdateVendedorParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	vendedor, err := h.vendedorSvc.Update(r.Context(), id, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, vendedor)
}

func (h *vendedorHandler) list(w http.ResponseWriter, r *http.Request) error {
	var params service.ListVendedoresParams
	if err := (query{
		"zona":   &params.Zona,
		"estado": &params.Estado,
		"page":   &params.Page,
		"size":   &params.Size,
	}).bind(r); err != nil {
		return err
	}

	page, err := h.vendedorSvc.List(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, page)
}

func (h *vendedorHandler) createAsignacion(w http.ResponseWriter, r *http.Request) error {
	vendedorID, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	var params service.CreateAsignacionParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	asignacion, err := h.asignacionSvc.Create(r.Context(), vendedorID, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusCreated, asignacion)
}

func (h *vendedorHandler) cerrarAsignacion(w http.ResponseWriter, r *http.Request) error {
	id, err := pathUUID(r, "id")
	if err != nil {
		return err
	}

	// The body is optional.
	var params service.CerrarAsignacionParams
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &params); err != nil {
			return err
		}
	}

	asignacion, err := h.asignacionSvc.Cerrar(r.Context(), id, params, actor(r))
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, asignacion)
}

func (h *vendedorHandler) listAsignaciones(w http.ResponseWriter, r *http.Request) error {
	var params service.ListAsignacionesParams
	if err := (query{
		"vendedor_id": &params.VendedorID,
		"zona":        &params.Zona,
		"activa":      &params.Activa,
		"page":        &params.Page,
		"size":        &params.Size,
	}).bind(r); err != nil {
		return err
	}

	page, err := h.asignacionSvc.List(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, page)
}

func (h *vendedorHandler) upsertPlanVenta(w http.ResponseWriter, r *http.Request) error {
	var params service.UpsertPlanVentaParams
	if err := decodeJSON(w, r, &params); err != nil {
		return err
	}

	plan, created, err := h.planVentaSvc.Upsert(r.Context(), params, actor(r))
	if err != nil {
		return err
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	return writeJSON(w, status, plan)
}

func (h *vendedorHandler) listPlanesVenta(w http.ResponseWriter, r *http.Request) error {
	var params service.ListPlanesVentaParams
	if err := (query{
		"vendedor_id": &params.VendedorID,
		"periodo":     &params.Periodo,
		"page":        &params.Page,
		"size":        &params.Size,
	}).bind(r); err != nil {
		return err
	}

	page, err := h.planVentaSvc.List(r.Context(), params)
	if err != nil {
		return err
	}

	return writeJSON(w, http.StatusOK, page)
}
