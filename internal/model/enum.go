package model

import (
	"fmt"
	"slices"
)

// Estado is the lifecycle status shared by every entity. Deactivation is the
// only form of removal.
type Estado string

const (
	EstadoActivo   Estado = "activo"
	EstadoInactivo Estado = "inactivo"
)

func (e Estado) Allowed() []string {
	return []string{string(EstadoActivo), string(EstadoInactivo)}
}

func (e Estado) Validate() error {
	return validateEnum("estado", string(e), e.Allowed())
}

// Categoria classifies a producto.
type Categoria string

const (
	CategoriaMedicamento Categoria = "medicamento"
	CategoriaInsumo      Categoria = "insumo"
	CategoriaReactivo    Categoria = "reactivo"
	CategoriaDispositivo Categoria = "dispositivo"
)

func (c Categoria) Allowed() []string {
	return []string{
		string(CategoriaMedicamento),
		string(CategoriaInsumo),
		string(CategoriaReactivo),
		string(CategoriaDispositivo),
	}
}

func (c Categoria) Validate() error {
	return validateEnum("categoria", string(c), c.Allowed())
}

// Autoridad is the regulatory body that issued a certification.
type Autoridad string

const (
	AutoridadINVIMA Autoridad = "INVIMA"
	AutoridadFDA    Autoridad = "FDA"
	AutoridadEMA    Autoridad = "EMA"
)

func (a Autoridad) Allowed() []string {
	return []string{string(AutoridadINVIMA), string(AutoridadFDA), string(AutoridadEMA)}
}

func (a Autoridad) Validate() error {
	return validateEnum("autoridad", string(a), a.Allowed())
}

// EstadoCertificacion summarizes the certifications of a proveedor.
type EstadoCertificacion string

const (
	EstadoCertificacionVigente            EstadoCertificacion = "vigente"
	EstadoCertificacionSinCertificaciones EstadoCertificacion = "sin_certificaciones"
)

func (e EstadoCertificacion) Allowed() []string {
	return []string{string(EstadoCertificacionVigente), string(EstadoCertificacionSinCertificaciones)}
}

func (e EstadoCertificacion) Validate() error {
	return validateEnum("estado_certificacion", string(e), e.Allowed())
}

// EstadoImportacion is the state of a bulk import job.
//
//	EN_COLA -> PROCESANDO -> COMPLETADO
//	                      -> FALLIDO
type EstadoImportacion string

const (
	EstadoImportacionEnCola     EstadoImportacion = "EN_COLA"
	EstadoImportacionProcesando EstadoImportacion = "PROCESANDO"
	EstadoImportacionCompletado EstadoImportacion = "COMPLETADO"
	EstadoImportacionFallido    EstadoImportacion = "FALLIDO"
)

func (e EstadoImportacion) Allowed() []string {
	return []string{
		string(EstadoImportacionEnCola),
		string(EstadoImportacionProcesando),
		string(EstadoImportacionCompletado),
		string(EstadoImportacionFallido),
	}
}

func (e EstadoImportacion) Validate() error {
	return validateEnum("estado", string(e), e.Allowed())
}

// IsTerminal reports whether the job will not change state anymore.
func (e EstadoImportacion) IsTerminal() bool {
	return e == EstadoImportacionCompletado || e == EstadoImportacionFallido
}

func validateEnum(name, value string, allowed []string) error {
	if !slices.Contains(allowed, value) {
		return fmt.Errorf("invalid %s %q, must be one of %v", name, value, allowed)
	}
	return nil
}
