package model

import "github.com/google/uuid"

type Proveedor struct {
	ID                   uuid.UUID           `json:"id"`
	Nombre               string              `json:"nombre"`
	Nit                  string              `json:"nit"`
	Pais                 string              `json:"pais"`
	Direccion            string              `json:"direccion"`
	NombreContacto       string              `json:"nombre_contacto"`
	Email                string              `json:"email"`
	Telefono             string              `json:"telefono"`
	Estado               Estado              `json:"estado"`
	EstadoCertificacion  EstadoCertificacion `json:"estado_certificacion"`
	TotalCertificaciones int                 `json:"total_certificaciones"`
	Certificaciones      []Certificacion     `json:"certificaciones,omitempty"`
	Audit
}

// EstadoCertificacionFor derives the certification summary from a count.
func EstadoCertificacionFor(total int) EstadoCertificacion {
	if total > 0 {
		return EstadoCertificacionVigente
	}
	return EstadoCertificacionSinCertificaciones
}
