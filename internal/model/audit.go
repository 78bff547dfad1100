package model

import "time"

// Audit records who created and last modified a record and when.
// FechaActualizacion is never before FechaCreacion.
type Audit struct {
	CreadoPor          *string   `json:"creado_por"`
	FechaCreacion      time.Time `json:"fecha_creacion"`
	ActualizadoPor     *string   `json:"actualizado_por"`
	FechaActualizacion time.Time `json:"fecha_actualizacion"`
}

// NewAudit stamps a freshly created record.
func NewAudit(actor *string, now time.Time) Audit {
	return Audit{
		CreadoPor:          actor,
		FechaCreacion:      now,
		ActualizadoPor:     actor,
		FechaActualizacion: now,
	}
}

// Touch re-stamps the update fields.
func (a *Audit) Touch(actor *string, now time.Time) {
	a.ActualizadoPor = actor
	a.FechaActualizacion = now
}
