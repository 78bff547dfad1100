package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Vendedor struct {
	ID             uuid.UUID `json:"id"`
	Nombre         string    `json:"nombre"`
	Apellidos      string    `json:"apellidos"`
	Correo         string    `json:"correo"`
	Celular        string    `json:"celular"`
	Identificacion *string   `json:"identificacion"`
	Zona           *string   `json:"zona"`
	Estado         Estado    `json:"estado"`
	Audit
}

// PlanVenta is the monthly sales target of a vendedor. There is at most one
// plan per vendedor and periodo.
type PlanVenta struct {
	ID              uuid.UUID       `json:"id"`
	VendedorID      uuid.UUID       `json:"vendedor_id"`
	Periodo         string          `json:"periodo"`
	ObjetivoMensual decimal.Decimal `json:"objetivo_mensual"`
	MetaUnidades    *int            `json:"meta_unidades"`
	Estado          Estado          `json:"estado"`
	Audit
}

// AsignacionZona assigns a vendedor to a zona for a period of time.
type AsignacionZona struct {
	ID           uuid.UUID `json:"id"`
	VendedorID   uuid.UUID `json:"vendedor_id"`
	Zona         string    `json:"zona"`
	VigenteDesde Date      `json:"vigente_desde"`
	VigenteHasta *Date     `json:"vigente_hasta"`
	Activa       bool      `json:"activa"`
	Audit
}
