package model

import (
	"time"

	"github.com/google/uuid"
)

// Certificacion is a regulatory document attached to a producto or a
// proveedor. It lives and dies with its owner.
type Certificacion struct {
	ID               uuid.UUID `json:"id"`
	PropietarioID    uuid.UUID `json:"propietario_id"`
	Autoridad        Autoridad `json:"autoridad"`
	NombreArchivo    string    `json:"nombre_archivo"`
	ClaveArchivo     string    `json:"-"`
	ContentType      string    `json:"content_type"`
	TamanoBytes      int64     `json:"tamano_bytes"`
	FechaVencimiento *Date     `json:"fecha_vencimiento"`
	FechaSubida      time.Time `json:"fecha_subida"`
	SubidoPor        *string   `json:"subido_por"`
}
