package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Producto struct {
	ID                        uuid.UUID       `json:"id"`
	Nombre                    string          `json:"nombre"`
	CodigoSKU                 string          `json:"codigo_sku"`
	Categoria                 Categoria       `json:"categoria"`
	PrecioUnitario            decimal.Decimal `json:"precio_unitario"`
	CondicionesAlmacenamiento string          `json:"condiciones_almacenamiento"`
	FechaVencimiento          DayMonthYear    `json:"fecha_vencimiento"`
	ProveedorID               uuid.UUID       `json:"proveedor_id"`
	Estado                    Estado          `json:"estado"`
	Certificacion             *Certificacion  `json:"certificacion"`
	Audit
}

// ImportJob tracks a CSV bulk import of productos.
type ImportJob struct {
	ID                 uuid.UUID         `json:"id"`
	NombreArchivo      string            `json:"nombre_archivo"`
	ClaveArchivo       string            `json:"-"`
	Estado             EstadoImportacion `json:"estado"`
	TotalFilas         int               `json:"total_filas"`
	FilasProcesadas    int               `json:"filas_procesadas"`
	Exitosos           int               `json:"exitosos"`
	Fallidos           int               `json:"fallidos"`
	Progreso           float64           `json:"progreso"`
	MensajeError       *string           `json:"mensaje_error"`
	DetallesErrores    []ImportRowError  `json:"detalles_errores"`
	UsuarioRegistro    *string           `json:"usuario_registro"`
	FechaCreacion      time.Time         `json:"fecha_creacion"`
	FechaInicioProceso *time.Time        `json:"fecha_inicio_proceso"`
	FechaFinalizacion  *time.Time        `json:"fecha_finalizacion"`
}

// ImportRowError describes why one CSV row was rejected. Fila is the 1-based
// line number in the file, the header being line 1.
type ImportRowError struct {
	Fila      int      `json:"fila"`
	CodigoSKU string   `json:"codigo_sku,omitempty"`
	Errores   []string `json:"errores"`
}

// UpdateProgress recomputes the progress percentage from the counters.
func (j *ImportJob) UpdateProgress() {
	if j.TotalFilas == 0 {
		j.Progreso = 0
		return
	}
	j.Progreso = float64(j.FilasProcesadas) * 100 / float64(j.TotalFilas)
}
