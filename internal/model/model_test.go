package model_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/model"
	"github.com/tuanvumaihuynh/medsupply/pkg/ptr"
)

func TestEnumValidate(t *testing.T) {
	assert.NoError(t, model.EstadoActivo.Validate())
	assert.NoError(t, model.CategoriaReactivo.Validate())
	assert.NoError(t, model.AutoridadINVIMA.Validate())

	assert.Error(t, model.Estado("borrado").Validate())
	assert.Error(t, model.Categoria("").Validate())
	assert.Error(t, model.Autoridad("invima").Validate())
}

func TestEstadoImportacionIsTerminal(t *testing.T) {
	assert.False(t, model.EstadoImportacionEnCola.IsTerminal())
	assert.False(t, model.EstadoImportacionProcesando.IsTerminal())
	assert.True(t, model.EstadoImportacionCompletado.IsTerminal())
	assert.True(t, model.EstadoImportacionFallido.IsTerminal())
}

func TestDayMonthYearJSON(t *testing.T) {
	var d model.DayMonthYear
	require.NoError(t, json.Unmarshal([]byte(`"31/12/2026"`), &d))
	assert.Equal(t, time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), d.Time)

	b, err := json.Marshal(d)
	require.NoError(t, err)
	assert.JSONEq(t, `"31/12/2026"`, string(b))

	assert.Error(t, json.Unmarshal([]byte(`"2026-12-31"`), &d))
}

func TestDateJSON(t *testing.T) {
	var d model.Date
	require.NoError(t, json.Unmarshal([]byte(`"2026-03-01"`), &d))

	b, err := json.Marshal(struct {
		D  model.Date  `json:"d"`
		On *model.Date `json:"on"`
	}{D: d})
	require.NoError(t, err)
	assert.JSONEq(t, `{"d":"2026-03-01","on":null}`, string(b))

	assert.Equal(t, "2026-03-01", model.NewDate(time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)).String())
}

func TestAudit(t *testing.T) {
	created := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	a := model.NewAudit(ptr.New("u1"), created)
	assert.Equal(t, a.FechaCreacion, a.FechaActualizacion)

	a.Touch(ptr.New("u2"), created.Add(time.Minute))
	assert.Equal(t, "u1", *a.CreadoPor)
	assert.Equal(t, "u2", *a.ActualizadoPor)
	assert.True(t, a.FechaActualizacion.After(a.FechaCreacion))
}

func TestImportJobUpdateProgress(t *testing.T) {
	job := model.ImportJob{TotalFilas: 8, FilasProcesadas: 2}
	job.UpdateProgress()
	assert.InDelta(t, 25.0, job.Progreso, 0.001)

	empty := model.ImportJob{}
	empty.UpdateProgress()
	assert.Zero(t, empty.Progreso)
}

func TestEstadoCertificacionFor(t *testing.T) {
	assert.Equal(t, model.EstadoCertificacionSinCertificaciones, model.EstadoCertificacionFor(0))
	assert.Equal(t, model.EstadoCertificacionVigente, model.EstadoCertificacionFor(2))
}
