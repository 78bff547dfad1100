package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
)

func TestInitTracerWithoutCollector(t *testing.T) {
	cleanup, err := InitTracer(context.Background(), config.Otel{ServiceName: "test"})
	require.NoError(t, err)
	assert.NoError(t, cleanup(context.Background()))

	assert.Contains(t, otel.GetTextMapPropagator().Fields(), "traceparent")
}

func TestExporterOptions(t *testing.T) {
	assert.Len(t, exporterOptions(config.Otel{CollectorURL: "otel:4317", Insecure: true}), 2)
	assert.Len(t, exporterOptions(config.Otel{CollectorURL: "otel:4317", CollectorAuth: "Bearer x"}), 3)
}
