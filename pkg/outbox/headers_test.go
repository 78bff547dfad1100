package outbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/tuanvumaihuynh/medsupply/pkg/correlationid"
)

func TestHeadersRoundTrip(t *testing.T) {
	ctx := correlationid.NewContext(context.Background(), "corr-1")

	headers := BuildHeaders(ctx)
	assert.Equal(t, "corr-1", headers[correlationid.Header])

	rec := &kgo.Record{}
	for k, v := range headers {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: k, Value: []byte(v)})
	}

	got, ok := correlationid.FromContext(ExtractContextFromHeaders(context.Background(), RecordHeaders(rec)))
	assert.True(t, ok)
	assert.Equal(t, "corr-1", got)
}

func TestBuildHeaders_WithoutCorrelationID(t *testing.T) {
	headers := BuildHeaders(context.Background())
	_, ok := headers[correlationid.Header]
	assert.False(t, ok)
}
