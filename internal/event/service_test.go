package event

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/medsupply/internal/storage/mq"
)

type fakeConsumer struct {
	handlers map[string]mq.HandlerFunc
	runErr   error
	cleaned  bool
}

func (c *fakeConsumer) RegisterHandler(topic string, handler mq.HandlerFunc) error {
	if c.handlers == nil {
		c.handlers = make(map[string]mq.HandlerFunc)
	}
	c.handlers[topic] = handler
	return nil
}

func (c *fakeConsumer) Run(context.Context) (mq.CleanupFunc, error) {
	if c.runErr != nil {
		return nil, c.runErr
	}
	return func() { c.cleaned = true }, nil
}

type fakeProcessor struct {
	processed []uuid.UUID
	err       error
}

func (p *fakeProcessor) Process(_ context.Context, jobID uuid.UUID) error {
	p.processed = append(p.processed, jobID)
	return p.err
}

func newTestService(c *fakeConsumer, p *fakeProcessor) *Service {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)), c, p)
}

func TestService(t *testing.T) {
	t.Parallel()

	t.Run("Should dispatch import requests to the processor", func(t *testing.T) {
		t.Parallel()

		c := &fakeConsumer{}
		p := &fakeProcessor{}
		cleanup, err := newTestService(c, p).Run(context.Background())
		require.NoError(t, err)

		handler, ok := c.handlers[TopicProductoImportRequested]
		require.True(t, ok)

		jobID := uuid.New()
		err = handler(context.Background(), TopicProductoImportRequested, []byte(`{"job_id":"`+jobID.String()+`"}`))
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{jobID}, p.processed)

		cleanup()
		assert.True(t, c.cleaned)
	})

	t.Run("Should reject a malformed payload", func(t *testing.T) {
		t.Parallel()

		c := &fakeConsumer{}
		p := &fakeProcessor{}
		_, err := newTestService(c, p).Run(context.Background())
		require.NoError(t, err)

		err = c.handlers[TopicProductoImportRequested](context.Background(), TopicProductoImportRequested, []byte("{"))
		require.Error(t, err)
		assert.Empty(t, p.processed)
	})

	t.Run("Should surface processor errors", func(t *testing.T) {
		t.Parallel()

		c := &fakeConsumer{}
		p := &fakeProcessor{err: errors.New("boom")}
		_, err := newTestService(c, p).Run(context.Background())
		require.NoError(t, err)

		err = c.handlers[TopicProductoImportRequested](context.Background(), TopicProductoImportRequested, []byte(`{"job_id":"`+uuid.NewString()+`"}`))
		require.ErrorIs(t, err, p.err)
	})

	t.Run("Should fail when the consumer cannot start", func(t *testing.T) {
		t.Parallel()

		c := &fakeConsumer{runErr: errors.New("no brokers")}
		_, err := newTestService(c, &fakeProcessor{}).Run(context.Background())
		require.ErrorIs(t, err, c.runErr)
	})
}
