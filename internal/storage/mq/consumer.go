package mq

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cenkalti/backoff/v5"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/tuanvumaihuynh/medsupply/internal/config"
	"github.com/tuanvumaihuynh/medsupply/pkg/outbox"
)

type HandlerFunc func(ctx context.Context, topic string, payload []byte) error

type CleanupFunc func()

type Consumer interface {
	RegisterHandler(topic string, handler HandlerFunc) error
	Run(ctx context.Context) (CleanupFunc, error)
}

// Permanent marks a handler error that retrying cannot fix, such as an
// undecodable payload.
func Permanent(err error) error {
	return backoff.Permanent(err)
}

var _ Consumer = (*KafkaConsumer)(nil)

// KafkaConsumer reads the registered topics as part of a consumer group and
// commits offsets only after every record of a poll has been handled.
type KafkaConsumer struct {
	cl       *kgo.Client
	cfg      config.Kafka
	handlers map[string]HandlerFunc
	logger   *slog.Logger
}

func NewKafkaConsumer(ctx context.Context, cfg config.Kafka, logger *slog.Logger) (*KafkaConsumer, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.ClientID(cfg.ClientID),
		kgo.ConsumerGroup(cfg.Group),
		kgo.AllowAutoTopicCreation(),
		kgo.DisableAutoCommit(),
		kgo.WithContext(ctx),
		kgo.WithHooks(kTracer),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ping(ctx, cl); err != nil {
		cl.Close()
		return nil, err
	}

	return &KafkaConsumer{
		cl:       cl,
		cfg:      cfg,
		handlers: make(map[string]HandlerFunc),
		logger:   logger.With(slog.String("component", "kafka_consumer")),
	}, nil
}

func (c *KafkaConsumer) RegisterHandler(topic string, handler HandlerFunc) error {
	if _, exists := c.handlers[topic]; exists {
		return fmt.Errorf("handler for topic %s already registered", topic)
	}

	c.cl.AddConsumeTopics(topic)
	c.handlers[topic] = handler
	return nil
}

func (c *KafkaConsumer) Run(ctx context.Context) (CleanupFunc, error) {
	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	go func() {
		defer close(done)
		for ctx.Err() == nil {
			c.poll(ctx)
		}
	}()

	return func() {
		cancel()
		<-done
		c.cl.Close()
	}, nil
}

func (c *KafkaConsumer) poll(ctx context.Context) {
	fetches := c.cl.PollFetches(ctx)
	if fetches.IsClientClosed() {
		return
	}
	if errs := fetches.Errors(); len(errs) > 0 {
		if errors.Is(errs[0].Err, context.Canceled) {
			return
		}
		c.logger.ErrorContext(ctx, "error fetching messages", slog.Any("error", errs))
		return
	}

	fetches.EachRecord(func(rec *kgo.Record) {
		c.handle(ctx, rec)
	})

	if err := c.cl.CommitUncommittedOffsets(ctx); err != nil {
		c.logger.ErrorContext(ctx, "error committing offsets", slog.Any("error", err))
	}
}

// handle runs the topic handler with retries. A record that still fails is
// logged and skipped so one bad message cannot stall its partition.
func (c *KafkaConsumer) handle(ctx context.Context, rec *kgo.Record) {
	ctx = outbox.ExtractContextFromHeaders(ctx, outbox.RecordHeaders(rec))
	logger := c.logger.With(slog.String("topic", rec.Topic), slog.String("key", string(rec.Key)))

	defer func() {
		if rvr := recover(); rvr != nil {
			span := trace.SpanFromContext(ctx)
			span.RecordError(fmt.Errorf("panic: %v", rvr))
			span.SetStatus(codes.Error, "panic in handler")

			logger.ErrorContext(ctx, "panic in message handler",
				slog.Any("recover", rvr),
				slog.String("stack", string(debug.Stack())),
			)
		}
	}()

	fn, exists := c.handlers[rec.Topic]
	if !exists {
		logger.WarnContext(ctx, "no handler registered for topic")
		return
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.cfg.HandlerBackoff

	attempt := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempt++
		err := fn(ctx, rec.Topic, rec.Value)
		if err != nil {
			logger.WarnContext(ctx, "message handler attempt failed",
				slog.Int("attempt", attempt), slog.Any("error", err))
		}
		return struct{}{}, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(max(c.cfg.HandlerMaxTries, 1)))
	if err != nil {
		logger.ErrorContext(ctx, "error handling message, skipping", slog.Any("error", err))
	}
}

func (c *KafkaConsumer) Close() {
	c.cl.Close()
}
