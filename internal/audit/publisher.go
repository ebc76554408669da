package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/krittapak/catalog-panel/internal/config"
)

var tracer = otel.Tracer("internal/audit")

// Publisher publishes catalog audit events. Publish failures must never be
// surfaced to the panel user; callers log and move on.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

var (
	_ Publisher = (*KafkaPublisher)(nil)
	_ Publisher = NopPublisher{}
)

type KafkaPublisher struct {
	cl *kgo.Client
}

func NewKafkaPublisher(ctx context.Context, cfg config.AuditKafka) (*KafkaPublisher, error) {
	cl, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Addresses...),
		kgo.ClientID(cfg.ClientID),
		kgo.AllowAutoTopicCreation(),
		kgo.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := cl.Ping(pingCtx); err != nil {
		cl.Close()
		return nil, fmt.Errorf("ping kafka: %w", err)
	}

	return &KafkaPublisher{cl: cl}, nil
}

func (p *KafkaPublisher) Publish(ctx context.Context, ev Event) error {
	ctx, span := tracer.Start(ctx, "KafkaPublisher.Publish",
		trace.WithAttributes(
			attribute.String("topic", ev.Topic),
			attribute.String("product_code", ev.ProductCode),
		),
	)
	defer span.End()

	var msgErr error
	doneChan := make(chan struct{})
	promise := func(r *kgo.Record, err error) {
		msgErr = err
		close(doneChan)
	}

	record := &kgo.Record{
		Topic: ev.Topic,
		Key:   []byte(ev.ProductCode),
		Value: ev.Payload,
	}
	p.cl.Produce(ctx, record, promise)

	waitForProduce := func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-doneChan:
			return msgErr
		}
	}

	if err := waitForProduce(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to publish audit event")
		return err
	}

	span.SetStatus(codes.Ok, "")
	return nil
}

func (p *KafkaPublisher) Close() {
	p.cl.Close()
}

// NopPublisher discards audit events. Used when no brokers are configured.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
