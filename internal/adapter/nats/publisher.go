package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/Rahima097/find-Roommate-server/internal/platform/logger"
	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("find-roommate-server/nats-publisher")

// Envelope wraps every published event.
type Envelope struct {
	ID         string      `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Payload    interface{} `json:"payload"`
}

func newEnvelope(subject string, payload interface{}) Envelope {
	return Envelope{
		ID:         uuid.NewString(),
		Type:       subject,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}
}

const drainTimeout = 10 * time.Second

type Publisher struct {
	conn   *nats.Conn
	logger *logger.Logger
	// closed is closed by the connection's ClosedHandler, which fires once
	// Drain has flushed everything.
	closed chan struct{}
}

func NewPublisher(url string, timeout time.Duration, log *logger.Logger, appName string) (*Publisher, error) {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}

	closed := make(chan struct{})
	var closeOnce sync.Once

	opts := []nats.Option{
		nats.Name(fmt.Sprintf("%s publisher", appName)),
		nats.Timeout(timeout),
		nats.DrainTimeout(drainTimeout),
		nats.ClosedHandler(func(*nats.Conn) {
			closeOnce.Do(func() { close(closed) })
		}),
		nats.ErrorHandler(func(_ *nats.Conn, sub *nats.Subscription, err error) {
			subject := ""
			if sub != nil {
				subject = sub.Subject
			}
			log.Error("nats error", zap.String("subject", subject), zap.Error(err))
		}),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warn("nats disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info("nats reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	conn, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS at %s: %w", url, err)
	}
	log.Info("connected to nats", zap.String("url", conn.ConnectedUrl()))

	return &Publisher{
		conn:   conn,
		logger: log.Named("NATSPublisher"),
		closed: closed,
	}, nil
}

// Publish sends payload on subject inside an Envelope, carrying the trace
// context of ctx in the message headers.
func (p *Publisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	ctx, span := tracer.Start(ctx, "NATS.Publish "+subject)
	defer span.End()

	env := newEnvelope(subject, payload)
	span.SetAttributes(
		attribute.String("messaging.destination", subject),
		attribute.String("messaging.message_id", env.ID),
	)

	data, err := json.Marshal(env)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "marshal")
		return fmt.Errorf("failed to marshal event for %s: %w", subject, err)
	}

	msg := nats.NewMsg(subject)
	msg.Data = data
	otel.GetTextMapPropagator().Inject(ctx, NATSHeaderCarrier(msg.Header))

	if err := p.conn.PublishMsg(msg); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "publish")
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("event published", zap.String("subject", subject), zap.String("event_id", env.ID), zap.Int("bytes", len(data)))
	return nil
}

// NATSHeaderCarrier adapts nats.Header to propagation.TextMapCarrier.
type NATSHeaderCarrier nats.Header

func (c NATSHeaderCarrier) Get(key string) string {
	return nats.Header(c).Get(key)
}

func (c NATSHeaderCarrier) Set(key string, value string) {
	nats.Header(c).Set(key, value)
}

func (c NATSHeaderCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}

// Close drains the connection and returns once it is closed, so events
// published before shutdown reach the server. It gives up after the drain
// timeout.
func (p *Publisher) Close() {
	if p.conn == nil || p.conn.IsClosed() {
		return
	}
	if err := p.conn.Drain(); err != nil {
		p.logger.Error("failed to drain nats connection", zap.Error(err))
		p.conn.Close()
	}

	select {
	case <-p.closed:
		p.logger.Info("nats connection drained")
	case <-time.After(drainTimeout + time.Second):
		p.logger.Warn("timed out waiting for nats drain", zap.Duration("timeout", drainTimeout))
		p.conn.Close()
	}
}
