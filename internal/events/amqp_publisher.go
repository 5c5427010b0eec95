package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/telemetry"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
)

var PublisherTracer = otel.Tracer("AMQPPublisher")

// AMQPPublisher publishes JSON events to a durable queue on the default exchange.
type AMQPPublisher struct {
	conn  *amqp.Connection
	queue string

	mu sync.Mutex // amqp channels are not safe for concurrent publishing
	ch *amqp.Channel
}

func NewAMQPPublisher(ctx context.Context, uri, queue string) (*AMQPPublisher, error) {
	conn, err := amqp.Dial(uri)
	if err != nil {
		return nil, fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open amqp channel: %w", err)
	}

	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("declare queue %s: %w", queue, err)
	}

	logger.Info(ctx, "AMQP publisher ready", slog.String("queue", q.Name))
	return &AMQPPublisher{conn: conn, ch: ch, queue: q.Name}, nil
}

func (p *AMQPPublisher) Publish(ctx context.Context, ev Event) error {
	ctx, span := PublisherTracer.Start(ctx, "AMQPPublisher.Publish")
	defer span.End()

	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	headers := amqp.Table{}
	otel.GetTextMapPropagator().Inject(ctx, telemetry.AMQPHeaderCarrier(headers))
	if id := logger.RequestIDFrom(ctx); id != "" {
		headers["x-request-id"] = id
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    ev.OccurredAt,
		Type:         ev.Type,
		Headers:      headers,
		Body:         body,
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, "", p.queue, false, false, msg); err != nil {
		return fmt.Errorf("publish %s: %w", ev.Type, err)
	}

	logger.Debug(ctx, "Event published", slog.String("type", ev.Type), slog.String("message_id", msg.MessageId))
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return errors.Join(p.ch.Close(), p.conn.Close())
}
