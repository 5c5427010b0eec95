package app

import (
	"context"
	"log/slog"

	"microservices-demo/internal/config"
	"microservices-demo/internal/events"
	"microservices-demo/internal/logger"
)

// NewPublisher connects to AMQP_URI when set. Without a broker, or when the
// broker is unreachable, events are dropped.
func NewPublisher(ctx context.Context, cfg *config.Config, res *Resources) events.Publisher {
	if cfg.AmqpURI == "" {
		return events.NopPublisher{}
	}

	pub, err := events.NewAMQPPublisher(ctx, cfg.AmqpURI, cfg.AmqpQueue)
	if err != nil {
		logger.Warn(ctx, "AMQP unavailable, events disabled", slog.String("error", err.Error()))
		return events.NopPublisher{}
	}
	res.add(func(ctx context.Context) {
		if err := pub.Close(); err != nil {
			logger.Warn(ctx, "Failed to close AMQP publisher", slog.String("error", err.Error()))
		}
	})
	return pub
}
