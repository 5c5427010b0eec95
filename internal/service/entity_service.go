package service

import (
	"context"
	"log/slog"

	"microservices-demo/internal/events"
	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"
	"microservices-demo/internal/repository"

	"go.opentelemetry.io/otel"
)

var EntityServiceTracer = otel.Tracer("EntityService")

const StatusHealthy = "healthy"

type ServiceHealth struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// EntityService is the list/get/create surface shared by the User and
// Product services. It does no validation.
type EntityService[T model.Entity[T]] struct {
	name      string
	kind      string
	store     repository.Store[T]
	publisher events.Publisher
}

func NewEntityService[T model.Entity[T]](name, kind string, store repository.Store[T], publisher events.Publisher) *EntityService[T] {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &EntityService[T]{
		name:      name,
		kind:      kind,
		store:     store,
		publisher: publisher,
	}
}

func NewUserService(store repository.Store[model.User], publisher events.Publisher) *EntityService[model.User] {
	return NewEntityService("UserService", "user", store, publisher)
}

func NewProductService(store repository.Store[model.Product], publisher events.Publisher) *EntityService[model.Product] {
	return NewEntityService("ProductService", "product", store, publisher)
}

func (s *EntityService[T]) Name() string {
	return s.name
}

func (s *EntityService[T]) ListAll(ctx context.Context) ([]T, error) {
	ctx, span := EntityServiceTracer.Start(ctx, s.name+".ListAll")
	defer span.End()

	return s.store.List(ctx)
}

func (s *EntityService[T]) GetByID(ctx context.Context, id int) (T, error) {
	ctx, span := EntityServiceTracer.Start(ctx, s.name+".GetByID")
	defer span.End()

	return s.store.Get(ctx, id)
}

// Create stores candidate under a fresh id. A failed event publish is logged
// and does not fail the create.
func (s *EntityService[T]) Create(ctx context.Context, candidate T) (T, error) {
	ctx, span := EntityServiceTracer.Start(ctx, s.name+".Create")
	defer span.End()

	created, err := s.store.Create(ctx, candidate)
	if err != nil {
		return created, err
	}

	logger.Info(ctx, "Entity created", slog.String("service", s.name), slog.Int("id", created.GetID()))

	if err := s.publisher.Publish(ctx, events.NewEvent(s.kind, "created", s.name, created)); err != nil {
		logger.Warn(ctx, "Failed to publish event", slog.String("service", s.name), slog.String("error", err.Error()))
	}
	return created, nil
}

func (s *EntityService[T]) HealthCheck() ServiceHealth {
	return ServiceHealth{Status: StatusHealthy, Service: s.name}
}
