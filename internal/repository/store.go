package repository

import (
	"context"
	"errors"

	"microservices-demo/internal/model"

	"go.opentelemetry.io/otel"
)

// ErrNotFound is returned when no record has the requested id.
var ErrNotFound = errors.New("entity not found")

var RepositoryTracer = otel.Tracer("Repository")

// Store owns one collection of entities. Implementations assign ids on Create,
// ignoring whatever id the candidate carries.
type Store[T model.Entity[T]] interface {
	List(ctx context.Context) ([]T, error)
	Get(ctx context.Context, id int) (T, error)
	Create(ctx context.Context, candidate T) (T, error)
}
