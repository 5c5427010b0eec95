package repository

import (
	"context"
	"log/slog"
	"sync"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"
)

// MemoryStore keeps records in insertion order for the life of the process.
type MemoryStore[T model.Entity[T]] struct {
	mu    sync.RWMutex
	name  string
	items []T
}

func NewMemoryStore[T model.Entity[T]](name string, seed []T) *MemoryStore[T] {
	items := make([]T, len(seed))
	copy(items, seed)
	return &MemoryStore[T]{name: name, items: items}
}

func (s *MemoryStore[T]) List(ctx context.Context) ([]T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MemoryStore.List")
	defer span.End()

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	logger.Debug(ctx, "Repository", slog.String("store", s.name), slog.Int("count", len(out)))
	return out, nil
}

func (s *MemoryStore[T]) Get(ctx context.Context, id int) (T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MemoryStore.Get")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("store", s.name), slog.Int("id", id))

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, item := range s.items {
		if item.GetID() == id {
			return item, nil
		}
	}
	var zero T
	return zero, ErrNotFound
}

// Create assigns max(existing ids)+1. The scan and the append happen under
// the same lock, so concurrent creates never share an id.
func (s *MemoryStore[T]) Create(ctx context.Context, candidate T) (T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MemoryStore.Create")
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	maxID := 0
	for _, item := range s.items {
		if item.GetID() > maxID {
			maxID = item.GetID()
		}
	}

	created := candidate.WithID(maxID + 1)
	s.items = append(s.items, created)

	logger.Debug(ctx, "Repository", slog.String("store", s.name), slog.Int("id", created.GetID()))
	return created, nil
}
