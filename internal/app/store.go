package app

import (
	"context"
	"fmt"
	"sync"

	"microservices-demo/internal/config"
	"microservices-demo/internal/database"
	"microservices-demo/internal/model"
	"microservices-demo/internal/repository"
)

// Resources holds what a backend opened at startup and must release on exit.
type Resources struct {
	mu      sync.Mutex
	closers []func(context.Context)
}

func (r *Resources) add(f func(context.Context)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closers = append(r.closers, f)
}

// Close releases resources in reverse order of acquisition.
func (r *Resources) Close(ctx context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i](ctx)
	}
	r.closers = nil
}

// NewStore builds the configured store for collection name, seeded with seed.
func NewStore[T model.Entity[T]](ctx context.Context, cfg *config.Config, res *Resources, name string, seed []T) (repository.Store[T], error) {
	switch cfg.StoreBackend {
	case config.StoreMongo:
		db, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return nil, err
		}
		res.add(db.Close)

		store, err := repository.NewMongoStore(ctx, db.Database, name, seed)
		if err != nil {
			return nil, fmt.Errorf("init %s store: %w", name, err)
		}
		return store, nil
	case config.StoreMemory, "":
		return repository.NewMemoryStore(name, seed), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}
