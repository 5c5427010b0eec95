package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"microservices-demo/internal/logger"
	"microservices-demo/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const countersCollection = "counters"

// MongoStore persists one entity kind in its own collection. Integer ids come
// from a per-collection sequence document in "counters".
type MongoStore[T model.Entity[T]] struct {
	name       string
	collection *mongo.Collection
	counters   *mongo.Collection
}

type sequence struct {
	ID  string `bson:"_id"`
	Seq int    `bson:"seq"`
}

// NewMongoStore seeds an empty collection and makes sure the id sequence is
// never behind the seeded ids.
func NewMongoStore[T model.Entity[T]](ctx context.Context, db *mongo.Database, name string, seed []T) (*MongoStore[T], error) {
	s := &MongoStore[T]{
		name:       name,
		collection: db.Collection(name),
		counters:   db.Collection(countersCollection),
	}

	if err := s.seed(ctx, seed); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *MongoStore[T]) seed(ctx context.Context, seed []T) error {
	ctx, span := RepositoryTracer.Start(ctx, "MongoStore.seed")
	defer span.End()

	count, err := s.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("count %s: %w", s.name, err)
	}

	maxID := 0
	docs := make([]interface{}, 0, len(seed))
	for _, item := range seed {
		docs = append(docs, item)
		if item.GetID() > maxID {
			maxID = item.GetID()
		}
	}

	if count == 0 && len(docs) > 0 {
		_, err := s.collection.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
		if err != nil && !mongo.IsDuplicateKeyError(err) {
			return fmt.Errorf("seed %s: %w", s.name, err)
		}
		logger.Info(ctx, "Seeded collection", slog.String("store", s.name), slog.Int("count", len(docs)))
	}

	_, err = s.counters.UpdateOne(ctx,
		bson.M{"_id": s.name},
		bson.M{"$max": bson.M{"seq": maxID}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("init sequence %s: %w", s.name, err)
	}
	return nil
}

func (s *MongoStore[T]) List(ctx context.Context) ([]T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MongoStore.List")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("store", s.name))

	cursor, err := s.collection.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.name, err)
	}
	defer cursor.Close(ctx)

	items := make([]T, 0)
	if err := cursor.All(ctx, &items); err != nil {
		return nil, fmt.Errorf("decode %s: %w", s.name, err)
	}
	return items, nil
}

func (s *MongoStore[T]) Get(ctx context.Context, id int) (T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MongoStore.Get")
	defer span.End()
	logger.Debug(ctx, "Repository", slog.String("store", s.name), slog.Int("id", id))

	var item T
	err := s.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return item, ErrNotFound
	}
	if err != nil {
		return item, fmt.Errorf("find %s %d: %w", s.name, id, err)
	}
	return item, nil
}

func (s *MongoStore[T]) Create(ctx context.Context, candidate T) (T, error) {
	ctx, span := RepositoryTracer.Start(ctx, "MongoStore.Create")
	defer span.End()

	id, err := s.nextID(ctx)
	if err != nil {
		var zero T
		return zero, err
	}

	created := candidate.WithID(id)
	if _, err := s.collection.InsertOne(ctx, created); err != nil {
		var zero T
		return zero, fmt.Errorf("insert %s: %w", s.name, err)
	}

	logger.Debug(ctx, "Repository", slog.String("store", s.name), slog.Int("id", id))
	return created, nil
}

func (s *MongoStore[T]) nextID(ctx context.Context) (int, error) {
	var seq sequence
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": s.name},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&seq)
	if err != nil {
		return 0, fmt.Errorf("next id %s: %w", s.name, err)
	}
	return seq.Seq, nil
}
