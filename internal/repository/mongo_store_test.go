package repository

import (
	"context"
	"testing"

	"microservices-demo/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func countResponse(mt *mtest.T, n int32) bson.D {
	ns := mt.DB.Name() + ".users"
	if n == 0 {
		return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch)
	}
	return mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bson.D{{Key: "n", Value: n}})
}

func userStore(mt *mtest.T) *MongoStore[model.User] {
	return &MongoStore[model.User]{
		name:       "users",
		collection: mt.DB.Collection("users"),
		counters:   mt.DB.Collection(countersCollection),
	}
}

func rawValues(mt *mtest.T, v bson.RawValue) []bson.RawValue {
	mt.Helper()
	values, err := v.Array().Values()
	require.NoError(mt, err)
	return values
}

func TestMongoStoreSeed(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("empty collection is seeded and sequence raised", func(mt *mtest.T) {
		mt.AddMockResponses(
			countResponse(mt, 0),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(3)}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		_, err := NewMongoStore(context.Background(), mt.DB, "users", model.SeedUsers())
		require.NoError(mt, err)

		assert.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)

		insert := mt.GetStartedEvent()
		require.Equal(mt, "insert", insert.CommandName)
		assert.Equal(mt, "users", insert.Command.Lookup("insert").StringValue())
		docs := rawValues(mt, insert.Command.Lookup("documents"))
		require.Len(mt, docs, 3)
		assert.EqualValues(mt, 1, docs[0].Document().Lookup("_id").AsInt64())

		update := mt.GetStartedEvent()
		require.Equal(mt, "update", update.CommandName)
		assert.Equal(mt, countersCollection, update.Command.Lookup("update").StringValue())
		stmt := rawValues(mt, update.Command.Lookup("updates"))[0].Document()
		assert.Equal(mt, "users", stmt.Lookup("q", "_id").StringValue())
		assert.EqualValues(mt, 3, stmt.Lookup("u", "$max", "seq").AsInt64())
		assert.True(mt, stmt.Lookup("upsert").Boolean())
	})

	mt.Run("existing data is left alone", func(mt *mtest.T) {
		mt.AddMockResponses(
			countResponse(mt, 7),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		_, err := NewMongoStore(context.Background(), mt.DB, "users", model.SeedUsers())
		require.NoError(mt, err)

		assert.Equal(mt, "aggregate", mt.GetStartedEvent().CommandName)
		assert.Equal(mt, "update", mt.GetStartedEvent().CommandName)
		assert.Nil(mt, mt.GetStartedEvent())
	})

	mt.Run("count failure aborts startup", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized", Name: "Unauthorized"}))

		_, err := NewMongoStore(context.Background(), mt.DB, "users", model.SeedUsers())
		assert.Error(mt, err)
	})
}

func TestMongoStoreList(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("sorted by id", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 1}, {Key: "name", Value: "张三"}, {Key: "email", Value: "alice@example.com"}},
			bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "李四"}, {Key: "email", Value: "bob@example.com"}},
		))

		users, err := userStore(mt).List(context.Background())
		require.NoError(mt, err)
		assert.Equal(mt, model.SeedUsers()[:2], users)

		find := mt.GetStartedEvent()
		require.Equal(mt, "find", find.CommandName)
		assert.EqualValues(mt, 1, find.Command.Lookup("sort", "_id").AsInt64())
	})

	mt.Run("empty collection is an empty list", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch))

		users, err := userStore(mt).List(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, users)
		assert.Empty(mt, users)
	})
}

func TestMongoStoreGet(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("found", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch,
			bson.D{{Key: "_id", Value: 2}, {Key: "name", Value: "李四"}, {Key: "email", Value: "bob@example.com"}},
		))

		u, err := userStore(mt).Get(context.Background(), 2)
		require.NoError(mt, err)
		assert.Equal(mt, model.SeedUsers()[1], u)
		assert.EqualValues(mt, 2, mt.GetStartedEvent().Command.Lookup("filter", "_id").AsInt64())
	})

	mt.Run("missing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCursorResponse(0, mt.DB.Name()+".users", mtest.FirstBatch))

		_, err := userStore(mt).Get(context.Background(), 999)
		assert.ErrorIs(mt, err, ErrNotFound)
	})
}

func TestMongoStoreCreate(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("id comes from the counter", func(mt *mtest.T) {
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{{Key: "_id", Value: "users"}, {Key: "seq", Value: 4}}}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: int32(1)}),
		)

		created, err := userStore(mt).Create(context.Background(), model.User{ID: 42, Name: "赵六", Email: "dave@example.com"})
		require.NoError(mt, err)
		assert.Equal(mt, model.User{ID: 4, Name: "赵六", Email: "dave@example.com"}, created)

		next := mt.GetStartedEvent()
		require.Equal(mt, "findAndModify", next.CommandName)
		assert.Equal(mt, countersCollection, next.Command.Lookup("findAndModify").StringValue())
		assert.EqualValues(mt, 1, next.Command.Lookup("update", "$inc", "seq").AsInt64())
		assert.True(mt, next.Command.Lookup("upsert").Boolean())
		assert.True(mt, next.Command.Lookup("new").Boolean())

		insert := mt.GetStartedEvent()
		require.Equal(mt, "insert", insert.CommandName)
		docs := rawValues(mt, insert.Command.Lookup("documents"))
		require.Len(mt, docs, 1)
		assert.EqualValues(mt, 4, docs[0].Document().Lookup("_id").AsInt64())
	})

	mt.Run("counter failure creates nothing", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 2, Message: "bad value", Name: "BadValue"}))

		_, err := userStore(mt).Create(context.Background(), model.User{Name: "x"})
		assert.Error(mt, err)

		assert.Equal(mt, "findAndModify", mt.GetStartedEvent().CommandName)
		assert.Nil(mt, mt.GetStartedEvent())
	})
}
