package mongo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

var _ repository.OrderRepository = (*OrderRepository)(nil)

const orderID = "550e8400-e29b-41d4-a716-446655440001"

func dec128(t *testing.T, s string) primitive.Decimal128 {
	t.Helper()
	v, err := primitive.ParseDecimal128(s)
	require.NoError(t, err)
	return v
}

func sampleOrder() *domain.Order {
	now := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	return &domain.Order{
		ID:    orderID,
		Items: "Bread (x1), Milk (x2)",
		Lines: []domain.OrderLine{
			{Name: "Bread", Quantity: 1, UnitPrice: decimal.RequireFromString("40")},
			{Name: "Milk", Quantity: 2, UnitPrice: decimal.RequireFromString("50")},
		},
		Total:         decimal.RequireFromString("140"),
		PaymentMethod: domain.PaymentMethodCash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func orderDoc(t *testing.T, id, items, total string, createdAt time.Time) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "items", Value: items},
		{Key: "total", Value: dec128(t, total)},
		{Key: "paymentMethod", Value: "UPI"},
		{Key: "createdAt", Value: createdAt},
		{Key: "updatedAt", Value: createdAt},
	}
}

func TestOrderRepository_Create(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		require.NoError(mt, repo.Create(context.Background(), sampleOrder()))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("duplicate key", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Create(context.Background(), sampleOrder())
		assert.True(mt, errors.Is(err, apperrors.ErrConflict))
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
		}))

		err := repo.Create(context.Background(), sampleOrder())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "insert order")
	})
}

func TestOrderRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)

	mt.Run("found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		doc := append(orderDoc(t, orderID, "Milk (x2)", "100.00", created),
			bson.E{Key: "lines", Value: bson.A{
				bson.D{{Key: "name", Value: "Milk"}, {Key: "quantity", Value: 2}, {Key: "unitPrice", Value: dec128(t, "50")}},
			}},
		)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch, doc))

		o, err := repo.GetByID(context.Background(), orderID)
		require.NoError(mt, err)
		assert.Equal(mt, "Milk (x2)", o.Items)
		assert.True(mt, decimal.RequireFromString("100").Equal(o.Total))
		assert.Equal(mt, created, o.CreatedAt)
		require.Len(mt, o.Lines, 1)
		assert.Equal(mt, 2, o.Lines[0].Quantity)
		assert.True(mt, decimal.RequireFromString("50").Equal(o.Lines[0].UnitPrice))
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), orderID)
		assert.True(mt, errors.Is(err, apperrors.ErrNotFound))
	})

	mt.Run("legacy numeric total", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		doc := bson.D{
			{Key: "_id", Value: orderID},
			{Key: "items", Value: "Bread (x1)"},
			{Key: "total", Value: 40.5},
			{Key: "paymentMethod", Value: "Card"},
			{Key: "createdAt", Value: created},
		}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch, doc))

		o, err := repo.GetByID(context.Background(), orderID)
		require.NoError(mt, err)
		assert.True(mt, decimal.RequireFromString("40.5").Equal(o.Total))
		assert.Empty(mt, o.Lines)
		assert.Equal(mt, created, o.UpdatedAt)
	})
}

func TestOrderRepository_List(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	mt.Run("decodes every document", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch,
			orderDoc(t, "b", "Milk (x2)", "200", base.Add(time.Hour)),
			orderDoc(t, "a", "Bread (x1)", "100", base),
		))

		orders, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, orders, 2)
		assert.Equal(mt, "b", orders[0].ID)
		assert.Equal(mt, "a", orders[1].ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		sort := started.Command.Lookup("sort").Document()
		assert.Equal(mt, int32(-1), sort.Lookup("createdAt").Int32())
	})

	mt.Run("empty", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch))

		orders, err := repo.List(context.Background())
		require.NoError(mt, err)
		assert.NotNil(mt, orders)
		assert.Empty(mt, orders)
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))

		_, err := repo.List(context.Background())
		require.Error(mt, err)
		assert.Contains(mt, err.Error(), "find orders")
	})
}

func TestOrderRepository_Update(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	updated := created.Add(time.Hour)

	mt.Run("success", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		after := orderDoc(t, orderID, "Milk (x3)", "150", created)
		after[5] = bson.E{Key: "updatedAt", Value: updated}
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: after},
		})

		o, err := repo.Update(context.Background(), orderID, repository.OrderUpdate{
			Items:     "Milk (x3)",
			Total:     decimal.RequireFromString("150"),
			UpdatedAt: updated,
		})
		require.NoError(mt, err)
		assert.Equal(mt, "Milk (x3)", o.Items)
		assert.Equal(mt, "UPI", o.PaymentMethod)
		assert.Equal(mt, created, o.CreatedAt)
		assert.Equal(mt, updated, o.UpdatedAt)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		update := started.Command.Lookup("update").Document()
		_, err = update.LookupErr("$unset", "lines")
		assert.NoError(mt, err)
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: nil},
		})

		_, err := repo.Update(context.Background(), orderID, repository.OrderUpdate{Items: "x", Total: decimal.Zero})
		assert.True(mt, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestOrderRepository_Delete(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("success", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		assert.NoError(mt, repo.Delete(context.Background(), orderID))
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 0}})

		err := repo.Delete(context.Background(), orderID)
		assert.True(mt, errors.Is(err, apperrors.ErrNotFound))
	})
}

func TestOrderRepository_LegacyObjectID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	created := time.Date(2024, 11, 5, 9, 0, 0, 0, time.UTC)
	oid, err := primitive.ObjectIDFromHex("65f1c2a9e4b0a1b2c3d4e5f6")
	require.NoError(t, err)
	legacyID := oid.Hex()

	legacyDoc := func() bson.D {
		return bson.D{
			{Key: "_id", Value: oid},
			{Key: "items", Value: "Rice (x1)"},
			{Key: "total", Value: 60.0},
			{Key: "paymentMethod", Value: "Cash"},
			{Key: "createdAt", Value: created},
		}
	}

	mt.Run("list decodes ObjectId as hex", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch, legacyDoc()))

		orders, err := repo.List(context.Background())
		require.NoError(mt, err)
		require.Len(mt, orders, 1)
		assert.Equal(mt, legacyID, orders[0].ID)
	})

	mt.Run("get filters on ObjectId", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch, legacyDoc()))

		o, err := repo.GetByID(context.Background(), legacyID)
		require.NoError(mt, err)
		assert.Equal(mt, legacyID, o.ID)
		assert.True(mt, decimal.RequireFromString("60").Equal(o.Total))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, oid, started.Command.Lookup("filter", "_id").ObjectID())
	})

	mt.Run("update filters on ObjectId", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		after := legacyDoc()
		after[1] = bson.E{Key: "items", Value: "Rice (x2)"}
		mt.AddMockResponses(bson.D{
			{Key: "ok", Value: 1},
			{Key: "value", Value: after},
		})

		o, err := repo.Update(context.Background(), legacyID, repository.OrderUpdate{
			Items:     "Rice (x2)",
			Total:     decimal.RequireFromString("120"),
			UpdatedAt: created.Add(time.Hour),
		})
		require.NoError(mt, err)
		assert.Equal(mt, legacyID, o.ID)

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, oid, started.Command.Lookup("query", "_id").ObjectID())
	})

	mt.Run("delete filters on ObjectId", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(bson.D{{Key: "ok", Value: 1}, {Key: "n", Value: 1}})

		require.NoError(mt, repo.Delete(context.Background(), legacyID))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		del := started.Command.Lookup("deletes").Array().Index(0).Value().Document()
		assert.Equal(mt, oid, del.Lookup("q", "_id").ObjectID())
	})

	mt.Run("uuid ids stay strings", func(mt *mtest.T) {
		repo := NewOrderRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "grocery_store.orders", mtest.FirstBatch))

		_, err := repo.GetByID(context.Background(), orderID)
		assert.True(mt, errors.Is(err, apperrors.ErrNotFound))

		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, orderID, started.Command.Lookup("filter", "_id").StringValue())
	})
}

func TestRawToDecimal(t *testing.T) {
	typ, data, err := bson.MarshalValue(int32(7))
	require.NoError(t, err)

	d, err := rawToDecimal(bson.RawValue{Type: typ, Value: data})
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(7).Equal(d))

	typ, data, err = bson.MarshalValue("seven")
	require.NoError(t, err)
	_, err = rawToDecimal(bson.RawValue{Type: typ, Value: data})
	assert.Error(t, err)
}
