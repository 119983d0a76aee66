package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

var (
	_ repository.OrderRepository  = (*OrderRepository)(nil)
	_ repository.CartRepository   = (*CartRepository)(nil)
	_ repository.IdempotencyStore = (*IdempotencyStore)(nil)
)

func order(id string, createdAt time.Time, total string) *domain.Order {
	return &domain.Order{
		ID:            id,
		Items:         "Milk (x2)",
		Lines:         []domain.OrderLine{{Name: "Milk", Quantity: 2, UnitPrice: decimal.RequireFromString("50")}},
		Total:         decimal.RequireFromString(total),
		PaymentMethod: domain.PaymentMethodUPI,
		CreatedAt:     createdAt,
		UpdatedAt:     createdAt,
	}
}

// ---------------------------------------------------------------------------
// OrderRepository
// ---------------------------------------------------------------------------

func TestOrderRepository_CreateAndGet(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	o := order("a", time.Now(), "100")

	require.NoError(t, repo.Create(ctx, o))
	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, o.Items, got.Items)

	got.Lines[0].Quantity = 99
	again, _ := repo.GetByID(ctx, "a")
	assert.Equal(t, 2, again.Lines[0].Quantity)
}

func TestOrderRepository_CreateDuplicate(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, order("a", time.Now(), "1")))

	err := repo.Create(ctx, order("a", time.Now(), "1"))
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestOrderRepository_ListNewestFirst(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, order("old", base, "100")))
	require.NoError(t, repo.Create(ctx, order("new", base.Add(2*time.Hour), "300")))
	require.NoError(t, repo.Create(ctx, order("mid", base.Add(time.Hour), "200")))

	orders, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, orders, 3)
	assert.Equal(t, []string{"new", "mid", "old"}, []string{orders[0].ID, orders[1].ID, orders[2].ID})
}

func TestOrderRepository_Update(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	created := time.Now().Add(-time.Hour)
	require.NoError(t, repo.Create(ctx, order("a", created, "100")))

	now := time.Now()
	got, err := repo.Update(ctx, "a", repository.OrderUpdate{
		Items:     "Milk (x3)",
		Total:     decimal.RequireFromString("150"),
		UpdatedAt: now,
	})
	require.NoError(t, err)
	assert.Equal(t, "Milk (x3)", got.Items)
	assert.Empty(t, got.Lines)
	assert.Equal(t, domain.PaymentMethodUPI, got.PaymentMethod)
	assert.Equal(t, created, got.CreatedAt)
	assert.Equal(t, now, got.UpdatedAt)
}

func TestOrderRepository_UpdateAndDeleteUnknown(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()

	_, err := repo.Update(ctx, "missing", repository.OrderUpdate{})
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "missing"), apperrors.ErrNotFound))
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := NewOrderRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, order("a", time.Now(), "100")))
	require.NoError(t, repo.Create(ctx, order("b", time.Now(), "100")))

	require.NoError(t, repo.Delete(ctx, "a"))

	orders, _ := repo.List(ctx)
	require.Len(t, orders, 1)
	assert.Equal(t, "b", orders[0].ID)
}

// ---------------------------------------------------------------------------
// CartRepository
// ---------------------------------------------------------------------------

func TestCartRepository(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "kitchen")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	cart := domain.NewCart()
	require.NoError(t, cart.AddItem("Milk", decimal.RequireFromString("50")))
	require.NoError(t, repo.Save(ctx, "kitchen", cart))

	got, err := repo.Get(ctx, "kitchen")
	require.NoError(t, err)
	assert.Equal(t, "Milk (x1)", got.Summary())

	require.NoError(t, repo.Delete(ctx, "kitchen"))
	_, err = repo.Get(ctx, "kitchen")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

// ---------------------------------------------------------------------------
// IdempotencyStore
// ---------------------------------------------------------------------------

func TestIdempotencyStore_ReserveAndExpire(t *testing.T) {
	store := NewIdempotencyStore(time.Hour)
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	bound, reserved, err := store.Reserve(ctx, "key-1", "order-1")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, "order-1", bound)

	bound, reserved, err = store.Reserve(ctx, "key-1", "order-2")
	require.NoError(t, err)
	assert.False(t, reserved)
	assert.Equal(t, "order-1", bound)

	now = now.Add(time.Hour)
	bound, reserved, err = store.Reserve(ctx, "key-1", "order-3")
	require.NoError(t, err)
	assert.True(t, reserved)
	assert.Equal(t, "order-3", bound)
}

func TestIdempotencyStore_Release(t *testing.T) {
	store := NewIdempotencyStore(time.Hour)
	ctx := context.Background()

	_, _, err := store.Reserve(ctx, "key-1", "order-1")
	require.NoError(t, err)

	require.NoError(t, store.Release(ctx, "key-1", "order-2"))
	_, reserved, _ := store.Reserve(ctx, "key-1", "order-2")
	assert.False(t, reserved, "release by another order must keep the binding")

	require.NoError(t, store.Release(ctx, "key-1", "order-1"))
	_, reserved, _ = store.Reserve(ctx, "key-1", "order-2")
	assert.True(t, reserved)
}
