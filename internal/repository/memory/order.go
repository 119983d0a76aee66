package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

// OrderRepository implements repository.OrderRepository in process memory.
type OrderRepository struct {
	mu     sync.RWMutex
	orders map[string]domain.Order
}

// NewOrderRepository creates an empty in-memory order repository.
func NewOrderRepository() *OrderRepository {
	return &OrderRepository{orders: make(map[string]domain.Order)}
}

// Create stores a copy of o.
func (r *OrderRepository) Create(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.orders[o.ID]; exists {
		return apperrors.Conflict("order " + o.ID + " already exists")
	}
	r.orders[o.ID] = cloneOrder(*o)
	return nil
}

// GetByID returns a copy of the stored order.
func (r *OrderRepository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	out := cloneOrder(o)
	return &out, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(_ context.Context) ([]domain.Order, error) {
	r.mu.RLock()
	orders := make([]domain.Order, 0, len(r.orders))
	for _, o := range r.orders {
		orders = append(orders, cloneOrder(o))
	}
	r.mu.RUnlock()

	slices.SortStableFunc(orders, func(a, b domain.Order) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return orders, nil
}

// Update overwrites the mutable fields of an order.
func (r *OrderRepository) Update(_ context.Context, id string, u repository.OrderUpdate) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order", id)
	}
	o.Items = u.Items
	o.Lines = slices.Clone(u.Lines)
	o.Total = u.Total
	o.UpdatedAt = u.UpdatedAt
	r.orders[id] = o

	out := cloneOrder(o)
	return &out, nil
}

// Delete removes an order.
func (r *OrderRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orders[id]; !ok {
		return apperrors.NotFound("order", id)
	}
	delete(r.orders, id)
	return nil
}

func cloneOrder(o domain.Order) domain.Order {
	o.Lines = slices.Clone(o.Lines)
	return o
}
