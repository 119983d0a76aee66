package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/internal/domain"
)

// OrderUpdate carries the mutable fields of an order.
type OrderUpdate struct {
	Items     string
	Lines     []domain.OrderLine
	Total     decimal.Decimal
	UpdatedAt time.Time
}

// OrderRepository defines the interface for order persistence operations.
// Implementations return apperrors.ErrNotFound (possibly wrapped) for unknown ids.
type OrderRepository interface {
	// Create inserts a new order.
	Create(ctx context.Context, order *domain.Order) error

	// GetByID retrieves an order by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Order, error)

	// List returns every order, newest first.
	List(ctx context.Context) ([]domain.Order, error)

	// Update overwrites items, lines and total, and returns the stored order.
	Update(ctx context.Context, id string, update OrderUpdate) (*domain.Order, error)

	// Delete removes an order permanently.
	Delete(ctx context.Context, id string) error
}

// CartRepository stores carts per client session.
type CartRepository interface {
	// Get returns the session's cart, or apperrors.ErrNotFound when there is none.
	Get(ctx context.Context, sessionID string) (*domain.Cart, error)

	// Save overwrites the session's cart and refreshes its expiry.
	Save(ctx context.Context, sessionID string, cart *domain.Cart) error

	// Delete drops the session's cart.
	Delete(ctx context.Context, sessionID string) error
}

// IdempotencyStore binds client-supplied idempotency keys to created orders.
type IdempotencyStore interface {
	// Reserve atomically binds key to orderID unless key is already bound.
	// It returns the id key is bound to and whether this call made the binding.
	Reserve(ctx context.Context, key, orderID string) (boundID string, reserved bool, err error)

	// Release drops the binding of key if it still points at orderID.
	Release(ctx context.Context, key, orderID string) error
}
