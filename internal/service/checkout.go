package service

import (
	"context"
	"fmt"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
)

// OrderCreator persists order drafts. OrderService implements it in process
// and the API client implements it over HTTP.
type OrderCreator interface {
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
}

// Checkout turns cart into an order through creator. The cart is cleared only
// after creator succeeds; on failure it is left as it was. An empty cart fails
// without calling creator.
func Checkout(ctx context.Context, creator OrderCreator, cart *domain.Cart, paymentMethod string) (*domain.Order, error) {
	if cart.IsEmpty() {
		return nil, apperrors.EmptyCart()
	}

	draft := domain.OrderDraft{
		Items:         cart.Summary(),
		Lines:         cart.Lines(),
		Total:         cart.Total(),
		PaymentMethod: paymentMethod,
	}

	order, err := creator.CreateOrder(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("checkout: %w", err)
	}

	cart.Clear()
	return order, nil
}
