package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/grocify/pkg/errors"
	"github.com/utafrali/grocify/pkg/validator"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

// CartService keeps one cart per client session in a CartRepository.
type CartService struct {
	repo    repository.CartRepository
	creator OrderCreator
	logger  *slog.Logger
}

// NewCartService creates a cart service that checks out through creator.
func NewCartService(repo repository.CartRepository, creator OrderCreator, logger *slog.Logger) *CartService {
	return &CartService{
		repo:    repo,
		creator: creator,
		logger:  logger,
	}
}

// GetCart returns the session's cart, or an empty one if none is stored.
func (s *CartService) GetCart(ctx context.Context, sessionID string) (*domain.Cart, error) {
	cart, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return domain.NewCart(), nil
		}
		return nil, fmt.Errorf("load cart: %w", err)
	}
	return cart, nil
}

// AddItem adds one unit of name to the session's cart.
func (s *CartService) AddItem(ctx context.Context, sessionID, name string, price decimal.Decimal) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		return c.AddItem(name, price)
	})
}

// SetQuantity sets the quantity at the one-based position from raw user input.
func (s *CartService) SetQuantity(ctx context.Context, sessionID string, position int, raw string) (*domain.Cart, error) {
	quantity, err := domain.ParseQuantity(raw)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		return c.SetQuantity(position-1, quantity)
	})
}

// RemoveItem drops every line named name. Removing a name that is not in the
// cart is reported as not found.
func (s *CartService) RemoveItem(ctx context.Context, sessionID, name string) (*domain.Cart, error) {
	return s.mutate(ctx, sessionID, func(c *domain.Cart) error {
		if c.RemoveItem(name) == 0 {
			return apperrors.NotFound("cart item", name)
		}
		return nil
	})
}

// Clear empties the session's cart.
func (s *CartService) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

// Checkout places an order for the session's cart. paymentMethod must be one
// of domain.PaymentMethods.
func (s *CartService) Checkout(ctx context.Context, sessionID, paymentMethod string) (*domain.Order, error) {
	if err := validator.Var(paymentMethod, "required,oneof=UPI Card Cash"); err != nil {
		return nil, apperrors.InvalidInput(fmt.Sprintf("payment method must be one of %v", domain.PaymentMethods()))
	}

	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	order, err := Checkout(ctx, s.creator, cart, paymentMethod)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Delete(ctx, sessionID); err != nil {
		s.logger.ErrorContext(ctx, "order placed but cart could not be cleared",
			slog.String("order_id", order.ID),
			slog.String("session_id", sessionID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "checkout completed",
		slog.String("order_id", order.ID),
		slog.String("session_id", sessionID),
	)
	return order, nil
}

func (s *CartService) mutate(ctx context.Context, sessionID string, apply func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.GetCart(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := apply(cart); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, sessionID, cart); err != nil {
		return nil, fmt.Errorf("save cart: %w", err)
	}
	return cart, nil
}
