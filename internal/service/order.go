package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/event"
	"github.com/utafrali/grocify/internal/repository"
)

// OrderService implements the business logic for order operations.
type OrderService struct {
	repo        repository.OrderRepository
	idempotency repository.IdempotencyStore
	publisher   event.Publisher
	logger      *slog.Logger
	now         func() time.Time
}

// NewOrderService creates a new order service. idempotency may be nil, in
// which case idempotency keys are ignored.
func NewOrderService(
	repo repository.OrderRepository,
	idempotency repository.IdempotencyStore,
	publisher event.Publisher,
	logger *slog.Logger,
) *OrderService {
	return &OrderService{
		repo:        repo,
		idempotency: idempotency,
		publisher:   publisher,
		logger:      logger,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
	}
}

// UpdateOrderInput holds the replaceable fields of an order.
type UpdateOrderInput struct {
	Items string
	Lines []domain.OrderLine
	Total decimal.Decimal
}

// CreateOrder persists draft as a new order.
func (s *OrderService) CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	return s.CreateOrderIdempotent(ctx, "", draft)
}

// CreateOrderIdempotent persists draft unless key is already bound to an
// order, in which case that order is returned instead. An empty key always
// creates.
func (s *OrderService) CreateOrderIdempotent(ctx context.Context, key string, draft domain.OrderDraft) (*domain.Order, error) {
	items, err := normalizeContent(draft.Items, draft.Lines, draft.Total)
	if err != nil {
		return nil, err
	}
	paymentMethod := strings.TrimSpace(draft.PaymentMethod)
	if paymentMethod == "" {
		return nil, apperrors.InvalidInput("payment method is required")
	}

	now := s.now()
	order := &domain.Order{
		ID:            domain.NewOrderID(),
		Items:         items,
		Lines:         draft.Lines,
		Total:         draft.Total,
		PaymentMethod: paymentMethod,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	held, existing, err := s.reserve(ctx, key, order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	if err := s.repo.Create(ctx, order); err != nil {
		if held {
			s.release(ctx, key, order.ID)
		}
		return nil, storeError("failed to create order", err)
	}
	ordersCreated.WithLabelValues(paymentMethodLabel(order.PaymentMethod)).Inc()

	if err := s.publisher.PublishOrderCreated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.created event",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", order.ID),
		slog.String("total", order.Total.String()),
		slog.String("payment_method", order.PaymentMethod),
	)

	return order, nil
}

// reserve claims key for orderID before the order is stored, so concurrent
// requests with the same key create at most one order. It returns the order
// already bound to key when there is one, and whether this call holds key.
// Store failures are logged and the order is created without the key.
func (s *OrderService) reserve(ctx context.Context, key, orderID string) (bool, *domain.Order, error) {
	if key == "" || s.idempotency == nil {
		return false, nil, nil
	}

	boundID, reserved, err := s.idempotency.Reserve(ctx, key, orderID)
	if err != nil {
		s.logger.WarnContext(ctx, "idempotency reserve failed", slog.String("error", err.Error()))
		return false, nil, nil
	}
	if reserved {
		return true, nil, nil
	}

	order, err := s.repo.GetByID(ctx, boundID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return false, nil, apperrors.Conflict("an order for this idempotency key is still being created or was deleted")
		}
		return false, nil, storeError("failed to fetch order", err)
	}

	idempotentReplays.Inc()
	return false, order, nil
}

func (s *OrderService) release(ctx context.Context, key, orderID string) {
	if err := s.idempotency.Release(ctx, key, orderID); err != nil {
		s.logger.WarnContext(ctx, "failed to release idempotency key",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

// GetOrder retrieves an order by its ID.
func (s *OrderService) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("failed to fetch order", err)
	}
	return order, nil
}

// ListOrders returns every order, newest first.
func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeError("failed to fetch orders", err)
	}
	return orders, nil
}

// UpdateOrder replaces the items, lines and total of an order. Payment method
// and creation time are kept.
func (s *OrderService) UpdateOrder(ctx context.Context, id string, input UpdateOrderInput) (*domain.Order, error) {
	items, err := normalizeContent(input.Items, input.Lines, input.Total)
	if err != nil {
		return nil, err
	}

	order, err := s.repo.Update(ctx, id, repository.OrderUpdate{
		Items:     items,
		Lines:     input.Lines,
		Total:     input.Total,
		UpdatedAt: s.now(),
	})
	if err != nil {
		return nil, storeError("failed to update order", err)
	}
	ordersUpdated.Inc()

	if err := s.publisher.PublishOrderUpdated(ctx, order); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.updated event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order updated",
		slog.String("order_id", id),
		slog.String("total", order.Total.String()),
	)

	return order, nil
}

// DeleteOrder removes an order permanently.
func (s *OrderService) DeleteOrder(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return storeError("failed to delete order", err)
	}
	ordersDeleted.Inc()

	if err := s.publisher.PublishOrderDeleted(ctx, id); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order.deleted event",
			slog.String("order_id", id),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "order deleted", slog.String("order_id", id))
	return nil
}

// Statistics aggregates the full order history.
func (s *OrderService) Statistics(ctx context.Context) (domain.Statistics, error) {
	orders, err := s.ListOrders(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	return domain.Aggregate(orders), nil
}

// storeError passes taxonomy errors from the repository through and turns
// everything else into a persistence failure.
func storeError(message string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return apperrors.Persistence(message, err)
}

// normalizeContent validates the order content and returns the items summary
// to store. Structured lines, when given, determine the summary and must add
// up to total.
func normalizeContent(items string, lines []domain.OrderLine, total decimal.Decimal) (string, error) {
	if total.IsNegative() {
		return "", apperrors.InvalidInput("total must not be negative")
	}

	if len(lines) == 0 {
		items = strings.TrimSpace(items)
		if items == "" {
			return "", apperrors.InvalidInput("items are required")
		}
		return items, nil
	}

	for i, l := range lines {
		if strings.TrimSpace(l.Name) == "" {
			return "", apperrors.InvalidInput(fmt.Sprintf("line %d: name is required", i+1))
		}
		if l.Quantity < 1 {
			return "", apperrors.InvalidQuantity(fmt.Sprintf("line %d: quantity must be at least 1", i+1))
		}
		if l.UnitPrice.IsNegative() {
			return "", apperrors.InvalidInput(fmt.Sprintf("line %d: unit price must not be negative", i+1))
		}
	}

	if sum := domain.LinesTotal(lines); !sum.Equal(total) {
		return "", apperrors.InvalidInput(fmt.Sprintf("total %s does not match line items (%s)", total, sum))
	}

	return domain.FormatItemsSummary(lines), nil
}
