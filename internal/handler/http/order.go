package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/pkg/httputil"
	"github.com/utafrali/grocify/pkg/validator"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/report"
	"github.com/utafrali/grocify/internal/service"
)

// IdempotencyKeyHeader lets a client retry POST /orders without creating a
// second order.
const IdempotencyKeyHeader = "Idempotency-Key"

// OrderHandler handles HTTP requests for order, statistics and report endpoints.
type OrderHandler struct {
	orders  *service.OrderService
	reports *service.ReportService
	logger  *slog.Logger
}

// NewOrderHandler creates a new order HTTP handler.
func NewOrderHandler(orders *service.OrderService, reports *service.ReportService, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:  orders,
		reports: reports,
		logger:  logger,
	}
}

// --- Request DTOs ---

// OrderLineRequest is one structured line of an order body.
type OrderLineRequest struct {
	Name      string          `json:"name" validate:"required,max=100"`
	Quantity  int             `json:"quantity" validate:"gte=1"`
	UnitPrice decimal.Decimal `json:"unitPrice" validate:"gte=0"`
}

// CreateOrderRequest is the JSON request body for creating an order.
type CreateOrderRequest struct {
	Items         string             `json:"items" validate:"required_without=Lines,max=2000"`
	Lines         []OrderLineRequest `json:"lines" validate:"omitempty,dive"`
	Total         *decimal.Decimal   `json:"total"`
	PaymentMethod string             `json:"paymentMethod" validate:"required,max=50"`
}

// UpdateOrderRequest is the JSON request body for updating an order.
type UpdateOrderRequest struct {
	Items string             `json:"items" validate:"required_without=Lines,max=2000"`
	Lines []OrderLineRequest `json:"lines" validate:"omitempty,dive"`
	Total *decimal.Decimal   `json:"total"`
}

// MessageResponse carries a human-readable confirmation.
type MessageResponse struct {
	Message string `json:"message"`
}

func toLines(req []OrderLineRequest) []domain.OrderLine {
	if len(req) == 0 {
		return nil
	}
	lines := make([]domain.OrderLine, len(req))
	for i, l := range req {
		lines[i] = domain.OrderLine{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice}
	}
	return lines
}

// validateBody runs struct validation and the total presence check. It writes
// the 400 response itself and returns false on failure.
func validateBody(w http.ResponseWriter, body any, total *decimal.Decimal) bool {
	if err := validator.Validate(body); err != nil {
		httputil.WriteValidationError(w, err)
		return false
	}
	if total == nil {
		httputil.WriteJSON(w, http.StatusBadRequest, httputil.Response{
			Error: &httputil.ErrorResponse{
				Code:    "VALIDATION_ERROR",
				Message: "request validation failed",
				Fields:  map[string]string{"total": "is required"},
			},
		})
		return false
	}
	return true
}

// --- Handlers ---

// CreateOrder handles POST /orders
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if !validateBody(w, req, req.Total) {
		return
	}

	draft := domain.OrderDraft{
		Items:         req.Items,
		Lines:         toLines(req.Lines),
		Total:         *req.Total,
		PaymentMethod: req.PaymentMethod,
	}

	order, err := h.orders.CreateOrderIdempotent(r.Context(), r.Header.Get(IdempotencyKeyHeader), draft)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: order})
}

// ListOrders handles GET /orders
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if orders == nil {
		orders = []domain.Order{}
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: orders})
}

// GetOrder handles GET /orders/{id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"), domain.ParseOrderID)
	if !ok {
		return
	}

	order, err := h.orders.GetOrder(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// UpdateOrder handles PUT /orders/{id}
func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"), domain.ParseOrderID)
	if !ok {
		return
	}

	var req UpdateOrderRequest
	if !httputil.DecodeJSON(w, r, &req) {
		return
	}
	if !validateBody(w, req, req.Total) {
		return
	}

	order, err := h.orders.UpdateOrder(r.Context(), id, service.UpdateOrderInput{
		Items: req.Items,
		Lines: toLines(req.Lines),
		Total: *req.Total,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: order})
}

// DeleteOrder handles DELETE /orders/{id}
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"), domain.ParseOrderID)
	if !ok {
		return
	}

	if err := h.orders.DeleteOrder(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{
		Data: MessageResponse{Message: "Order deleted successfully"},
	})
}

// Statistics handles GET /statistics
func (h *OrderHandler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.orders.Statistics(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}

// GenerateReport handles GET /generate-report
func (h *OrderHandler) GenerateReport(w http.ResponseWriter, r *http.Request) {
	body, err := h.reports.Generate(r.Context())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteAttachment(w, h.reports.ContentType(), report.Filename, body)
}
