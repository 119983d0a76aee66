package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/pkg/httpclient"
	"github.com/utafrali/grocify/pkg/logger"
	"github.com/utafrali/grocify/pkg/middleware"

	"github.com/utafrali/grocify/internal/domain"
)

const serviceName = "grocify-api"

// OrdersClient talks to the order API. Calls go through a circuit breaker;
// idempotent methods are retried, POST never is.
type OrdersClient struct {
	baseURL string
	http    *httpclient.CircuitBreakerClient
	logger  *slog.Logger
}

// New creates an API client for baseURL.
func New(baseURL string, httpCfg httpclient.Config, cbCfg httpclient.CircuitBreakerConfig, logger *slog.Logger) *OrdersClient {
	return &OrdersClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpclient.NewCircuitBreakerClient(httpclient.New(httpCfg), cbCfg, serviceName, logger),
		logger:  logger,
	}
}

type orderLineBody struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

type orderBody struct {
	Items         string          `json:"items,omitempty"`
	Lines         []orderLineBody `json:"lines,omitempty"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"paymentMethod,omitempty"`
}

func newOrderBody(items string, lines []domain.OrderLine, total decimal.Decimal) orderBody {
	body := orderBody{Items: items, Total: total}
	for _, l := range lines {
		body.Lines = append(body.Lines, orderLineBody{Name: l.Name, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return body
}

type envelope struct {
	Data json.RawMessage `json:"data"`
}

// CreateOrder posts draft as a new order. Each call carries a fresh
// Idempotency-Key, so a caller that retries the same call by hand should
// use CreateOrderWithKey instead.
func (c *OrdersClient) CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error) {
	return c.CreateOrderWithKey(ctx, uuid.New().String(), draft)
}

// CreateOrderWithKey posts draft under the given idempotency key.
func (c *OrdersClient) CreateOrderWithKey(ctx context.Context, key string, draft domain.OrderDraft) (*domain.Order, error) {
	body := newOrderBody(draft.Items, draft.Lines, draft.Total)
	body.PaymentMethod = draft.PaymentMethod

	var order domain.Order
	err := c.call(ctx, http.MethodPost, "/orders", body, &order, func(req *http.Request) {
		req.Header.Set("Idempotency-Key", key)
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// ListOrders returns every order, newest first.
func (c *OrdersClient) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var orders []domain.Order
	if err := c.call(ctx, http.MethodGet, "/orders", nil, &orders, nil); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrder fetches one order.
func (c *OrdersClient) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	if err := c.call(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil, &order, nil); err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrder replaces the content of an order. With lines, items is derived
// by the server.
func (c *OrdersClient) UpdateOrder(ctx context.Context, id, items string, lines []domain.OrderLine, total decimal.Decimal) (*domain.Order, error) {
	var order domain.Order
	err := c.call(ctx, http.MethodPut, "/orders/"+url.PathEscape(id), newOrderBody(items, lines, total), &order, nil)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// DeleteOrder removes an order.
func (c *OrdersClient) DeleteOrder(ctx context.Context, id string) error {
	return c.call(ctx, http.MethodDelete, "/orders/"+url.PathEscape(id), nil, nil, nil)
}

// Statistics fetches the aggregated order statistics.
func (c *OrdersClient) Statistics(ctx context.Context) (domain.Statistics, error) {
	var stats domain.Statistics
	if err := c.call(ctx, http.MethodGet, "/statistics", nil, &stats, nil); err != nil {
		return domain.Statistics{}, err
	}
	return stats, nil
}

// DownloadReport fetches the PDF report.
func (c *OrdersClient) DownloadReport(ctx context.Context) ([]byte, error) {
	req, err := c.http.NewRequest(ctx, http.MethodGet, c.baseURL+"/generate-report", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/pdf")
	c.decorate(ctx, req)

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	return body, nil
}

// call sends a JSON request and decodes the data field of the envelope into
// out when out is non-nil.
func (c *OrdersClient) call(ctx context.Context, method, path string, in, out any, prepare func(*http.Request)) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := c.http.NewRequest(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	c.decorate(ctx, req)
	if prepare != nil {
		prepare(req)
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return httpclient.ParseResponseError(resp, serviceName)
	}
	defer func() { _ = resp.Body.Close() }()

	if out == nil {
		return nil
	}

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decode %s %s data: %w", method, path, err)
	}
	return nil
}

func (c *OrdersClient) decorate(ctx context.Context, req *http.Request) {
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		req.Header.Set(middleware.CorrelationIDHeader, id)
	}
}
