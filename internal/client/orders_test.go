package client

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/utafrali/grocify/pkg/errors"
	"github.com/utafrali/grocify/pkg/health"
	"github.com/utafrali/grocify/pkg/httpclient"
	"github.com/utafrali/grocify/pkg/logger"
	"github.com/utafrali/grocify/pkg/middleware"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/event"
	handler "github.com/utafrali/grocify/internal/handler/http"
	"github.com/utafrali/grocify/internal/report"
	"github.com/utafrali/grocify/internal/repository/memory"
	"github.com/utafrali/grocify/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func testHTTPConfig() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = 5 * time.Second
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = 5 * time.Millisecond
	return cfg
}

func newClient(t *testing.T, url string) *OrdersClient {
	t.Helper()
	cb := httpclient.DefaultCircuitBreakerConfig("test-" + t.Name())
	cb.MinRequests = 100
	return New(url, testHTTPConfig(), cb, testLogger())
}

// newAPI starts the real API over an in-memory store.
func newAPI(t *testing.T) *httptest.Server {
	t.Helper()
	logger := testLogger()
	orders := service.NewOrderService(memory.NewOrderRepository(), memory.NewIdempotencyStore(time.Hour), event.Nop{}, logger)
	reports := service.NewReportService(orders, report.PDFRenderer{}, report.DefaultOptions(), logger)
	router := handler.NewRouter(orders, reports, health.NewHandler(), logger, handler.RouterConfig{CORS: middleware.DefaultCORSConfig()})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func TestOrdersClient_Lifecycle(t *testing.T) {
	srv := newAPI(t)
	c := newClient(t, srv.URL+"/")
	ctx := context.Background()

	created, err := c.CreateOrder(ctx, domain.OrderDraft{
		Lines: []domain.OrderLine{
			{Name: "Bread", Quantity: 1, UnitPrice: d("40")},
			{Name: "Milk", Quantity: 2, UnitPrice: d("50")},
		},
		Total:         d("140"),
		PaymentMethod: domain.PaymentMethodCash,
	})
	require.NoError(t, err)
	assert.Equal(t, "Bread (x1), Milk (x2)", created.Items)
	assert.True(t, created.Total.Equal(d("140")))

	got, err := c.GetOrder(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Len(t, got.Lines, 2)

	updated, err := c.UpdateOrder(ctx, created.ID, "Milk (x3)", nil, d("150"))
	require.NoError(t, err)
	assert.Equal(t, "Milk (x3)", updated.Items)
	assert.Empty(t, updated.Lines)
	assert.Equal(t, domain.PaymentMethodCash, updated.PaymentMethod)

	stats, err := c.Statistics(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalOrders)
	assert.True(t, stats.TotalRevenue.Equal(d("150")))
	assert.Equal(t, 3, stats.TotalProductsSold)

	pdf, err := c.DownloadReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(pdf[:5]))

	require.NoError(t, c.DeleteOrder(ctx, created.ID))

	orders, err := c.ListOrders(ctx)
	require.NoError(t, err)
	assert.Empty(t, orders)

	err = c.DeleteOrder(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrdersClient_SameKeyCreatesOnce(t *testing.T) {
	srv := newAPI(t)
	c := newClient(t, srv.URL)
	ctx := context.Background()
	draft := domain.OrderDraft{Items: "Milk (x2)", Total: d("100"), PaymentMethod: domain.PaymentMethodUPI}

	first, err := c.CreateOrderWithKey(ctx, "retry-1", draft)
	require.NoError(t, err)
	second, err := c.CreateOrderWithKey(ctx, "retry-1", draft)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	orders, err := c.ListOrders(ctx)
	require.NoError(t, err)
	assert.Len(t, orders, 1)
}

func TestOrdersClient_ValidationError(t *testing.T) {
	srv := newAPI(t)
	c := newClient(t, srv.URL)

	_, err := c.CreateOrder(context.Background(), domain.OrderDraft{Items: "Milk (x2)", Total: d("100")})

	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "paymentMethod")
}

func TestOrdersClient_NotFound(t *testing.T) {
	srv := newAPI(t)
	c := newClient(t, srv.URL)

	_, err := c.GetOrder(context.Background(), "550e8400-e29b-41d4-a716-446655440000")

	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestOrdersClient_PostIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"code":"PERSISTENCE_ERROR","message":"failed to create order"}}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	_, err := c.CreateOrder(context.Background(), domain.OrderDraft{Items: "Milk (x1)", Total: d("50"), PaymentMethod: "UPI"})

	assert.ErrorIs(t, err, apperrors.ErrPersistence)
	assert.Equal(t, int32(1), calls.Load())
}

func TestOrdersClient_GetIsRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	orders, err := c.ListOrders(context.Background())

	require.NoError(t, err)
	assert.Empty(t, orders)
	assert.Equal(t, int32(3), calls.Load())
}

func TestOrdersClient_SendsHeaders(t *testing.T) {
	var gotKey, gotCorrelation string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotCorrelation = r.Header.Get(middleware.CorrelationIDHeader)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"data":{"id":"o-1","items":"Milk (x1)","total":50,"paymentMethod":"UPI"}}`))
	}))
	defer srv.Close()
	c := newClient(t, srv.URL)

	ctx := logger.WithCorrelationID(context.Background(), "corr-9")
	order, err := c.CreateOrder(ctx, domain.OrderDraft{Items: "Milk (x1)", Total: d("50"), PaymentMethod: "UPI"})

	require.NoError(t, err)
	assert.Equal(t, "o-1", order.ID)
	assert.NotEmpty(t, gotKey)
	assert.Equal(t, "corr-9", gotCorrelation)
}
