package service

import (
	"slices"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/utafrali/grocify/internal/domain"
)

// otherPaymentMethod labels every payment method not offered at checkout.
const otherPaymentMethod = "other"

var (
	ordersCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "grocify_orders_created_total",
		Help: "Orders created, by payment method (UPI, Card, Cash or other).",
	}, []string{"payment_method"})

	ordersUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocify_orders_updated_total",
		Help: "Orders updated.",
	})

	ordersDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocify_orders_deleted_total",
		Help: "Orders deleted.",
	})

	idempotentReplays = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocify_orders_idempotent_replays_total",
		Help: "Create requests answered with an order bound to their idempotency key.",
	})

	reportFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "grocify_report_failures_total",
		Help: "Report generations that failed.",
	})
)

// paymentMethodLabel keeps the payment_method label to a fixed set, since
// the API accepts free-text methods.
func paymentMethodLabel(method string) string {
	if slices.Contains(domain.PaymentMethods(), method) {
		return method
	}
	return otherPaymentMethod
}
