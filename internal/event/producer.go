package event

import (
	"context"
	"fmt"
	"log/slog"

	pkgkafka "github.com/utafrali/grocify/pkg/kafka"
	"github.com/utafrali/grocify/pkg/logger"

	"github.com/utafrali/grocify/internal/domain"
)

// Kafka topics for order lifecycle events.
var (
	TopicOrderCreated = pkgkafka.Topic(AggregateTypeOrder, "created")
	TopicOrderUpdated = pkgkafka.Topic(AggregateTypeOrder, "updated")
	TopicOrderDeleted = pkgkafka.Topic(AggregateTypeOrder, "deleted")
)

// AggregateTypeOrder is the aggregate type of every order event.
const AggregateTypeOrder = "order"

// SourceOrderAPI identifies events emitted by the order API.
const SourceOrderAPI = "grocify-api"

// Publisher emits order lifecycle events.
type Publisher interface {
	PublishOrderCreated(ctx context.Context, order *domain.Order) error
	PublishOrderUpdated(ctx context.Context, order *domain.Order) error
	PublishOrderDeleted(ctx context.Context, orderID string) error
}

// OrderData is the payload of order.created and order.updated events.
type OrderData struct {
	Order *domain.Order `json:"order"`
}

// OrderDeletedData is the payload of an order.deleted event.
type OrderDeletedData struct {
	OrderID string `json:"order_id"`
}

// Producer publishes order events to Kafka.
type Producer struct {
	kafka  *pkgkafka.Producer
	logger *slog.Logger
}

// NewProducer creates a Kafka-backed Publisher.
func NewProducer(kafka *pkgkafka.Producer, logger *slog.Logger) *Producer {
	return &Producer{
		kafka:  kafka,
		logger: logger,
	}
}

// PublishOrderCreated publishes an order.created event with the full order.
func (p *Producer) PublishOrderCreated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderCreated, order.ID, OrderData{Order: order})
}

// PublishOrderUpdated publishes an order.updated event with the stored order.
func (p *Producer) PublishOrderUpdated(ctx context.Context, order *domain.Order) error {
	return p.publish(ctx, TopicOrderUpdated, order.ID, OrderData{Order: order})
}

// PublishOrderDeleted publishes an order.deleted event.
func (p *Producer) PublishOrderDeleted(ctx context.Context, orderID string) error {
	return p.publish(ctx, TopicOrderDeleted, orderID, OrderDeletedData{OrderID: orderID})
}

func (p *Producer) publish(ctx context.Context, topic, orderID string, data any) error {
	evt, err := pkgkafka.NewEvent(topic, orderID, AggregateTypeOrder, SourceOrderAPI, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", topic, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.kafka.Publish(ctx, topic, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", topic, err)
	}

	p.logger.DebugContext(ctx, "published order event",
		slog.String("topic", topic),
		slog.String("order_id", orderID),
	)
	return nil
}

// Nop discards events. It is wired when Kafka is disabled.
type Nop struct{}

// PublishOrderCreated implements Publisher.
func (Nop) PublishOrderCreated(context.Context, *domain.Order) error { return nil }

// PublishOrderUpdated implements Publisher.
func (Nop) PublishOrderUpdated(context.Context, *domain.Order) error { return nil }

// PublishOrderDeleted implements Publisher.
func (Nop) PublishOrderDeleted(context.Context, string) error { return nil }
