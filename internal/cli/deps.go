package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/pkg/database"

	"github.com/utafrali/grocify/internal/client"
	"github.com/utafrali/grocify/internal/config"
	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
	"github.com/utafrali/grocify/internal/repository/memory"
	redisrepo "github.com/utafrali/grocify/internal/repository/redis"
)

// API is the part of the order API the terminal client uses.
// *client.OrdersClient implements it.
type API interface {
	CreateOrder(ctx context.Context, draft domain.OrderDraft) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
	UpdateOrder(ctx context.Context, id, items string, lines []domain.OrderLine, total decimal.Decimal) (*domain.Order, error)
	DeleteOrder(ctx context.Context, id string) error
	Statistics(ctx context.Context) (domain.Statistics, error)
	DownloadReport(ctx context.Context) ([]byte, error)
}

// Deps are the collaborators of one CLI invocation.
type Deps struct {
	Carts repository.CartRepository
	API   API
	Close func() error
}

// DepsFactory builds the collaborators from configuration.
type DepsFactory func(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) (*Deps, error)

// DefaultDeps keeps carts in Redis and talks to the API over HTTP.
func DefaultDeps(ctx context.Context, cfg *config.ClientConfig, logger *slog.Logger) (*Deps, error) {
	api := client.New(cfg.APIURL, cfg.HTTPClient(), cfg.CircuitBreaker(), logger)

	if !cfg.RedisEnabled {
		logger.Warn("cart store disabled, the cart lives only for this command")
		return &Deps{Carts: memory.NewCartRepository(), API: api}, nil
	}

	rdb, err := database.NewRedisClient(ctx, cfg.Redis())
	if err != nil {
		return nil, fmt.Errorf("connect to cart store: %w", err)
	}
	return &Deps{
		Carts: redisrepo.NewCartRepository(rdb, cfg.CartTTL()),
		API:   api,
		Close: rdb.Close,
	}, nil
}
