package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/utafrali/grocify/pkg/database"
	apperrors "github.com/utafrali/grocify/pkg/errors"

	"github.com/utafrali/grocify/internal/domain"
	"github.com/utafrali/grocify/internal/repository"
)

const uniqueViolation = "23505"

const orderColumns = `id, items, lines, total::text, payment_method, created_at, updated_at`

// OrderRepository implements repository.OrderRepository using PostgreSQL.
type OrderRepository struct {
	pool database.DBTX
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool database.DBTX) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts a new order row.
func (r *OrderRepository) Create(ctx context.Context, o *domain.Order) (err error) {
	query := `
		INSERT INTO orders (id, items, lines, total, payment_method, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	ctx, done := database.TraceQuery(ctx, database.SystemPostgres, "CreateOrder", query)
	defer func() { done(err) }()

	linesJSON, err := marshalLines(o.Lines)
	if err != nil {
		return err
	}

	_, err = r.pool.Exec(ctx, query,
		o.ID,
		o.Items,
		linesJSON,
		o.Total.String(),
		o.PaymentMethod,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return apperrors.Conflict("order " + o.ID + " already exists")
		}
		return fmt.Errorf("insert order: %w", err)
	}

	return nil
}

// GetByID retrieves an order by its ID.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (o *domain.Order, err error) {
	// The id column is UUID; a legacy ObjectId can never match a row.
	if domain.IsLegacyOrderID(id) {
		return nil, apperrors.NotFound("order", id)
	}
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	ctx, done := database.TraceQuery(ctx, database.SystemPostgres, "GetOrder", query)
	defer func() { done(err) }()

	o, err = scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("scan order: %w", err)
	}
	return o, nil
}

// List returns all orders, newest first.
func (r *OrderRepository) List(ctx context.Context) (orders []domain.Order, err error) {
	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, id`

	ctx, done := database.TraceQuery(ctx, database.SystemPostgres, "ListOrders", query)
	defer func() { done(err) }()

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer rows.Close()

	orders = make([]domain.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan order row: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate order rows: %w", err)
	}

	return orders, nil
}

// Update overwrites items, lines and total and returns the updated row.
func (r *OrderRepository) Update(ctx context.Context, id string, u repository.OrderUpdate) (o *domain.Order, err error) {
	if domain.IsLegacyOrderID(id) {
		return nil, apperrors.NotFound("order", id)
	}
	query := `
		UPDATE orders
		SET items = $1, lines = $2, total = $3, updated_at = $4
		WHERE id = $5
		RETURNING ` + orderColumns

	ctx, done := database.TraceQuery(ctx, database.SystemPostgres, "UpdateOrder", query)
	defer func() { done(err) }()

	linesJSON, err := marshalLines(u.Lines)
	if err != nil {
		return nil, err
	}

	o, err = scanOrder(r.pool.QueryRow(ctx, query, u.Items, linesJSON, u.Total.String(), u.UpdatedAt, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("order", id)
		}
		return nil, fmt.Errorf("update order: %w", err)
	}
	return o, nil
}

// Delete removes an order row.
func (r *OrderRepository) Delete(ctx context.Context, id string) (err error) {
	if domain.IsLegacyOrderID(id) {
		return apperrors.NotFound("order", id)
	}
	query := `DELETE FROM orders WHERE id = $1`

	ctx, done := database.TraceQuery(ctx, database.SystemPostgres, "DeleteOrder", query)
	defer func() { done(err) }()

	ct, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete order: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("order", id)
	}

	return nil
}

func scanOrder(row pgx.Row) (*domain.Order, error) {
	var (
		o         domain.Order
		linesJSON []byte
		total     string
	)

	if err := row.Scan(
		&o.ID,
		&o.Items,
		&linesJSON,
		&total,
		&o.PaymentMethod,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return nil, err
	}

	amount, err := decimal.NewFromString(total)
	if err != nil {
		return nil, fmt.Errorf("parse total %q: %w", total, err)
	}
	o.Total = amount
	o.CreatedAt = o.CreatedAt.UTC()
	o.UpdatedAt = o.UpdatedAt.UTC()

	if len(linesJSON) > 0 && string(linesJSON) != "null" {
		if err := json.Unmarshal(linesJSON, &o.Lines); err != nil {
			return nil, fmt.Errorf("unmarshal order lines: %w", err)
		}
	}

	return &o, nil
}

func marshalLines(lines []domain.OrderLine) ([]byte, error) {
	if len(lines) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal order lines: %w", err)
	}
	return data, nil
}
