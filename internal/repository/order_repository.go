package repository

import (
	"context"
	"errors"
	"fmt"

	"star-burger/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const orderColumns = `o.id, o.firstname, o.lastname, o.phonenumber, o.address, o.status, o.payment_type,
	o.restaurant_id, o.comment, o.registered_at, o.called_at, o.delivered_at, o.updated_at`

// orderRepository implements the OrderRepository interface using PostgreSQL.
type orderRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewOrderRepository creates a new PostgreSQL-backed order repository.
func NewOrderRepository(pool *pgxpool.Pool, logger zerolog.Logger) OrderRepository {
	return &orderRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "order").Logger(),
	}
}

// orderDest returns scan targets matching orderColumns.
func orderDest(o *model.Order) []any {
	return []any{
		&o.ID, &o.FirstName, &o.LastName, &o.PhoneNumber, &o.Address, &o.Status, &o.PaymentType,
		&o.RestaurantID, &o.Comment, &o.RegisteredAt, &o.CalledAt, &o.DeliveredAt, &o.UpdatedAt,
	}
}

// BeginTx starts a new database transaction.
func (r *orderRepository) BeginTx(ctx context.Context) (pgx.Tx, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to begin transaction")
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	return tx, nil
}

// CreateOrder inserts a new order within the provided transaction.
func (r *orderRepository) CreateOrder(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		INSERT INTO orders (id, firstname, lastname, phonenumber, address, status, payment_type,
			restaurant_id, comment, registered_at, called_at, delivered_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := tx.Exec(ctx, query,
		order.ID, order.FirstName, order.LastName, order.PhoneNumber, order.Address,
		order.Status, order.PaymentType, order.RestaurantID, order.Comment,
		order.RegisteredAt, order.CalledAt, order.DeliveredAt, order.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", order.ID.String()).
			Msg("failed to create order")
		return fmt.Errorf("failed to create order: %w", err)
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Msg("order created successfully")

	return nil
}

// CreateOrderItems inserts multiple order items within the provided transaction.
func (r *orderRepository) CreateOrderItems(ctx context.Context, tx pgx.Tx, items []model.OrderItem) error {
	if len(items) == 0 {
		return nil
	}

	query := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price)
		VALUES ($1, $2, $3, $4, $5)
	`

	batch := &pgx.Batch{}
	for _, item := range items {
		batch.Queue(query, item.ID, item.OrderID, item.ProductID, item.Quantity, item.Price)
	}

	results := tx.SendBatch(ctx, batch)
	defer results.Close()

	for i := 0; i < len(items); i++ {
		_, err := results.Exec()
		if err != nil {
			r.logger.Error().
				Err(err).
				Str("order_id", items[i].OrderID.String()).
				Int64("product_id", items[i].ProductID).
				Msg("failed to create order item")
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	r.logger.Debug().
		Int("count", len(items)).
		Msg("order items created successfully")

	return nil
}

// GetByID retrieves an order by its ID along with its items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, []model.OrderItem, error) {
	orderQuery := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.id = $1
	`

	var order model.Order
	err := r.pool.QueryRow(ctx, orderQuery, id).Scan(orderDest(&order)...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, nil, fmt.Errorf("failed to query order: %w", err)
	}

	itemsQuery := `
		SELECT id, order_id, product_id, quantity, price::text
		FROM order_items
		WHERE order_id = $1
		ORDER BY seq
	`

	rows, err := r.pool.Query(ctx, itemsQuery, id)
	if err != nil {
		r.logger.Error().
			Err(err).
			Str("order_id", id.String()).
			Msg("failed to query order items")
		return nil, nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	items := []model.OrderItem{}
	for rows.Next() {
		var (
			item  model.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Quantity, &price); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		if item.Price, err = decimal.NewFromString(price); err != nil {
			return nil, nil, fmt.Errorf("invalid order item price %q: %w", price, err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return &order, items, nil
}

// ListOpen returns open orders with their totals, product IDs and cached
// delivery coordinates.
func (r *orderRepository) ListOpen(ctx context.Context) ([]model.OpenOrder, error) {
	query := `
		SELECT ` + orderColumns + `,
		       COALESCE(SUM(i.quantity * i.price), 0)::text,
		       COALESCE(array_agg(DISTINCT i.product_id) FILTER (WHERE i.product_id IS NOT NULL), '{}'),
		       a.longitude, a.latitude
		FROM orders o
		LEFT JOIN order_items i ON i.order_id = o.id
		LEFT JOIN addresses a ON a.address = o.address
		WHERE o.status = ANY($1)
		GROUP BY o.id, a.longitude, a.latitude
		ORDER BY array_position($1, o.status), o.registered_at, o.id
	`

	statuses := make([]string, len(model.OpenStatuses))
	for i, s := range model.OpenStatuses {
		statuses[i] = string(s)
	}

	rows, err := r.pool.Query(ctx, query, statuses)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query open orders")
		return nil, fmt.Errorf("failed to query open orders: %w", err)
	}
	defer rows.Close()

	orders := []model.OpenOrder{}
	for rows.Next() {
		var (
			o        model.OpenOrder
			total    string
			lon, lat *float64
		)
		dest := append(orderDest(&o.Order), &total, &o.ProductIDs, &lon, &lat)
		if err := rows.Scan(dest...); err != nil {
			r.logger.Error().Err(err).Msg("failed to scan open order row")
			return nil, fmt.Errorf("failed to scan open order: %w", err)
		}
		if o.Total, err = decimal.NewFromString(total); err != nil {
			return nil, fmt.Errorf("invalid order total %q: %w", total, err)
		}
		o.Coordinates = model.CoordinatesFrom(lon, lat)
		orders = append(orders, o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating open order rows")
		return nil, fmt.Errorf("error iterating open orders: %w", err)
	}

	return orders, nil
}

// GetForUpdate locks the order row for the rest of tx.
func (r *orderRepository) GetForUpdate(ctx context.Context, tx pgx.Tx, id uuid.UUID) (*model.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders o
		WHERE o.id = $1
		FOR UPDATE
	`

	var order model.Order
	if err := tx.QueryRow(ctx, query, id).Scan(orderDest(&order)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to lock order")
		return nil, fmt.Errorf("failed to lock order: %w", err)
	}

	return &order, nil
}

// UpdateState persists status, restaurant and timestamps of an order.
func (r *orderRepository) UpdateState(ctx context.Context, tx pgx.Tx, order *model.Order) error {
	query := `
		UPDATE orders
		SET status = $2, restaurant_id = $3, called_at = $4, delivered_at = $5, updated_at = $6
		WHERE id = $1
	`

	tag, err := tx.Exec(ctx, query, order.ID, order.Status, order.RestaurantID,
		order.CalledAt, order.DeliveredAt, order.UpdatedAt)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", order.ID.String()).Msg("failed to update order")
		return fmt.Errorf("failed to update order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	r.logger.Debug().
		Str("order_id", order.ID.String()).
		Str("status", string(order.Status)).
		Msg("order state updated")

	return nil
}
