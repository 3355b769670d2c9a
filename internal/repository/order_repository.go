package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// orderRepository implements OrderRepository using PostgreSQL.
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

const orderColumns = `
	id, status, customer_name, customer_email, customer_phone,
	total, delivery_fee, payment_method, cancellation_reason,
	table_session_id, delivery_address, created_at
`

func scanOrder(row pgx.Row) (*model.Order, error) {
	var o model.Order
	err := row.Scan(
		&o.ID, &o.Status, &o.CustomerName, &o.CustomerEmail, &o.CustomerPhone,
		&o.Total, &o.DeliveryFee, &o.PaymentMethod, &o.CancellationReason,
		&o.TableSessionID, &o.DeliveryAddress, &o.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// SearchByIdentifier returns the orders placed with the given email or
// phone, newest first, with line items and delivery address attached.
// The identifier is expected to be already normalized by the caller.
func (r *orderRepository) SearchByIdentifier(ctx context.Context, identifier string) ([]model.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE LOWER(customer_email) = $1 OR customer_phone = $1
		ORDER BY created_at DESC
	`, orderColumns)

	rows, err := r.pool.Query(ctx, query, identifier)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query orders by identifier")
		return nil, fmt.Errorf("failed to query orders: %w", err)
	}
	defer rows.Close()

	var orders []model.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order row")
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *o)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order rows")
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	if len(orders) == 0 {
		return []model.Order{}, nil
	}

	orderIDs := make([]uuid.UUID, len(orders))
	byID := make(map[uuid.UUID]int, len(orders))
	for i, o := range orders {
		orderIDs[i] = o.ID
		byID[o.ID] = i
	}

	items, err := r.getItems(ctx, orderIDs)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		if i, ok := byID[item.OrderID]; ok {
			orders[i].Items = append(orders[i].Items, item)
		}
	}

	return orders, nil
}

// GetByID retrieves a single order with its line items.
func (r *orderRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE id = $1
	`, orderColumns)

	o, err := scanOrder(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("order_id", id.String()).Msg("order not found")
			return nil, nil
		}
		r.logger.Error().Err(err).Str("order_id", id.String()).Msg("failed to query order")
		return nil, fmt.Errorf("failed to query order: %w", err)
	}

	items, err := r.getItems(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	o.Items = items

	return o, nil
}

// getItems loads the line items of the given orders in a single query.
func (r *orderRepository) getItems(ctx context.Context, orderIDs []uuid.UUID) ([]model.OrderLineItem, error) {
	query := `
		SELECT id, order_id, product_id, product_name, quantity,
			unit_price, total_price, options, notes
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, created_at
	`

	rows, err := r.pool.Query(ctx, query, orderIDs)
	if err != nil {
		r.logger.Error().Err(err).Int("order_count", len(orderIDs)).Msg("failed to query order items")
		return nil, fmt.Errorf("failed to query order items: %w", err)
	}
	defer rows.Close()

	var items []model.OrderLineItem
	for rows.Next() {
		var item model.OrderLineItem
		err := rows.Scan(
			&item.ID, &item.OrderID, &item.ProductID, &item.ProductName,
			&item.Quantity, &item.UnitPrice, &item.TotalPrice,
			&item.Options, &item.Notes,
		)
		if err != nil {
			r.logger.Error().Err(err).Msg("failed to scan order item row")
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error().Err(err).Msg("error iterating order item rows")
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// UpdateStatus transitions an order to the given status, recording the
// cancellation reason when provided.
func (r *orderRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.OrderStatus, reason *string) error {
	query := `
		UPDATE orders
		SET status = $2, cancellation_reason = COALESCE($3, cancellation_reason)
		WHERE id = $1
	`

	tag, err := r.pool.Exec(ctx, query, id, status, reason)
	if err != nil {
		r.logger.Error().Err(err).
			Str("order_id", id.String()).
			Str("status", string(status)).
			Msg("failed to update order status")
		return fmt.Errorf("failed to update order status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return model.ErrOrderNotFound
	}

	return nil
}

// CountOpenForTableSession counts non-cancelled orders in a table session,
// excluding the given order.
func (r *orderRepository) CountOpenForTableSession(ctx context.Context, sessionID, excludeOrderID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM orders
		WHERE table_session_id = $1 AND id <> $2 AND status <> 'cancelled'
	`

	var count int
	if err := r.pool.QueryRow(ctx, query, sessionID, excludeOrderID).Scan(&count); err != nil {
		r.logger.Error().Err(err).
			Str("table_session_id", sessionID.String()).
			Msg("failed to count open orders for table session")
		return 0, fmt.Errorf("failed to count open orders: %w", err)
	}

	return count, nil
}

// CloseTableSession marks a table session as closed.
func (r *orderRepository) CloseTableSession(ctx context.Context, sessionID uuid.UUID) error {
	query := `
		UPDATE table_sessions
		SET status = 'closed', closed_at = NOW()
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, sessionID); err != nil {
		r.logger.Error().Err(err).
			Str("table_session_id", sessionID.String()).
			Msg("failed to close table session")
		return fmt.Errorf("failed to close table session: %w", err)
	}

	return nil
}
