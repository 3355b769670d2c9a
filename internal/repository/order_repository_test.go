package repository

import (
	"context"
	"testing"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderSeed struct {
	id             uuid.UUID
	status         model.OrderStatus
	email          *string
	phone          string
	tableSessionID *uuid.UUID
	createdAt      time.Time
}

// insertOrder inserts one order row.
func insertOrder(t *testing.T, pool *pgxpool.Pool, seed orderSeed) {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO orders
			(id, status, customer_name, customer_email, customer_phone,
			 total, delivery_fee, payment_method, table_session_id, created_at)
		VALUES ($1, $2, 'Maria', $3, $4, 57.9, 8.0, 'pix', $5, $6)
	`, seed.id, seed.status, seed.email, seed.phone, seed.tableSessionID, seed.createdAt)
	require.NoError(t, err)
}

// insertOrderItem inserts one order line item.
func insertOrderItem(t *testing.T, pool *pgxpool.Pool, orderID uuid.UUID, productID string, options []model.ItemOption, createdAt time.Time) {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		INSERT INTO order_items
			(id, order_id, product_id, product_name, quantity, unit_price, total_price, options, created_at)
		VALUES ($1, $2, $3, $4, 1, 24.95, 24.95, $5, $6)
	`, uuid.New(), orderID, productID, "Produto "+productID, options, createdAt)
	require.NoError(t, err)
}

func TestOrderRepository_SearchByIdentifier(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOrderRepository(pool, logger)

	ctx := context.Background()

	email := "maria@example.com"
	older := orderSeed{id: uuid.New(), status: model.StatusDelivered, email: &email, phone: "11999990000", createdAt: time.Now().Add(-2 * time.Hour)}
	newer := orderSeed{id: uuid.New(), status: model.StatusPending, email: &email, phone: "11999990000", createdAt: time.Now().Add(-time.Hour)}
	other := orderSeed{id: uuid.New(), status: model.StatusDelivered, email: nil, phone: "11888880000", createdAt: time.Now()}

	insertOrder(t, pool, older)
	insertOrder(t, pool, newer)
	insertOrder(t, pool, other)

	insertOrderItem(t, pool, older.id, "P1", []model.ItemOption{{Name: "Grande", GroupName: "Tamanho", PriceModifier: 5}}, time.Now().Add(-2*time.Hour))
	insertOrderItem(t, pool, older.id, "P2", nil, time.Now().Add(-2*time.Hour).Add(time.Second))
	insertOrderItem(t, pool, newer.id, "P1", nil, time.Now().Add(-time.Hour))

	t.Run("By email newest first with items", func(t *testing.T) {
		orders, err := repo.SearchByIdentifier(ctx, "maria@example.com")

		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, newer.id, orders[0].ID)
		assert.Equal(t, older.id, orders[1].ID)

		require.Len(t, orders[1].Items, 2)
		assert.Equal(t, "P1", orders[1].Items[0].ProductID)
		require.Len(t, orders[1].Items[0].Options, 1)
		assert.Equal(t, "Tamanho", orders[1].Items[0].Options[0].GroupName)

		require.Len(t, orders[0].Items, 1)
	})

	t.Run("Email match ignores stored case", func(t *testing.T) {
		// Lookup identifiers arrive already lowercased
		_, err := pool.Exec(ctx, `UPDATE orders SET customer_email = 'MARIA@example.com' WHERE id = $1`, newer.id)
		require.NoError(t, err)

		orders, err := repo.SearchByIdentifier(ctx, "maria@example.com")
		require.NoError(t, err)
		assert.Len(t, orders, 2)
	})

	t.Run("By phone", func(t *testing.T) {
		orders, err := repo.SearchByIdentifier(ctx, "11888880000")

		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, other.id, orders[0].ID)
		assert.Empty(t, orders[0].Items)
	})

	t.Run("No matches", func(t *testing.T) {
		orders, err := repo.SearchByIdentifier(ctx, "nobody@example.com")

		require.NoError(t, err)
		assert.Empty(t, orders)
	})
}

func TestOrderRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOrderRepository(pool, logger)

	ctx := context.Background()

	seed := orderSeed{id: uuid.New(), status: model.StatusDelivered, phone: "11999990000", createdAt: time.Now()}
	insertOrder(t, pool, seed)

	notes := "Sem cebola"
	split := []model.ItemOption{{Name: "Meio a meio", SplitFlavorProductIDs: []string{"P7", "P9"}}}
	insertOrderItem(t, pool, seed.id, "P1", split, time.Now())

	_, err := pool.Exec(ctx, `UPDATE order_items SET notes = $1 WHERE order_id = $2`, notes, seed.id)
	require.NoError(t, err)

	t.Run("Found with items", func(t *testing.T) {
		order, err := repo.GetByID(ctx, seed.id)

		require.NoError(t, err)
		require.NotNil(t, order)
		assert.Equal(t, model.StatusDelivered, order.Status)
		require.Len(t, order.Items, 1)
		require.NotNil(t, order.Items[0].Notes)
		assert.Equal(t, notes, *order.Items[0].Notes)

		// The legacy split field round-trips through the options JSON
		require.Len(t, order.Items[0].Options, 1)
		assert.Equal(t, model.OptionSplit, order.Items[0].Options[0].Kind())
	})

	t.Run("Missing order returns nil without error", func(t *testing.T) {
		order, err := repo.GetByID(ctx, uuid.New())

		require.NoError(t, err)
		assert.Nil(t, order)
	})
}

func TestOrderRepository_UpdateStatus(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOrderRepository(pool, logger)

	ctx := context.Background()

	seed := orderSeed{id: uuid.New(), status: model.StatusPending, phone: "11999990000", createdAt: time.Now()}
	insertOrder(t, pool, seed)

	t.Run("Cancel with reason", func(t *testing.T) {
		reason := "mudei de ideia"
		err := repo.UpdateStatus(ctx, seed.id, model.StatusCancelled, &reason)
		require.NoError(t, err)

		order, err := repo.GetByID(ctx, seed.id)
		require.NoError(t, err)
		assert.Equal(t, model.StatusCancelled, order.Status)
		require.NotNil(t, order.CancellationReason)
		assert.Equal(t, reason, *order.CancellationReason)
	})

	t.Run("Nil reason keeps the recorded one", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, seed.id, model.StatusCancelled, nil)
		require.NoError(t, err)

		order, err := repo.GetByID(ctx, seed.id)
		require.NoError(t, err)
		require.NotNil(t, order.CancellationReason)
		assert.Equal(t, "mudei de ideia", *order.CancellationReason)
	})

	t.Run("Unknown order", func(t *testing.T) {
		err := repo.UpdateStatus(ctx, uuid.New(), model.StatusCancelled, nil)
		assert.ErrorIs(t, err, model.ErrOrderNotFound)
	})
}

func TestOrderRepository_TableSessions(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	logger := zerolog.Nop()
	repo := NewOrderRepository(pool, logger)

	ctx := context.Background()

	tableSessionID := uuid.New()
	_, err := pool.Exec(ctx, `INSERT INTO table_sessions (id, status) VALUES ($1, 'open')`, tableSessionID)
	require.NoError(t, err)

	first := orderSeed{id: uuid.New(), status: model.StatusPending, phone: "11999990000", tableSessionID: &tableSessionID, createdAt: time.Now()}
	second := orderSeed{id: uuid.New(), status: model.StatusConfirmed, phone: "11999990000", tableSessionID: &tableSessionID, createdAt: time.Now()}
	cancelled := orderSeed{id: uuid.New(), status: model.StatusCancelled, phone: "11999990000", tableSessionID: &tableSessionID, createdAt: time.Now()}

	insertOrder(t, pool, first)
	insertOrder(t, pool, second)
	insertOrder(t, pool, cancelled)

	t.Run("Count excludes the given order and cancelled ones", func(t *testing.T) {
		count, err := repo.CountOpenForTableSession(ctx, tableSessionID, first.id)

		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})

	t.Run("Close marks the session closed", func(t *testing.T) {
		err := repo.CloseTableSession(ctx, tableSessionID)
		require.NoError(t, err)

		var status string
		var closedAt *time.Time
		err = pool.QueryRow(ctx, `SELECT status, closed_at FROM table_sessions WHERE id = $1`, tableSessionID).
			Scan(&status, &closedAt)
		require.NoError(t, err)
		assert.Equal(t, "closed", status)
		assert.NotNil(t, closedAt)
	})
}
