package integration

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/passosalansilva-lab/brasil-simple-display/internal/cartstore"
	"github.com/passosalansilva-lab/brasil-simple-display/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDB represents a test database instance.
type TestDB struct {
	Container *postgres.PostgresContainer
	Pool      *pgxpool.Pool
	ConnStr   string
}

// SetupTestDB creates a PostgreSQL test container with the storefront schema
// loaded.
func SetupTestDB(t *testing.T) *TestDB {
	t.Helper()

	ctx := context.Background()

	postgresContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	connStr, err := postgresContainer.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		t.Fatalf("failed to get connection string: %v", err)
	}

	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		t.Fatalf("failed to create connection pool: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		t.Fatalf("failed to ping database: %v", err)
	}

	createSchema(t, pool)

	t.Cleanup(func() {
		pool.Close()
		if err := postgresContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	})

	return &TestDB{
		Container: postgresContainer,
		Pool:      pool,
		ConnStr:   connStr,
	}
}

// createSchema creates the storefront database schema for testing.
func createSchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	schema := `
		CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

		CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price DECIMAL(10,2) NOT NULL DEFAULT 0,
			image_ref TEXT,
			is_active BOOLEAN NOT NULL DEFAULT TRUE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS product_option_groups (
			id TEXT PRIMARY KEY,
			product_id TEXT NOT NULL REFERENCES products(id) ON DELETE CASCADE,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS product_options (
			id TEXT PRIMARY KEY,
			group_id TEXT NOT NULL REFERENCES product_option_groups(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			is_available BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS table_sessions (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL DEFAULT 'open',
			closed_at TIMESTAMPTZ
		);

		CREATE TABLE IF NOT EXISTS orders (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			status TEXT NOT NULL DEFAULT 'pending',
			customer_name TEXT NOT NULL DEFAULT '',
			customer_email TEXT,
			customer_phone TEXT NOT NULL DEFAULT '',
			total DECIMAL(10,2) NOT NULL DEFAULT 0,
			delivery_fee DECIMAL(10,2) NOT NULL DEFAULT 0,
			payment_method TEXT NOT NULL DEFAULT '',
			cancellation_reason TEXT,
			table_session_id UUID REFERENCES table_sessions(id),
			delivery_address JSONB,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS order_items (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			order_id UUID NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
			product_id TEXT NOT NULL,
			product_name TEXT NOT NULL,
			quantity INTEGER NOT NULL CHECK (quantity > 0),
			unit_price DECIMAL(10,2) NOT NULL,
			total_price DECIMAL(10,2) NOT NULL,
			options JSONB,
			notes TEXT,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS promotions (
			id TEXT PRIMARY KEY,
			company_id TEXT NOT NULL,
			name TEXT NOT NULL,
			discount_type TEXT NOT NULL,
			discount_value DECIMAL(10,2) NOT NULL DEFAULT 0,
			is_active BOOLEAN NOT NULL DEFAULT TRUE
		);

		CREATE TABLE IF NOT EXISTS promotion_events (
			id UUID PRIMARY KEY,
			promotion_id TEXT NOT NULL REFERENCES promotions(id),
			company_id TEXT NOT NULL,
			event_type TEXT NOT NULL,
			order_id UUID,
			revenue DECIMAL(10,2) NOT NULL DEFAULT 0,
			session_id TEXT,
			created_at TIMESTAMPTZ NOT NULL
		);
	`

	_, err := pool.Exec(ctx, schema)
	if err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
}

// StorefrontSeed holds the identifiers of the rows SeedStorefront creates.
type StorefrontSeed struct {
	CompanyID   string
	CompanySlug string

	// Delivered order for maria@example.com with an active pizza carrying
	// the "Grande" size option plus a plain drink.
	DeliveredOrderID uuid.UUID

	// Pending order for the same customer, still cancellable.
	PendingOrderID uuid.UUID

	// Delivered order referencing the withdrawn product.
	InactiveItemOrderID uuid.UUID

	// Delivered order whose option no longer exists in the schema.
	MismatchOrderID uuid.UUID
}

// SeedStorefront inserts a small but complete storefront: a catalog with
// option groups, and the order history the tests replay against it.
func SeedStorefront(t *testing.T, pool *pgxpool.Pool) StorefrontSeed {
	t.Helper()

	ctx := context.Background()

	seed := StorefrontSeed{
		CompanyID:           "company-1",
		CompanySlug:         "pizzaria-boa",
		DeliveredOrderID:    uuid.New(),
		PendingOrderID:      uuid.New(),
		InactiveItemOrderID: uuid.New(),
		MismatchOrderID:     uuid.New(),
	}

	products := []struct {
		id       string
		name     string
		imageRef *string
		isActive bool
	}{
		{"pizza-calabresa", "Pizza Calabresa", ptr("https://cdn.example.com/calabresa.jpg"), true},
		{"guarana-2l", "Guaraná 2L", nil, true},
		{"pizza-retirada", "Pizza Quatro Queijos", nil, false},
	}
	for _, p := range products {
		_, err := pool.Exec(ctx, `
			INSERT INTO products (id, company_id, name, price, image_ref, is_active)
			VALUES ($1, $2, $3, 45.90, $4, $5)
		`, p.id, seed.CompanyID, p.name, p.imageRef, p.isActive)
		if err != nil {
			t.Fatalf("failed to seed product %s: %v", p.id, err)
		}
	}

	_, err := pool.Exec(ctx, `
		INSERT INTO product_option_groups (id, product_id, name)
		VALUES ('g-tamanho', 'pizza-calabresa', 'Tamanho')
	`)
	if err != nil {
		t.Fatalf("failed to seed option group: %v", err)
	}
	for _, choice := range []string{"Pequena", "Grande"} {
		_, err := pool.Exec(ctx, `
			INSERT INTO product_options (id, group_id, name, is_available)
			VALUES ($1, 'g-tamanho', $2, TRUE)
		`, "g-tamanho-"+choice, choice)
		if err != nil {
			t.Fatalf("failed to seed option %s: %v", choice, err)
		}
	}

	orders := []struct {
		id        uuid.UUID
		status    model.OrderStatus
		createdAt time.Time
	}{
		{seed.DeliveredOrderID, model.StatusDelivered, time.Now().Add(-48 * time.Hour)},
		{seed.PendingOrderID, model.StatusPending, time.Now().Add(-time.Hour)},
		{seed.InactiveItemOrderID, model.StatusDelivered, time.Now().Add(-72 * time.Hour)},
		{seed.MismatchOrderID, model.StatusDelivered, time.Now().Add(-96 * time.Hour)},
	}
	for _, o := range orders {
		_, err := pool.Exec(ctx, `
			INSERT INTO orders
				(id, status, customer_name, customer_email, customer_phone,
				 total, delivery_fee, payment_method, created_at)
			VALUES ($1, $2, 'Maria', 'maria@example.com', '11999990000',
				57.90, 8.00, 'pix', $3)
		`, o.id, o.status, o.createdAt)
		if err != nil {
			t.Fatalf("failed to seed order %s: %v", o.id, err)
		}
	}

	items := []struct {
		orderID   uuid.UUID
		productID string
		name      string
		options   []model.ItemOption
	}{
		{seed.DeliveredOrderID, "pizza-calabresa", "Pizza Calabresa",
			[]model.ItemOption{{Name: "Grande", GroupName: "Tamanho", PriceModifier: 8}}},
		{seed.DeliveredOrderID, "guarana-2l", "Guaraná 2L", nil},
		{seed.PendingOrderID, "guarana-2l", "Guaraná 2L", nil},
		{seed.InactiveItemOrderID, "pizza-retirada", "Pizza Quatro Queijos", nil},
		{seed.MismatchOrderID, "pizza-calabresa", "Pizza Calabresa",
			[]model.ItemOption{{Name: "Gigante", GroupName: "Tamanho", PriceModifier: 12}}},
	}
	for _, item := range items {
		_, err := pool.Exec(ctx, `
			INSERT INTO order_items
				(id, order_id, product_id, product_name, quantity, unit_price, total_price, options)
			VALUES ($1, $2, $3, $4, 1, 45.90, 45.90, $5)
		`, uuid.New(), item.orderID, item.productID, item.name, item.options)
		if err != nil {
			t.Fatalf("failed to seed order item %s: %v", item.productID, err)
		}
	}

	return seed
}

// CleanupDB cleans all data from test tables.
func CleanupDB(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()

	ctx := context.Background()

	tables := []string{
		"promotion_events", "promotions",
		"order_items", "orders", "table_sessions",
		"product_options", "product_option_groups", "products",
	}
	for _, table := range tables {
		_, err := pool.Exec(ctx, fmt.Sprintf("DELETE FROM %s", table))
		if err != nil {
			t.Logf("failed to clean table %s: %v", table, err)
		}
	}
}

// NewAvailabilityServer starts a stub of the remote inventory service that
// reports the given product IDs as unavailable.
func NewAvailabilityServer(t *testing.T, unavailable ...string) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"ok":                    true,
			"unavailableProductIds": unavailable,
		})
	}))
	t.Cleanup(srv.Close)

	return srv
}

// MemoryStore is an in-process cartstore.Store so the API tests exercise the
// draft persistence contract without a Redis container.
type MemoryStore struct {
	mu          sync.Mutex
	drafts      map[string]*model.CartDraft
	identifiers map[string]string
}

// NewMemoryStore creates an empty in-memory session slot store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts:      make(map[string]*model.CartDraft),
		identifiers: make(map[string]string),
	}
}

func (m *MemoryStore) SaveDraft(_ context.Context, sessionID string, draft *model.CartDraft) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts[sessionID] = draft
	return nil
}

func (m *MemoryStore) GetDraft(_ context.Context, sessionID string) (*model.CartDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	draft, ok := m.drafts[sessionID]
	if !ok {
		return nil, cartstore.ErrNotFound
	}
	return draft, nil
}

func (m *MemoryStore) ClearDraft(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.drafts, sessionID)
	return nil
}

func (m *MemoryStore) SaveLastIdentifier(_ context.Context, sessionID, identifier string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identifiers[sessionID] = identifier
	return nil
}

func (m *MemoryStore) GetLastIdentifier(_ context.Context, sessionID string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	identifier, ok := m.identifiers[sessionID]
	if !ok {
		return "", cartstore.ErrNotFound
	}
	return identifier, nil
}

func ptr(s string) *string {
	return &s
}
